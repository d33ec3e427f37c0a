// Package payment は決済インテントの作成、支払い記録、カート管理を提供する。
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultAPIURL は決済プロバイダーAPIのベースURL。
	DefaultAPIURL = "https://api.stripe.com"
	// intentPath は決済インテント作成エンドポイントのパス。
	intentPath = "/v1/payment_intents"
	// maxResponseBytes はプロバイダーレスポンスの読み取り上限。
	maxResponseBytes = 1 << 20
)

// Intent はプロバイダーが発行した決済インテント。
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Client は決済プロバイダーAPIのクライアント。
// 金額は最小通貨単位（centなど）の整数で渡す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	secretKey  string
	currency   string
}

// NewClient はClientを生成する。httpClientにはSSRF対策済みのクライアントを渡す。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, secretKey, currency string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if currency == "" {
		currency = "usd"
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		currency:   strings.ToLower(currency),
	}
}

// CreateIntent は指定金額の決済インテントを作成する。
// 非2xxレスポンスやclient_secretの欠落はエラーとして返す。
func (c *Client) CreateIntent(ctx context.Context, amount int64) (*Intent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("金額は正の値である必要があります: %d", amount)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", c.currency)
	form.Add("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+intentPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("User-Agent", "PropertyPulse/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("決済プロバイダーの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.Int64("amount", amount),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("決済プロバイダーがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.Int64("amount", amount),
		)
		return nil, fmt.Errorf("決済プロバイダーがステータス %d を返しました", resp.StatusCode)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("レスポンスにclient_secretが含まれていません")
	}
	return &intent, nil
}
