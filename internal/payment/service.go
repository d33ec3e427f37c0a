package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/metrics"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

// maxPrice は決済インテントで受け付ける金額の上限（主通貨単位）。
const maxPrice = 1_000_000

// IntentProvider は決済インテントを発行する外部プロバイダー。*Clientが満たす。
type IntentProvider interface {
	CreateIntent(ctx context.Context, amount int64) (*Intent, error)
}

// RecordInput は支払い記録の入力。
type RecordInput struct {
	UserEmail     string
	Price         float64
	TransactionID string
	CartIDs       []string
}

// RecordResult は支払い記録の結果。DeletedCountは削除したカート項目数。
type RecordResult struct {
	Payment      *model.Payment
	DeletedCount int64
}

// Service は決済と支払い記録のユースケースを提供する。
type Service struct {
	provider IntentProvider
	payments repository.PaymentRepository
	carts    repository.CartRepository
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewService はServiceを生成する。providerがnilの場合、決済インテントの作成はPAYMENTS_DISABLEDを返す。
func NewService(provider IntentProvider, payments repository.PaymentRepository, carts repository.CartRepository, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{
		provider: provider,
		payments: payments,
		carts:    carts,
		metrics:  rec,
		now:      time.Now,
	}
}

// AmountInMinorUnits は主通貨単位の金額を最小通貨単位に変換する（price * 100 を四捨五入）。
func AmountInMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return model.NewValidationError("price must be a positive number")
	}
	if price > maxPrice {
		return model.NewValidationError(fmt.Sprintf("price must be at most %d", maxPrice))
	}
	return nil
}

// CreateIntent は指定金額の決済インテントを作成し、クライアント用のシークレットを返す。
func (s *Service) CreateIntent(ctx context.Context, price float64) (string, error) {
	if err := validatePrice(price); err != nil {
		return "", err
	}
	if s.provider == nil {
		s.metrics.RecordPaymentIntent("disabled")
		return "", model.NewPaymentsDisabledError()
	}

	amount := AmountInMinorUnits(price)
	if amount <= 0 {
		return "", model.NewValidationError("price is too small")
	}

	intent, err := s.provider.CreateIntent(ctx, amount)
	if err != nil {
		s.metrics.RecordPaymentIntent("failed")
		slog.Error("payment intent creation failed",
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		return "", model.NewPaymentProviderError()
	}

	s.metrics.RecordPaymentIntent("created")
	slog.Info("payment intent created",
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", amount),
	)
	return intent.ClientSecret, nil
}

// Record は完了した支払いを記録し、対象ユーザーが所有するカート項目を削除する。
// 記録とカート削除は同一トランザクションではない。削除に失敗した場合も記録は残る。
func (s *Service) Record(ctx context.Context, in RecordInput) (*RecordResult, error) {
	email := strings.TrimSpace(in.UserEmail)
	if email == "" {
		return nil, model.NewValidationError("email is required")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	txID := strings.TrimSpace(in.TransactionID)
	if txID == "" {
		return nil, model.NewValidationError("transactionId is required")
	}

	cartIDs := make([]string, 0, len(in.CartIDs))
	seen := make(map[string]struct{}, len(in.CartIDs))
	for _, id := range in.CartIDs {
		if _, err := uuid.Parse(id); err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("invalid cart id: %s", id))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cartIDs = append(cartIDs, id)
	}

	p := &model.Payment{
		ID:            uuid.NewString(),
		UserEmail:     email,
		Price:         in.Price,
		TransactionID: txID,
		CartIDs:       cartIDs,
		CreatedAt:     s.now(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicatePaymentError(txID)
		}
		return nil, fmt.Errorf("支払いの記録に失敗しました: %w", err)
	}

	deleted, err := s.carts.DeleteByIDsForUser(ctx, email, cartIDs)
	if err != nil {
		return nil, fmt.Errorf("カートの削除に失敗しました: %w", err)
	}

	slog.Info("payment recorded",
		slog.String("payment_id", p.ID),
		slog.String("email", email),
		slog.String("transaction_id", txID),
		slog.Int64("deleted_cart_items", deleted),
	)
	return &RecordResult{Payment: p, DeletedCount: deleted}, nil
}

// ListByUser は指定ユーザーの支払い記録を新しい順に返す。
func (s *Service) ListByUser(ctx context.Context, email string) ([]*model.Payment, error) {
	payments, err := s.payments.ListByUserEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("支払い履歴の取得に失敗しました: %w", err)
	}
	return payments, nil
}
