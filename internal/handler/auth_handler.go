// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/propertypulse/internal/middleware"
	"github.com/hitoshi/propertypulse/internal/user"
)

// TokenIssuer はアクセストークンを発行する。auth.TokenServiceが満たす。
type TokenIssuer interface {
	Issue(email string) (string, time.Time, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はトークン発行とログアウトのHTTPハンドラー。
type AuthHandler struct {
	issuer TokenIssuer
	config AuthHandlerConfig
	now    func() time.Time
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		issuer: issuer,
		config: config,
		now:    time.Now,
	}
}

type issueTokenRequest struct {
	Email string `json:"email"`
}

// IssueToken はemailに対するアクセストークンを発行する。
// POST /jwt
// レスポンスボディで返すと同時に、HTTP Only Cookieにも設定する。
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, expiresAt, err := h.issuer.Issue(user.NormalizeEmail(req.Email))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  expiresAt,
		MaxAge:   int(expiresAt.Sub(h.now()).Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout はトークンCookieを削除する。発行済みトークン自体は有効期限まで有効。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
