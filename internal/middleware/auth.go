// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/propertypulse/internal/model"
)

// TokenCookieName はアクセストークンを保持するHTTP Only Cookieの名前。
const TokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// emailContextKey はリクエストコンテキストに検証済みemailを格納するためのキー。
	emailContextKey = contextKey("email")
	// cookieAuthContextKey はCookie経由で認証されたかどうかを格納するためのキー。
	cookieAuthContextKey = contextKey("cookie_auth")
)

// TokenVerifier はアクセストークンを検証し、emailを返す。auth.TokenServiceが満たす。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewAuthenticateMiddleware はトークンを検証し、検証済みemailをコンテキストに注入するミドルウェアを返す。
// Authorization: Bearer ヘッダーを優先し、無ければtoken Cookieを使う。
// トークンが無い・無効な場合もリクエストは通過させる。認証必須のルートにはNewRequireAuthMiddlewareを重ねる。
func NewAuthenticateMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, viaCookie := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			email, err := verifier.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithEmail(r.Context(), email)
			if viaCookie {
				ctx = context.WithValue(ctx, cookieAuthContextKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAuthMiddleware は検証済みemailが無いリクエストに401を返すミドルウェアを返す。
// 理由（トークン無し・改ざん・期限切れ）は区別せず同じレスポンスを返す。
func NewRequireAuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := EmailFromContext(r.Context()); err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken はリクエストからトークンを取り出す。2番目の戻り値はCookie由来かどうか。
func extractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), false
		}
		return "", false
	}
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// EmailFromContext はリクエストコンテキストから検証済みemailを取得する。
func EmailFromContext(ctx context.Context) (string, error) {
	email, ok := ctx.Value(emailContextKey).(string)
	if !ok || email == "" {
		return "", fmt.Errorf("email not found in context")
	}
	return email, nil
}

// ContextWithEmail はコンテキストに検証済みemailを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey, email)
}

// AuthenticatedByCookie はリクエストがCookieのトークンで認証されたかどうかを返す。
func AuthenticatedByCookie(ctx context.Context) bool {
	v, _ := ctx.Value(cookieAuthContextKey).(bool)
	return v
}
