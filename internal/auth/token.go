// Package auth はBearerトークンの発行と検証を提供する。
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/propertypulse/internal/model"
)

const issuer = "propertypulse"

// Claims はトークンに含めるクレーム。SubjectにもEmailと同じ値を入れる。
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService はHS256署名のトークンを発行・検証する。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返す。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue は指定emailのトークンを発行し、トークン文字列と有効期限を返す。
func (s *TokenService) Issue(email string) (string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", time.Time{}, model.NewValidationError("email is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify はトークンを検証し、email を返す。
// 欠落・形式不正・署名不正・期限切れはすべて同一のUnauthorizedエラーになる。
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", model.NewUnauthorizedError()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		slog.Debug("token verification failed", slog.String("reason", verifyFailureReason(err)))
		return "", model.NewUnauthorizedError()
	}
	if claims.Email == "" || claims.Subject != claims.Email {
		return "", model.NewUnauthorizedError()
	}
	return claims.Email, nil
}

// verifyFailureReason はデバッグログ用に検証失敗の分類を返す。呼び出し元には返さない。
func verifyFailureReason(err error) string {
	switch {
	case err == nil:
		return "invalid"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "other"
	}
}
