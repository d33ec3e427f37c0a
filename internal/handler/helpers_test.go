package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/middleware"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/policy"
)

// roleMap はpolicy.RoleReaderのテスト実装。未登録のemailはroleなし。
type roleMap map[string]model.Role

func (m roleMap) Get(_ context.Context, email string) (model.Role, error) {
	if r, ok := m[email]; ok {
		return r, nil
	}
	return model.RoleNone, nil
}

const (
	adminEmail = "admin@example.com"
	aliceEmail = "alice@example.com"
	bobEmail   = "bob@example.com"
)

func testAuthorizer() Authorizer {
	return policy.New(roleMap{adminEmail: model.RoleAdmin})
}

// newRequest はJSONボディ付きのリクエストを生成する。bodyが空ならボディ無し。
func newRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withEmail は検証済みemailをリクエストコンテキストに注入する。
func withEmail(r *http.Request, email string) *http.Request {
	return r.WithContext(middleware.ContextWithEmail(r.Context(), email))
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに注入する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v (body=%q)", err, w.Body.String())
	}
	return v
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, want, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := decodeBody[middleware.ErrorResponseBody](t, w)
	if body.Code != want {
		t.Errorf("code = %q, want %q", body.Code, want)
	}
}
