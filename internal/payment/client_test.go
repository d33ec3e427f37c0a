package payment

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestClient_CreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("path = %s, want /v1/payment_intents", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("amount"); got != "125050" {
			t.Errorf("amount = %q, want 125050", got)
		}
		if got := r.PostForm.Get("currency"); got != "jpy" {
			t.Errorf("currency = %q, want jpy", got)
		}
		if got := r.PostForm["payment_method_types[]"]; len(got) != 1 || got[0] != "card" {
			t.Errorf("payment_method_types = %v", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret_abc","object":"payment_intent"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL+"/", "sk_test_123", "JPY")

	intent, err := c.CreateIntent(context.Background(), 125050)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret_abc" {
		t.Errorf("intent = %+v", intent)
	}
}

func TestClient_CreateIntent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"エラーステータス", http.StatusPaymentRequired, `{"error":{"message":"card declined"}}`},
		{"不正なJSON", http.StatusOK, `not json`},
		{"client_secretなし", http.StatusOK, `{"id":"pi_1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var buf bytes.Buffer
			c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "sk", "usd")

			if _, err := c.CreateIntent(context.Background(), 100); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestClient_CreateIntent_LogsStatusWithoutSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "sk_live_secret", "usd")

	if _, err := c.CreateIntent(context.Background(), 100); err == nil {
		t.Fatal("expected error")
	}
	out := buf.String()
	if !strings.Contains(out, `"http_status":500`) {
		t.Errorf("log = %s, want http_status", out)
	}
	if strings.Contains(out, "sk_live_secret") {
		t.Errorf("log leaked secret key: %s", out)
	}
}

func TestClient_CreateIntent_RejectsNonPositiveAmount(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf), "http://127.0.0.1:1", "sk", "usd")

	if _, err := c.CreateIntent(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf), "", "sk", "")
	if c.baseURL != DefaultAPIURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultAPIURL)
	}
	if c.currency != "usd" {
		t.Errorf("currency = %q, want usd", c.currency)
	}
}
