package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/propertypulse/internal/middleware"
	"github.com/hitoshi/propertypulse/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをvにデコードする。空ボディや不正なJSONはVALIDATION_FAILEDになる。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	present, err := decodeOptionalJSON(w, r, v)
	if err != nil {
		return err
	}
	if !present {
		return model.NewValidationError("request body is required")
	}
	return nil
}

// decodeOptionalJSON はリクエストボディが空の場合にfalseを返す。
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) (bool, error) {
	if r.Body == nil {
		return false, nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, model.NewValidationError("request body must be valid JSON")
	}
	return true, nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外は内部エラーとしてログに記録し、詳細は返さない。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// callerEmail は検証済みのemailを返す。未認証の場合は空文字を返す。
func callerEmail(r *http.Request) string {
	email, _ := middleware.EmailFromContext(r.Context())
	return email
}
