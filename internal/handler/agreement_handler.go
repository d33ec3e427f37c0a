package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/agreement"
	"github.com/hitoshi/propertypulse/internal/model"
)

// AgreementServiceInterface は契約ハンドラーが必要とするサービスインターフェース。
type AgreementServiceInterface interface {
	Create(ctx context.Context, in agreement.CreateInput) (*model.Agreement, error)
	Accept(ctx context.Context, id string) (*agreement.AcceptResult, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Agreement, error)
	ListByUser(ctx context.Context, email string) ([]*model.Agreement, error)
}

// AgreementHandler は契約のHTTPハンドラー。
type AgreementHandler struct {
	service AgreementServiceInterface
	authz   Authorizer
}

// NewAgreementHandler はAgreementHandlerを生成する。
func NewAgreementHandler(service AgreementServiceInterface, authz Authorizer) *AgreementHandler {
	return &AgreementHandler{service: service, authz: authz}
}

type createAgreementRequest struct {
	ApartmentID string `json:"apartmentId"`
	UserName    string `json:"userName"`
}

// Create は呼び出し元を所有者とする契約を作成する。
// POST /agreements
func (h *AgreementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgreementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), agreement.CreateInput{
		UserEmail:   callerEmail(r),
		UserName:    req.UserName,
		ApartmentID: req.ApartmentID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"insertedId": a.ID})
}

// List はadminには全契約を、それ以外には自分の契約を返す。
// GET /agreements
func (h *AgreementHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := callerEmail(r)
	admin, err := h.authz.IsAdmin(r.Context(), caller)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var agreements []*model.Agreement
	if admin {
		agreements, err = h.service.List(r.Context())
	} else {
		agreements, err = h.service.ListByUser(r.Context(), caller)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(agreements, toAgreementResponse))
}

// ListByUser は指定emailの契約を返す。本人またはadminのみ。
// GET /agreements/{email}
func (h *AgreementHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.authz.RequireSelfOrAdmin(r.Context(), callerEmail(r), email); err != nil {
		handleServiceError(w, r, err)
		return
	}

	agreements, err := h.service.ListByUser(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(agreements, toAgreementResponse))
}

// Accept は契約を承認する。adminのみ。
// PATCH /agreements/status/{id}
func (h *AgreementHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.service.Accept(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"agreement":  toAgreementResponse(res.Agreement),
		"roleEffect": string(res.RoleEffect),
	})
}

// Delete は契約を削除する。adminのみ。
// DELETE /agreements/{id}
func (h *AgreementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deletedCount": 1})
}
