package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/coupon"
	"github.com/hitoshi/propertypulse/internal/model"
)

// CouponServiceInterface はクーポンハンドラーが必要とするサービスインターフェース。
type CouponServiceInterface interface {
	Create(ctx context.Context, in coupon.CreateInput) (*model.Coupon, error)
	List(ctx context.Context) ([]*model.Coupon, error)
	ListAvailable(ctx context.Context) ([]*model.Coupon, error)
	SetAvailability(ctx context.Context, id string, available *bool) (*model.Coupon, error)
}

// CouponHandler はクーポンのHTTPハンドラー。
type CouponHandler struct {
	service CouponServiceInterface
	authz   Authorizer
}

// NewCouponHandler はCouponHandlerを生成する。
func NewCouponHandler(service CouponServiceInterface, authz Authorizer) *CouponHandler {
	return &CouponHandler{service: service, authz: authz}
}

type createCouponRequest struct {
	Code        string  `json:"code"`
	Discount    float64 `json:"discount"`
	Description string  `json:"description"`
}

type setAvailabilityRequest struct {
	Available *bool `json:"available"`
}

// Create はクーポンを作成する。adminのみ。
// POST /coupons
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req createCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	c, err := h.service.Create(r.Context(), coupon.CreateInput{
		Code:        req.Code,
		Discount:    req.Discount,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(c))
}

// List はクーポンを新しい順に返す。
// GET /coupons
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.List)
}

// ListAvailable は利用可能なクーポンのみを返す。
// GET /coupons/available
func (h *CouponHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListAvailable)
}

func (h *CouponHandler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*model.Coupon, error)) {
	coupons, err := list(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(coupons, toCouponResponse))
}

// SetAvailability はクーポンの利用可否を更新する。adminのみ。
// PATCH /coupons/{id}
// ボディの{available}で値を指定する。ボディが空または値が無い場合は現在値を反転する。
func (h *CouponHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req setAvailabilityRequest
	if _, err := decodeOptionalJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	c, err := h.service.SetAvailability(r.Context(), chi.URLParam(r, "id"), req.Available)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}
