package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/payment"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	CreateIntent(ctx context.Context, price float64) (string, error)
	Record(ctx context.Context, in payment.RecordInput) (*payment.RecordResult, error)
	ListByUser(ctx context.Context, email string) ([]*model.Payment, error)
}

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	Add(ctx context.Context, email, apartmentID string) (*model.CartItem, error)
	ListByUser(ctx context.Context, email string) ([]*model.CartItem, error)
}

// PaymentHandler は決済・カートのHTTPハンドラー。
type PaymentHandler struct {
	payments PaymentServiceInterface
	carts    CartServiceInterface
	authz    Authorizer
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(payments PaymentServiceInterface, carts CartServiceInterface, authz Authorizer) *PaymentHandler {
	return &PaymentHandler{payments: payments, carts: carts, authz: authz}
}

type createIntentRequest struct {
	Price float64 `json:"price"`
}

type recordPaymentRequest struct {
	Email         string   `json:"email"`
	Price         float64  `json:"price"`
	TransactionID string   `json:"transactionId"`
	CartIDs       []string `json:"cartIds"`
}

type addCartRequest struct {
	ApartmentID string `json:"apartmentId"`
}

// CreateIntent は決済インテントを作成する。
// POST /payment-intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	secret, err := h.payments.CreateIntent(r.Context(), req.Price)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

// Record は完了した支払いを記録する。emailは呼び出し元と一致するか、呼び出し元がadminである必要がある。
// POST /payments
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	caller := callerEmail(r)
	owner := req.Email
	if owner == "" {
		owner = caller
	}
	if err := h.authz.RequireSelfOrAdmin(r.Context(), caller, owner); err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.payments.Record(r.Context(), payment.RecordInput{
		UserEmail:     owner,
		Price:         req.Price,
		TransactionID: req.TransactionID,
		CartIDs:       req.CartIDs,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"insertedId":   res.Payment.ID,
		"deletedCount": res.DeletedCount,
	})
}

// ListPayments は指定emailの支払い履歴を返す。本人またはadminのみ。
// GET /payments/{email}
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.authz.RequireSelfOrAdmin(r.Context(), callerEmail(r), email); err != nil {
		handleServiceError(w, r, err)
		return
	}

	payments, err := h.payments.ListByUser(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(payments, toPaymentResponse))
}

// AddToCart は呼び出し元のカートに物件を追加する。
// POST /carts
func (h *PaymentHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	item, err := h.carts.Add(r.Context(), callerEmail(r), req.ApartmentID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"insertedId": item.ID})
}

// ListCart は指定emailのカート項目を返す。本人またはadminのみ。
// GET /carts/{email}
func (h *PaymentHandler) ListCart(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.authz.RequireSelfOrAdmin(r.Context(), callerEmail(r), email); err != nil {
		handleServiceError(w, r, err)
		return
	}

	items, err := h.carts.ListByUser(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toCartItemResponse))
}
