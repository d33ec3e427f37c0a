package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/listing"
	"github.com/hitoshi/propertypulse/internal/model"
)

// ListingServiceInterface は物件ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	Query(ctx context.Context, q listing.Query) (*listing.Page, error)
	Get(ctx context.Context, id string) (*model.Apartment, error)
}

// ApartmentHandler は物件一覧のHTTPハンドラー。
type ApartmentHandler struct {
	service ListingServiceInterface
}

// NewApartmentHandler はApartmentHandlerを生成する。
func NewApartmentHandler(service ListingServiceInterface) *ApartmentHandler {
	return &ApartmentHandler{service: service}
}

type apartmentListResponse struct {
	Apartments []apartmentResponse `json:"apartments"`
	Total      int                 `json:"total"`
}

// List は物件をページングして返す。
// GET /apartment?page=&limit=&min=&max=
func (h *ApartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListingQuery(r.URL.Query())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	page, err := h.service.Query(r.Context(), q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apartmentListResponse{
		Apartments: mapSlice(page.Apartments, toApartmentResponse),
		Total:      page.Total,
	})
}

// Get は物件を1件返す。
// GET /apartment/{id}
func (h *ApartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	apt, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApartmentResponse(apt))
}

// parseListingQuery はクエリパラメータを検索条件に変換する。未指定の値はゼロ値のまま残す。
func parseListingQuery(values url.Values) (listing.Query, error) {
	var q listing.Query
	var err error
	if q.Page, err = parseIntParam(values, "page"); err != nil {
		return q, err
	}
	if q.Page == 0 && values.Get("page") != "" {
		return q, model.NewValidationError("page must be at least 1")
	}
	if q.Limit, err = parseIntParam(values, "limit"); err != nil {
		return q, err
	}
	if q.Limit == 0 && values.Get("limit") != "" {
		return q, model.NewValidationError("limit must be at least 1")
	}
	if q.RentMin, err = parseOptionalIntParam(values, "min"); err != nil {
		return q, err
	}
	if q.RentMax, err = parseOptionalIntParam(values, "max"); err != nil {
		return q, err
	}
	return q, nil
}

func parseIntParam(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(key + " must be an integer")
	}
	return n, nil
}

func parseOptionalIntParam(values url.Values, key string) (*int, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, model.NewValidationError(key + " must be an integer")
	}
	return &n, nil
}
