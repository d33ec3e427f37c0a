package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/propertypulse/internal/announcement"
	"github.com/hitoshi/propertypulse/internal/model"
)

// AnnouncementServiceInterface はお知らせハンドラーが必要とするサービスインターフェース。
type AnnouncementServiceInterface interface {
	Create(ctx context.Context, in announcement.CreateInput) (*model.Announcement, error)
	List(ctx context.Context) ([]*model.Announcement, error)
	Feed(ctx context.Context, siteURL string) ([]byte, error)
}

// AnnouncementHandler はお知らせのHTTPハンドラー。
type AnnouncementHandler struct {
	service AnnouncementServiceInterface
	authz   Authorizer
	siteURL string
}

// NewAnnouncementHandler はAnnouncementHandlerを生成する。siteURLはRSSのリンクに使う。
func NewAnnouncementHandler(service AnnouncementServiceInterface, authz Authorizer, siteURL string) *AnnouncementHandler {
	return &AnnouncementHandler{service: service, authz: authz, siteURL: siteURL}
}

type createAnnouncementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create はお知らせを作成する。adminのみ。
// POST /announcements
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req createAnnouncementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), announcement.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"insertedId":   a.ID,
		"announcement": toAnnouncementResponse(a),
	})
}

// List はお知らせを新しい順に返す。
// GET /announcements
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toAnnouncementResponse))
}

// Feed はお知らせをRSS 2.0で返す。
// GET /announcements/feed.xml
func (h *AnnouncementHandler) Feed(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.Feed(r.Context(), h.siteURL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
