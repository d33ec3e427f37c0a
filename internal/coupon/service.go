// Package coupon は割引クーポンの作成・一覧・利用可否の切り替えを提供する。
package coupon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
	"github.com/hitoshi/propertypulse/internal/security"
)

const maxCodeLength = 64

// CreateInput はクーポン作成の入力。Discountは割引率（%）。
type CreateInput struct {
	Code        string
	Discount    float64
	Description string
}

// Service はクーポンのユースケースを提供する。
type Service struct {
	repo      repository.CouponRepository
	sanitizer security.ContentSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.CouponRepository, sanitizer security.ContentSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// Create は利用可能な状態のクーポンを作成する。コードは大文字に正規化する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Coupon, error) {
	code := strings.ToUpper(s.sanitizer.PlainText(in.Code))
	if code == "" {
		return nil, model.NewValidationError("code is required")
	}
	if len(code) > maxCodeLength || strings.ContainsAny(code, " \t\r\n") {
		return nil, model.NewValidationError("code must be a single token of at most 64 characters")
	}
	if !(in.Discount > 0 && in.Discount <= 100) {
		return nil, model.NewValidationError("discount must be greater than 0 and at most 100")
	}

	c := &model.Coupon{
		ID:          uuid.NewString(),
		Code:        code,
		Discount:    in.Discount,
		Description: s.sanitizer.Sanitize(in.Description),
		Available:   true,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateCouponError(code)
		}
		return nil, fmt.Errorf("クーポンの作成に失敗しました: %w", err)
	}
	slog.Info("coupon created", slog.String("coupon_id", c.ID), slog.String("code", code))
	return c, nil
}

// List はクーポンを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Coupon, error) {
	return s.list(ctx, false)
}

// ListAvailable は利用可能なクーポンのみを新しい順に返す。
func (s *Service) ListAvailable(ctx context.Context) ([]*model.Coupon, error) {
	return s.list(ctx, true)
}

func (s *Service) list(ctx context.Context, onlyAvailable bool) ([]*model.Coupon, error) {
	coupons, err := s.repo.List(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("クーポン一覧の取得に失敗しました: %w", err)
	}
	return coupons, nil
}

// SetAvailability はクーポンの利用可否を更新する。availableがnilの場合は現在値を反転する。
func (s *Service) SetAvailability(ctx context.Context, id string, available *bool) (*model.Coupon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewCouponNotFoundError(id)
	}
	c, err := s.repo.SetAvailability(ctx, id, available)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewCouponNotFoundError(id)
		}
		return nil, fmt.Errorf("クーポンの更新に失敗しました: %w", err)
	}
	slog.Info("coupon availability changed",
		slog.String("coupon_id", c.ID),
		slog.Bool("available", c.Available),
	)
	return c, nil
}
