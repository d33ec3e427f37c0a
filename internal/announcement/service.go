// Package announcement は管理者からのお知らせの作成・一覧・RSS配信を提供する。
package announcement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
	"github.com/hitoshi/propertypulse/internal/security"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 10000
)

// CreateInput はお知らせ作成の入力。
type CreateInput struct {
	Title       string
	Description string
}

// Service はお知らせのユースケースを提供する。
type Service struct {
	repo      repository.AnnouncementRepository
	sanitizer security.ContentSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.AnnouncementRepository, sanitizer security.ContentSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// Create はお知らせを作成する。タイトルはプレーンテキスト、本文は限定的なHTMLに無害化する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Announcement, error) {
	title := s.sanitizer.PlainText(in.Title)
	description := s.sanitizer.Sanitize(in.Description)
	if title == "" {
		return nil, model.NewValidationError("title is required")
	}
	if description == "" {
		return nil, model.NewValidationError("description is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, model.NewValidationError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if len([]rune(description)) > maxDescriptionLength {
		return nil, model.NewValidationError(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}

	a := &model.Announcement{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("お知らせの作成に失敗しました: %w", err)
	}
	slog.Info("announcement created", slog.String("announcement_id", a.ID))
	return a, nil
}

// List はお知らせを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Announcement, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("お知らせ一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}
