// Package user はユーザー登録とroleの管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

const (
	// MaxEmailLength はusers.emailの列長に合わせたemailの上限文字数。
	MaxEmailLength = 320
	// MaxNameLength はusers.nameの列長に合わせた名前の上限文字数。
	MaxNameLength = 255
)

// URLValidator はプロフィール画像URLの検証インターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string
	Name     string
	PhotoURL string
}

// RegisterResult はユーザー登録の結果。
// 既に登録済みの場合はCreated=falseでIDは空になる。
type RegisterResult struct {
	Created bool
	ID      string
}

// Service はユーザー管理のサービス層。
type Service struct {
	repo  repository.UserRepository
	roles *RoleStore
	urls  URLValidator
	now   func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.UserRepository, roles *RoleStore, urls URLValidator) *Service {
	return &Service{
		repo:  repo,
		roles: roles,
		urls:  urls,
		now:   time.Now,
	}
}

// NormalizeEmail はemailの前後空白を除去する。大文字小文字は区別したまま保存する。
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// validateEmail はemailが表示名などを含まない素のアドレスであることを検証する。
// "Alice <alice@example.com>" のような形式はトークンのemailと一致しないため拒否する。
func validateEmail(email string) error {
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return model.NewValidationError(fmt.Sprintf("email must be at most %d characters", MaxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return model.NewValidationError("email is invalid")
	}
	return nil
}

// Register はemailが未登録の場合のみユーザーを作成する。
// 重複登録はエラーではなくCreated=falseとして返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, model.NewValidationError("email is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, model.NewValidationError(fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}

	photoURL := strings.TrimSpace(in.PhotoURL)
	if photoURL != "" && s.urls != nil {
		if err := s.urls.ValidateURL(photoURL); err != nil {
			slog.Warn("rejected profile image URL",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
			return nil, model.NewValidationError("photoURL must be a public http(s) URL")
		}
	}

	now := s.now()
	u := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		PhotoURL:  photoURL,
		Role:      model.RoleNone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.CreateIfAbsent(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}
	if !created {
		slog.Info("user already registered", slog.String("email", email))
		return &RegisterResult{Created: false}, nil
	}

	slog.Info("user registered", slog.String("user_id", u.ID), slog.String("email", email))
	return &RegisterResult{Created: true, ID: u.ID}, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// IsAdmin は指定emailのユーザーがadminかどうかを返す。
func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := s.roles.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return role == model.RoleAdmin, nil
}

// IsMember は指定emailのユーザーがmemberかどうかを返す。adminはmemberとして扱わない。
func (s *Service) IsMember(ctx context.Context, email string) (bool, error) {
	role, err := s.roles.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return role == model.RoleMember, nil
}

// SetRole は指定IDのユーザーのroleを上書きする。
func (s *Service) SetRole(ctx context.Context, id string, role model.Role) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewUserNotFoundError(id)
	}
	return s.roles.SetRole(ctx, id, role)
}
