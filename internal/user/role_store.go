package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

// RoleStore はユーザーのroleを読み書きする。認可判断の唯一の情報源。
type RoleStore struct {
	repo repository.UserRepository
}

// NewRoleStore はRoleStoreを生成する。
func NewRoleStore(repo repository.UserRepository) *RoleStore {
	return &RoleStore{repo: repo}
}

// Get は指定emailのroleを返す。ユーザーが存在しない場合もRoleNoneを返す。
func (s *RoleStore) Get(ctx context.Context, email string) (model.Role, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return model.RoleNone, fmt.Errorf("failed to load role: %w", err)
	}
	if u == nil || u.Role == "" {
		return model.RoleNone, nil
	}
	return u.Role, nil
}

// SetRole は指定IDのユーザーのroleを上書きする。
// RoleNoneの場合はrole属性自体を削除する。ユーザーが存在しない場合はUSER_NOT_FOUNDを返し、作成はしない。
func (s *RoleStore) SetRole(ctx context.Context, id string, role model.Role) error {
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError(id)
		}
		return fmt.Errorf("failed to set role: %w", err)
	}
	slog.Info("role updated", slog.String("user_id", id), slog.String("role", string(role)))
	return nil
}

// SetRoleByEmail は指定emailのユーザーのroleを上書きする。
func (s *RoleStore) SetRoleByEmail(ctx context.Context, email string, role model.Role) error {
	if err := s.repo.SetRoleByEmail(ctx, email, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError(email)
		}
		return fmt.Errorf("failed to set role: %w", err)
	}
	slog.Info("role updated", slog.String("email", email), slog.String("role", string(role)))
	return nil
}
