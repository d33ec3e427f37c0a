// Package policy は検証済みの利用者に対する認可判断を提供する。
//
// 2種類の判断を区別する。
// RequireAdmin はroleがadminであることだけを要求する。
// RequireSelfOrAdmin はリソース所有者が本人であるか、adminであることを要求する。
package policy

import (
	"context"
	"log/slog"

	"github.com/hitoshi/propertypulse/internal/model"
)

// RoleReader はemailに対するroleを返す。ユーザーが存在しない場合はRoleNoneを返す。
type RoleReader interface {
	Get(ctx context.Context, email string) (model.Role, error)
}

// Policy は認可判断を行う。
type Policy struct {
	roles RoleReader
}

// New はPolicyを生成する。
func New(roles RoleReader) *Policy {
	return &Policy{roles: roles}
}

// IsAdmin は指定emailがadminかどうかを返す。
func (p *Policy) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := p.roles.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return role == model.RoleAdmin, nil
}

// RequireAdmin はcallerがadminでない場合にFORBIDDENを返す。
func (p *Policy) RequireAdmin(ctx context.Context, caller string) error {
	if caller == "" {
		return model.NewUnauthorizedError()
	}
	admin, err := p.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		slog.Warn("admin access denied", slog.String("email", caller))
		return model.NewForbiddenError()
	}
	return nil
}

// RequireSelfOrAdmin はcallerがownerと一致するか、adminである場合のみ許可する。
// 一致する場合はRole Storeを参照しない。
func (p *Policy) RequireSelfOrAdmin(ctx context.Context, caller, owner string) error {
	if caller == "" {
		return model.NewUnauthorizedError()
	}
	if caller == owner {
		return nil
	}
	admin, err := p.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		slog.Warn("owner access denied",
			slog.String("email", caller),
			slog.String("owner", owner),
		)
		return model.NewForbiddenError()
	}
	return nil
}
