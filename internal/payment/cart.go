package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

// ApartmentFinder はカート追加時の物件存在確認に使う。
type ApartmentFinder interface {
	FindByID(ctx context.Context, id string) (*model.Apartment, error)
}

// Carts は支払い前のカートを管理する。
type Carts struct {
	repo       repository.CartRepository
	apartments ApartmentFinder
	now        func() time.Time
}

// NewCarts はCartsを生成する。
func NewCarts(repo repository.CartRepository, apartments ApartmentFinder) *Carts {
	return &Carts{repo: repo, apartments: apartments, now: time.Now}
}

// Add は指定ユーザーのカートに物件を追加する。
func (c *Carts) Add(ctx context.Context, email, apartmentID string) (*model.CartItem, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewUnauthorizedError()
	}
	apartmentID = strings.TrimSpace(apartmentID)
	if apartmentID == "" {
		return nil, model.NewValidationError("apartmentId is required")
	}
	if _, err := uuid.Parse(apartmentID); err != nil {
		return nil, model.NewApartmentNotFoundError(apartmentID)
	}
	apt, err := c.apartments.FindByID(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if apt == nil {
		return nil, model.NewApartmentNotFoundError(apartmentID)
	}

	item := &model.CartItem{
		ID:          uuid.NewString(),
		UserEmail:   email,
		ApartmentID: apartmentID,
		CreatedAt:   c.now(),
	}
	if err := c.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("カートへの追加に失敗しました: %w", err)
	}
	return item, nil
}

// ListByUser は指定ユーザーのカート項目を返す。
func (c *Carts) ListByUser(ctx context.Context, email string) ([]*model.CartItem, error) {
	items, err := c.repo.ListByUserEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	return items, nil
}
