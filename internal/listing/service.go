// Package listing は物件一覧のページング・家賃範囲検索を提供する。
package listing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

const (
	// DefaultPage はpage未指定時のページ番号。
	DefaultPage = 1
	// DefaultLimit はlimit未指定時の1ページあたりの件数。
	DefaultLimit = 6
	// MaxLimit はlimitの上限。
	MaxLimit = 100
)

// Query は物件一覧の検索条件。
// RentMinとRentMaxは両方指定された場合のみ適用され、片方だけの指定は無視される。
type Query struct {
	Page    int
	Limit   int
	RentMin *int
	RentMax *int
}

// Page は検索結果の1ページ分。Totalはページングに関係なく条件に一致する全件数。
type Page struct {
	Apartments []*model.Apartment
	Total      int
}

// Service は物件一覧の読み取り専用サービス。
type Service struct {
	repo repository.ApartmentRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ApartmentRepository) *Service {
	return &Service{repo: repo}
}

// Query は条件に一致する物件の1ページと全件数を返す。
// 全件数を超えるページは空の結果を返し、エラーにはしない。
func (s *Service) Query(ctx context.Context, q Query) (*Page, error) {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Page < 1 {
		return nil, model.NewValidationError("page must be at least 1")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return nil, model.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}

	filter := model.ApartmentFilter{Limit: q.Limit}
	if q.RentMin != nil && q.RentMax != nil {
		filter.RentMin = q.RentMin
		filter.RentMax = q.RentMax
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("物件数の取得に失敗しました: %w", err)
	}

	apartments := make([]*model.Apartment, 0)
	// オフセットを掛け算する前に範囲外ページを判定する。巨大なpageでのオーバーフロー防止。
	if total == 0 || q.Page-1 > (total-1)/q.Limit {
		return &Page{Apartments: apartments, Total: total}, nil
	}
	filter.Offset = (q.Page - 1) * q.Limit
	apartments, err = s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("物件一覧の取得に失敗しました: %w", err)
	}

	return &Page{Apartments: apartments, Total: total}, nil
}

// Get は指定IDの物件を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Apartment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewApartmentNotFoundError(id)
	}
	apt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if apt == nil {
		return nil, model.NewApartmentNotFoundError(id)
	}
	return apt, nil
}
