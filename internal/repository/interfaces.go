// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/propertypulse/internal/model"
)

var (
	// ErrNotFound は更新・削除対象の行が存在しない場合に返される。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約違反の場合に返される。
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateIfAbsent はemailが未登録の場合のみユーザーを作成する。
	// 作成した場合はtrue、既に存在した場合はfalseを返す。
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)

	// List は全ユーザーを登録順に返す。
	List(ctx context.Context) ([]*model.User, error)

	// SetRole は指定IDのユーザーのroleを上書きする。
	// RoleNoneの場合はroleカラムをNULLにする。存在しない場合はErrNotFoundを返す。
	SetRole(ctx context.Context, id string, role model.Role) error

	// SetRoleByEmail は指定emailのユーザーのroleを上書きする。
	// 存在しない場合はErrNotFoundを返す。
	SetRoleByEmail(ctx context.Context, email string, role model.Role) error
}

// ApartmentRepository は物件データの永続化インターフェース。
type ApartmentRepository interface {
	// FindByID は指定IDの物件を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Apartment, error)

	// Count はフィルタ条件に一致する物件の総数を返す。Offset/Limitは無視する。
	Count(ctx context.Context, filter model.ApartmentFilter) (int, error)

	// List はフィルタ条件に一致する物件をOffset/Limitの範囲で返す。
	List(ctx context.Context, filter model.ApartmentFilter) ([]*model.Apartment, error)

	// Upsert はapartment_noをキーに物件を作成または更新する。seed用。
	Upsert(ctx context.Context, apartment *model.Apartment) error
}

// AgreementRepository は契約データの永続化インターフェース。
type AgreementRepository interface {
	// FindByID は指定IDの契約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Agreement, error)

	// FindByUserAndApartment はユーザーemailと物件IDで契約を検索する。見つからない場合はnilを返す。
	FindByUserAndApartment(ctx context.Context, userEmail, apartmentID string) (*model.Agreement, error)

	// Create は契約を作成する。(user_email, apartment_id)の一意制約違反時はErrDuplicateを返す。
	Create(ctx context.Context, agreement *model.Agreement) error

	// List は全契約を作成順に返す。
	List(ctx context.Context) ([]*model.Agreement, error)

	// ListByUserEmail は指定ユーザーの契約を作成順に返す。
	ListByUserEmail(ctx context.Context, userEmail string) ([]*model.Agreement, error)

	// UpdateStatus は契約の状態を更新する。存在しない場合はErrNotFoundを返す。
	UpdateStatus(ctx context.Context, id string, status model.AgreementStatus, acceptedAt *time.Time) error

	// Delete は指定IDの契約を削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// AnnouncementRepository はお知らせの永続化インターフェース。
type AnnouncementRepository interface {
	// Create はお知らせを作成する。
	Create(ctx context.Context, announcement *model.Announcement) error
	// List はお知らせを新しい順に返す。
	List(ctx context.Context) ([]*model.Announcement, error)
}

// CouponRepository はクーポンの永続化インターフェース。
type CouponRepository interface {
	// Create はクーポンを作成する。コード重複時はErrDuplicateを返す。
	Create(ctx context.Context, coupon *model.Coupon) error
	// List はクーポンを新しい順に返す。onlyAvailableがtrueの場合は利用可能なもののみ返す。
	List(ctx context.Context, onlyAvailable bool) ([]*model.Coupon, error)
	// SetAvailability はクーポンの利用可否を更新し、更新後のクーポンを返す。
	// availableがnilの場合は現在値を反転する。存在しない場合はErrNotFoundを返す。
	SetAvailability(ctx context.Context, id string, available *bool) (*model.Coupon, error)
}

// CartRepository はカートの永続化インターフェース。
type CartRepository interface {
	// Create はカート項目を作成する。
	Create(ctx context.Context, item *model.CartItem) error
	// ListByUserEmail は指定ユーザーのカート項目を返す。
	ListByUserEmail(ctx context.Context, userEmail string) ([]*model.CartItem, error)
	// DeleteByIDsForUser は指定ユーザーが所有するカート項目のうちidsに含まれるものを削除し、削除件数を返す。
	DeleteByIDsForUser(ctx context.Context, userEmail string, ids []string) (int64, error)
}

// PaymentRepository は支払い記録の永続化インターフェース。
type PaymentRepository interface {
	// Create は支払い記録を作成する。transaction_id重複時はErrDuplicateを返す。
	Create(ctx context.Context, payment *model.Payment) error
	// ListByUserEmail は指定ユーザーの支払い記録を新しい順に返す。
	ListByUserEmail(ctx context.Context, userEmail string) ([]*model.Payment, error)
}

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}
