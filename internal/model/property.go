// Package model はドメインモデルを定義する。
package model

import "time"

// Apartment は賃貸物件の1区画を表す。
// 本サービスからは参照専用で、seedコマンドでのみ投入される。
type Apartment struct {
	ID          string
	ApartmentNo string
	FloorNo     int
	BlockName   string
	Rent        int
	ImageURL    string
	CreatedAt   time.Time
}

// ApartmentFilter は物件一覧の検索条件を表す。
// RentMinとRentMaxは両方が指定された場合のみ適用される。
type ApartmentFilter struct {
	RentMin *int
	RentMax *int
	Offset  int
	Limit   int
}

// HasRentRange は家賃の範囲条件が有効かどうかを返す。
func (f ApartmentFilter) HasRentRange() bool {
	return f.RentMin != nil && f.RentMax != nil
}

// AgreementStatus は契約のライフサイクル状態を表す。
type AgreementStatus string

const (
	// AgreementStatusPending は申込直後の初期状態。
	AgreementStatusPending AgreementStatus = "pending"
	// AgreementStatusAccepted は管理者による承認済み状態。
	AgreementStatusAccepted AgreementStatus = "accepted"
)

// Agreement はユーザーと物件を結ぶ賃貸契約を表す。
// 所有者はemailで識別する。
type Agreement struct {
	ID          string
	UserEmail   string
	UserName    string
	ApartmentID string
	Status      AgreementStatus
	CreatedAt   time.Time
	AcceptedAt  *time.Time
}

// Announcement は管理者からのお知らせを表す。追記のみで更新はない。
type Announcement struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Coupon は割引クーポンを表す。
type Coupon struct {
	ID          string
	Code        string
	Discount    float64
	Description string
	Available   bool
	CreatedAt   time.Time
}

// CartItem は支払い前のカート項目を表す。
type CartItem struct {
	ID          string
	UserEmail   string
	ApartmentID string
	CreatedAt   time.Time
}

// Payment は完了した支払いの記録を表す。
type Payment struct {
	ID            string
	UserEmail     string
	Price         float64
	TransactionID string
	CartIDs       []string
	CreatedAt     time.Time
}
