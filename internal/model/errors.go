// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, agreement, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeApartmentNotFound     = "APARTMENT_NOT_FOUND"
	ErrCodeAgreementNotFound     = "AGREEMENT_NOT_FOUND"
	ErrCodeCouponNotFound        = "COUPON_NOT_FOUND"
	ErrCodeDuplicateAgreement    = "DUPLICATE_AGREEMENT"
	ErrCodeDuplicateCoupon       = "DUPLICATE_COUPON"
	ErrCodeDuplicatePayment      = "DUPLICATE_PAYMENT"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodePaymentProviderFailed = "PAYMENT_PROVIDER_ERROR"
	ErrCodePaymentsDisabled      = "PAYMENTS_DISABLED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証失敗エラーを生成する。
// トークンが無い・壊れている・期限切れのいずれでも同じ内容を返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized access",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Forbidden access",
		Category: "auth",
		Action:   "この操作を行う権限がありません。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", id),
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewApartmentNotFoundError は物件が見つからない場合のエラーを生成する。
func NewApartmentNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeApartmentNotFound,
		Message:  fmt.Sprintf("指定された物件が見つかりません: %s", id),
		Category: "agreement",
		Action:   "物件IDを確認してください。",
	}
}

// NewAgreementNotFoundError は契約が見つからない場合のエラーを生成する。
func NewAgreementNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeAgreementNotFound,
		Message:  fmt.Sprintf("指定された契約が見つかりません: %s", id),
		Category: "agreement",
		Action:   "契約IDを確認してください。",
	}
}

// NewDuplicateAgreementError は同一ユーザー・同一物件の契約が既に存在する場合のエラーを生成する。
func NewDuplicateAgreementError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateAgreement,
		Message:  "You already have an agreement for this apartment.",
		Category: "agreement",
		Action:   "契約一覧から既存の申込を確認してください。",
	}
}

// NewCouponNotFoundError はクーポンが見つからない場合のエラーを生成する。
func NewCouponNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCouponNotFound,
		Message:  fmt.Sprintf("指定されたクーポンが見つかりません: %s", id),
		Category: "validation",
		Action:   "クーポンIDを確認してください。",
	}
}

// NewDuplicateCouponError はクーポンコードが重複している場合のエラーを生成する。
func NewDuplicateCouponError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateCoupon,
		Message:  fmt.Sprintf("クーポンコードは既に使用されています: %s", code),
		Category: "validation",
		Action:   "別のクーポンコードを指定してください。",
	}
}

// NewDuplicatePaymentError は同じトランザクションIDの支払いが記録済みの場合のエラーを生成する。
func NewDuplicatePaymentError(transactionID string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicatePayment,
		Message:  fmt.Sprintf("この支払いは既に記録されています: %s", transactionID),
		Category: "payment",
		Action:   "支払い履歴を確認してください。",
	}
}

// NewRateLimitedError はリクエスト過多のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPaymentProviderError は決済プロバイダー呼び出しの失敗を表すエラーを生成する。
func NewPaymentProviderError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentProviderFailed,
		Message:  "決済プロバイダーとの通信に失敗しました。",
		Category: "payment",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPaymentsDisabledError は決済機能が未設定の場合のエラーを生成する。
func NewPaymentsDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentsDisabled,
		Message:  "決済機能は現在利用できません。",
		Category: "payment",
		Action:   "管理者にお問い合わせください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
