package handler

import (
	"time"

	"github.com/hitoshi/propertypulse/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。roleが無い場合は省略する。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type apartmentResponse struct {
	ID          string `json:"id"`
	ApartmentNo string `json:"apartmentNo"`
	FloorNo     int    `json:"floorNo"`
	BlockName   string `json:"blockName"`
	Rent        int    `json:"rent"`
	ImageURL    string `json:"image,omitempty"`
}

type agreementResponse struct {
	ID          string     `json:"id"`
	UserEmail   string     `json:"userEmail"`
	UserName    string     `json:"userName"`
	ApartmentID string     `json:"apartmentId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
}

type announcementResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type couponResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Discount    float64   `json:"discount"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
}

type cartItemResponse struct {
	ID          string    `json:"id"`
	UserEmail   string    `json:"userEmail"`
	ApartmentID string    `json:"apartmentId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type paymentResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Price         float64   `json:"price"`
	TransactionID string    `json:"transactionId"`
	CartIDs       []string  `json:"cartIds"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		PhotoURL:  u.PhotoURL,
		CreatedAt: u.CreatedAt,
	}
	if u.Role != model.RoleNone && u.Role != "" {
		resp.Role = string(u.Role)
	}
	return resp
}

func toApartmentResponse(a *model.Apartment) apartmentResponse {
	return apartmentResponse{
		ID:          a.ID,
		ApartmentNo: a.ApartmentNo,
		FloorNo:     a.FloorNo,
		BlockName:   a.BlockName,
		Rent:        a.Rent,
		ImageURL:    a.ImageURL,
	}
}

func toAgreementResponse(a *model.Agreement) agreementResponse {
	return agreementResponse{
		ID:          a.ID,
		UserEmail:   a.UserEmail,
		UserName:    a.UserName,
		ApartmentID: a.ApartmentID,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		AcceptedAt:  a.AcceptedAt,
	}
}

func toAnnouncementResponse(a *model.Announcement) announcementResponse {
	return announcementResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
	}
}

func toCouponResponse(c *model.Coupon) couponResponse {
	return couponResponse{
		ID:          c.ID,
		Code:        c.Code,
		Discount:    c.Discount,
		Description: c.Description,
		Available:   c.Available,
		CreatedAt:   c.CreatedAt,
	}
}

func toCartItemResponse(c *model.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:          c.ID,
		UserEmail:   c.UserEmail,
		ApartmentID: c.ApartmentID,
		CreatedAt:   c.CreatedAt,
	}
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	cartIDs := p.CartIDs
	if cartIDs == nil {
		cartIDs = []string{}
	}
	return paymentResponse{
		ID:            p.ID,
		Email:         p.UserEmail,
		Price:         p.Price,
		TransactionID: p.TransactionID,
		CartIDs:       cartIDs,
		CreatedAt:     p.CreatedAt,
	}
}

// mapSlice はドメインモデルのスライスをレスポンスのスライスに変換する。nilでも空配列を返す。
func mapSlice[T any, R any](items []T, f func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, f(item))
	}
	return out
}
