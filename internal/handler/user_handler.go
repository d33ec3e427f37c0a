package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.RegisterResult, error)
	List(ctx context.Context) ([]*model.User, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	IsMember(ctx context.Context, email string) (bool, error)
	SetRole(ctx context.Context, id string, role model.Role) error
}

// Authorizer は認可判断のインターフェース。policy.Policyが満たす。
type Authorizer interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	RequireAdmin(ctx context.Context, caller string) error
	RequireSelfOrAdmin(ctx context.Context, caller, owner string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	authz   Authorizer
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, authz Authorizer) *UserHandler {
	return &UserHandler{service: service, authz: authz}
}

type registerUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// Register はユーザーを登録する。登録済みのemailはエラーにせず200で返す。
// POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.service.Register(r.Context(), user.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if !res.Created {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    false,
			"message":    "user already exists",
			"insertedId": nil,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"insertedId": res.ID,
	})
}

// List は全ユーザーを返す。adminのみ。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(users, toUserResponse))
}

// CheckAdmin は指定emailがadminかどうかを返す。本人またはadminのみ。
// GET /users/admin/{email}
func (h *UserHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	h.checkRole(w, r, "admin", h.service.IsAdmin)
}

// CheckMember は指定emailがmemberかどうかを返す。本人またはadminのみ。
// GET /users/member/{email}
func (h *UserHandler) CheckMember(w http.ResponseWriter, r *http.Request) {
	h.checkRole(w, r, "member", h.service.IsMember)
}

func (h *UserHandler) checkRole(w http.ResponseWriter, r *http.Request, key string, check func(context.Context, string) (bool, error)) {
	email := chi.URLParam(r, "email")
	if err := h.authz.RequireSelfOrAdmin(r.Context(), callerEmail(r), email); err != nil {
		handleServiceError(w, r, err)
		return
	}

	ok, err := check(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{key: ok})
}

// MakeAdmin は指定ユーザーをadminにする。
// PATCH /users/admin/{id}
func (h *UserHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, model.RoleAdmin)
}

// MakeMember は指定ユーザーをmemberにする。
// PATCH /users/member/{id}
func (h *UserHandler) MakeMember(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, model.RoleMember)
}

// RemoveRole は指定ユーザーのroleを削除する。
// PATCH /users/remove-role/{id}
func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, model.RoleNone)
}

// SetRole はボディで指定されたroleを設定する。
// PATCH /users/role/{id}
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		handleServiceError(w, r, model.NewValidationError("role must be one of admin, member, none"))
		return
	}
	h.applyRole(w, r, role)
}

func (h *UserHandler) setRole(w http.ResponseWriter, r *http.Request, role model.Role) {
	if err := h.authz.RequireAdmin(r.Context(), callerEmail(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.applyRole(w, r, role)
}

func (h *UserHandler) applyRole(w http.ResponseWriter, r *http.Request, role model.Role) {
	if err := h.service.SetRole(r.Context(), chi.URLParam(r, "id"), role); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"role":    string(role),
	})
}
