// Package repotest はテスト用のインメモリリポジトリを提供する。
// 一意制約とErrNotFound/ErrDuplicateの扱いはPostgres実装と揃えている。
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

// Users はインメモリのUserRepository。
type Users struct {
	mu    sync.Mutex
	byID  map[string]*model.User
	order []string
}

// NewUsers はUsersを生成し、初期ユーザーを登録する。
func NewUsers(seed ...*model.User) *Users {
	r := &Users{byID: map[string]*model.User{}}
	for _, u := range seed {
		cp := *u
		r.byID[u.ID] = &cp
		r.order = append(r.order, u.ID)
	}
	return r
}

func (r *Users) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.findByEmailLocked(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *Users) findByEmailLocked(email string) *model.User {
	for _, id := range r.order {
		if u := r.byID[id]; u.Email == email {
			return u
		}
	}
	return nil
}

func (r *Users) CreateIfAbsent(_ context.Context, user *model.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findByEmailLocked(user.Email) != nil {
		return false, nil
	}
	cp := *user
	r.byID[user.ID] = &cp
	r.order = append(r.order, user.ID)
	return true, nil
}

func (r *Users) List(_ context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *Users) SetRole(_ context.Context, id string, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	u.Role = storedRole(role)
	return nil
}

func (r *Users) SetRoleByEmail(_ context.Context, email string, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findByEmailLocked(email)
	if u == nil {
		return fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
	}
	u.Role = storedRole(role)
	return nil
}

// RawRole は保存されているroleの生の値を返す。role属性が無い場合は空文字を返す。
func (r *Users) RawRole(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.findByEmailLocked(email); u != nil {
		return string(u.Role)
	}
	return ""
}

// storedRole はRoleNoneを属性なし（空文字）として保存する。
func storedRole(role model.Role) model.Role {
	if role == model.RoleNone {
		return ""
	}
	return role
}

// Apartments はインメモリのApartmentRepository。
type Apartments struct {
	mu    sync.Mutex
	items []*model.Apartment
}

// NewApartments はApartmentsを生成する。
func NewApartments(seed ...*model.Apartment) *Apartments {
	r := &Apartments{}
	for _, a := range seed {
		cp := *a
		r.items = append(r.items, &cp)
	}
	return r
}

func (r *Apartments) FindByID(_ context.Context, id string) (*model.Apartment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Apartments) filtered(filter model.ApartmentFilter) []*model.Apartment {
	var out []*model.Apartment
	for _, a := range r.items {
		if filter.HasRentRange() && (a.Rent < *filter.RentMin || a.Rent > *filter.RentMax) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ApartmentNo != out[j].ApartmentNo {
			return out[i].ApartmentNo < out[j].ApartmentNo
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Apartments) Count(_ context.Context, filter model.ApartmentFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filtered(filter)), nil
}

func (r *Apartments) List(_ context.Context, filter model.ApartmentFilter) ([]*model.Apartment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filtered(filter)
	out := make([]*model.Apartment, 0)
	if filter.Offset >= len(all) {
		return out, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return append(out, all[filter.Offset:end]...), nil
}

func (r *Apartments) Upsert(_ context.Context, apt *model.Apartment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.items {
		if a.ApartmentNo == apt.ApartmentNo {
			cp := *apt
			cp.ID = a.ID
			cp.CreatedAt = a.CreatedAt
			r.items[i] = &cp
			return nil
		}
	}
	cp := *apt
	r.items = append(r.items, &cp)
	return nil
}

// Agreements はインメモリのAgreementRepository。(user_email, apartment_id)の一意制約を持つ。
type Agreements struct {
	mu    sync.Mutex
	items []*model.Agreement

	// CreateHook が設定されている場合、一意制約の検査前に呼ばれる。競合の再現に使う。
	CreateHook func()
}

// NewAgreements はAgreementsを生成する。
func NewAgreements(seed ...*model.Agreement) *Agreements {
	r := &Agreements{}
	for _, a := range seed {
		cp := *a
		r.items = append(r.items, &cp)
	}
	return r
}

func (r *Agreements) FindByID(_ context.Context, id string) (*model.Agreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id {
			return copyAgreement(a), nil
		}
	}
	return nil, nil
}

func (r *Agreements) FindByUserAndApartment(_ context.Context, userEmail, apartmentID string) (*model.Agreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.UserEmail == userEmail && a.ApartmentID == apartmentID {
			return copyAgreement(a), nil
		}
	}
	return nil, nil
}

func (r *Agreements) Create(_ context.Context, agreement *model.Agreement) error {
	if r.CreateHook != nil {
		r.CreateHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.UserEmail == agreement.UserEmail && a.ApartmentID == agreement.ApartmentID {
			return fmt.Errorf("agreement: %w", repository.ErrDuplicate)
		}
	}
	r.items = append(r.items, copyAgreement(agreement))
	return nil
}

func (r *Agreements) List(_ context.Context) ([]*model.Agreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Agreement, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, copyAgreement(a))
	}
	return out, nil
}

func (r *Agreements) ListByUserEmail(_ context.Context, userEmail string) ([]*model.Agreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Agreement, 0)
	for _, a := range r.items {
		if a.UserEmail == userEmail {
			out = append(out, copyAgreement(a))
		}
	}
	return out, nil
}

func (r *Agreements) UpdateStatus(_ context.Context, id string, status model.AgreementStatus, acceptedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id {
			a.Status = status
			if a.AcceptedAt == nil && acceptedAt != nil {
				t := *acceptedAt
				a.AcceptedAt = &t
			}
			return nil
		}
	}
	return fmt.Errorf("agreement %s: %w", id, repository.ErrNotFound)
}

func (r *Agreements) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.items {
		if a.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("agreement %s: %w", id, repository.ErrNotFound)
}

// Len は保存されている契約数を返す。
func (r *Agreements) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func copyAgreement(a *model.Agreement) *model.Agreement {
	cp := *a
	if a.AcceptedAt != nil {
		t := *a.AcceptedAt
		cp.AcceptedAt = &t
	}
	return &cp
}

var (
	_ repository.UserRepository      = (*Users)(nil)
	_ repository.ApartmentRepository = (*Apartments)(nil)
	_ repository.AgreementRepository = (*Agreements)(nil)
)
