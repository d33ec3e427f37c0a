package agreement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository/repotest"
	"github.com/hitoshi/propertypulse/internal/user"
)

const (
	aptA = "11111111-1111-4111-8111-111111111111"
	aptB = "22222222-2222-4222-8222-222222222222"
)

type recordingMetrics struct {
	mu          sync.Mutex
	transitions []string
	effects     []string
}

func (m *recordingMetrics) RecordHTTPRequest(string, int, time.Duration) {}
func (m *recordingMetrics) RecordPaymentIntent(string)                   {}
func (m *recordingMetrics) RecordAgreementTransition(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
}
func (m *recordingMetrics) RecordRoleEffect(e string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.effects = append(m.effects, e)
}

// failingRoles はrole更新を常に失敗させる。
type failingRoles struct{}

func (failingRoles) Get(context.Context, string) (model.Role, error) { return model.RoleNone, nil }
func (failingRoles) SetRoleByEmail(context.Context, string, model.Role) error {
	return errors.New("connection reset")
}

type fixture struct {
	ledger     *Ledger
	agreements *repotest.Agreements
	users      *repotest.Users
	metrics    *recordingMetrics
}

func newFixture(t *testing.T, users ...*model.User) *fixture {
	t.Helper()
	userRepo := repotest.NewUsers(users...)
	agreements := repotest.NewAgreements()
	apartments := repotest.NewApartments(
		&model.Apartment{ID: aptA, ApartmentNo: "A-1", Rent: 1200},
		&model.Apartment{ID: aptB, ApartmentNo: "B-1", Rent: 1500},
	)
	rec := &recordingMetrics{}
	return &fixture{
		ledger:     NewLedger(agreements, apartments, user.NewRoleStore(userRepo), rec),
		agreements: agreements,
		users:      userRepo,
		metrics:    rec,
	}
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *model.APIError", err)
	}
	return apiErr.Code
}

func TestLedger_Create(t *testing.T) {
	f := newFixture(t)

	a, err := f.ledger.Create(context.Background(), CreateInput{
		UserEmail: "a@example.com", UserName: "Alice", ApartmentID: aptA,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != model.AgreementStatusPending {
		t.Errorf("Status = %q, want pending", a.Status)
	}
	if a.AcceptedAt != nil {
		t.Errorf("AcceptedAt = %v, want nil", a.AcceptedAt)
	}
	if a.ID == "" || a.UserEmail != "a@example.com" || a.ApartmentID != aptA {
		t.Errorf("agreement = %+v", a)
	}
	if f.agreements.Len() != 1 {
		t.Errorf("stored = %d, want 1", f.agreements.Len())
	}
}

func TestLedger_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    CreateInput
		wantCode string
	}{
		{"emailなし", CreateInput{ApartmentID: aptA}, model.ErrCodeUnauthorized},
		{"apartmentIdなし", CreateInput{UserEmail: "a@example.com"}, model.ErrCodeValidationFailed},
		{"UUIDでないapartmentId", CreateInput{UserEmail: "a@example.com", ApartmentID: "nope"}, model.ErrCodeApartmentNotFound},
		{"存在しない物件", CreateInput{UserEmail: "a@example.com", ApartmentID: "33333333-3333-4333-8333-333333333333"}, model.ErrCodeApartmentNotFound},
		{"userNameが長すぎる", CreateInput{UserEmail: "a@example.com", UserName: strings.Repeat("名", 256), ApartmentID: aptA}, model.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ledger.Create(context.Background(), tt.input)
			if got := apiCode(t, err); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if f.agreements.Len() != 0 {
				t.Errorf("stored = %d, want 0", f.agreements.Len())
			}
		})
	}
}

func TestLedger_Create_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{UserEmail: "a@example.com", ApartmentID: aptA}

	if _, err := f.ledger.Create(ctx, in); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := f.ledger.Create(ctx, in)
	if got := apiCode(t, err); got != model.ErrCodeDuplicateAgreement {
		t.Errorf("code = %q, want %q", got, model.ErrCodeDuplicateAgreement)
	}

	// 別の物件なら作成できる
	if _, err := f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptB}); err != nil {
		t.Fatalf("Create other apartment: %v", err)
	}
	if f.agreements.Len() != 2 {
		t.Errorf("stored = %d, want 2", f.agreements.Len())
	}
}

func TestLedger_Create_ConcurrentSamePairStoresOne(t *testing.T) {
	const n = 16
	f := newFixture(t)

	// 全goroutineが事前確認を通過してから挿入させる
	var arrived sync.WaitGroup
	arrived.Add(n)
	release := make(chan struct{})
	f.agreements.CreateHook = func() {
		arrived.Done()
		<-release
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Create(context.Background(), CreateInput{
				UserEmail: "a@example.com", ApartmentID: aptA,
			})
		}(i)
	}
	arrived.Wait()
	close(release)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if apiCode(t, err) == model.ErrCodeDuplicateAgreement {
			conflicts++
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Errorf("ok = %d, conflicts = %d, want 1 and %d", ok, conflicts, n-1)
	}
	if f.agreements.Len() != 1 {
		t.Errorf("stored = %d, want 1", f.agreements.Len())
	}
}

func TestLedger_Accept_PromotesToMember(t *testing.T) {
	f := newFixture(t, &model.User{ID: "u1", Email: "a@example.com"})
	ctx := context.Background()

	a, err := f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptA})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := f.ledger.Accept(ctx, a.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if res.RoleEffect != RoleEffectUpdated {
		t.Errorf("RoleEffect = %q, want updated", res.RoleEffect)
	}
	if res.Agreement.Status != model.AgreementStatusAccepted || res.Agreement.AcceptedAt == nil {
		t.Errorf("agreement = %+v", res.Agreement)
	}
	if got := f.users.RawRole("a@example.com"); got != "member" {
		t.Errorf("role = %q, want member", got)
	}

	stored, _ := f.agreements.FindByID(ctx, a.ID)
	if stored.Status != model.AgreementStatusAccepted {
		t.Errorf("stored status = %q, want accepted", stored.Status)
	}
}

func TestLedger_Accept_Idempotent(t *testing.T) {
	f := newFixture(t, &model.User{ID: "u1", Email: "a@example.com"})
	ctx := context.Background()

	a, _ := f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptA})
	first, err := f.ledger.Accept(ctx, a.ID)
	if err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	second, err := f.ledger.Accept(ctx, a.ID)
	if err != nil {
		t.Fatalf("second Accept: %v", err)
	}

	if second.RoleEffect != RoleEffectUnchanged {
		t.Errorf("RoleEffect = %q, want unchanged", second.RoleEffect)
	}
	if !second.Agreement.AcceptedAt.Equal(*first.Agreement.AcceptedAt) {
		t.Errorf("AcceptedAt changed: %v -> %v", first.Agreement.AcceptedAt, second.Agreement.AcceptedAt)
	}
	if got := f.users.RawRole("a@example.com"); got != "member" {
		t.Errorf("role = %q, want member", got)
	}

	var accepted int
	for _, tr := range f.metrics.transitions {
		if tr == "accepted" {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("accepted transitions = %d, want 1", accepted)
	}
}

func TestLedger_Accept_RoleEffects(t *testing.T) {
	tests := []struct {
		name     string
		users    []*model.User
		roles    RoleStore
		wantEff  RoleEffect
		wantRole string
	}{
		{
			name:     "adminは降格しない",
			users:    []*model.User{{ID: "u1", Email: "a@example.com", Role: model.RoleAdmin}},
			wantEff:  RoleEffectAdminRetained,
			wantRole: "admin",
		},
		{
			name:     "memberは変更なし",
			users:    []*model.User{{ID: "u1", Email: "a@example.com", Role: model.RoleMember}},
			wantEff:  RoleEffectUnchanged,
			wantRole: "member",
		},
		{
			name:    "ユーザー未登録",
			wantEff: RoleEffectUserNotFound,
		},
		{
			name:    "role更新の失敗",
			users:   []*model.User{{ID: "u1", Email: "a@example.com"}},
			roles:   failingRoles{},
			wantEff: RoleEffectFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.users...)
			if tt.roles != nil {
				f.ledger.roles = tt.roles
			}
			ctx := context.Background()
			a, err := f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptA})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			res, err := f.ledger.Accept(ctx, a.ID)
			if err != nil {
				t.Fatalf("Accept: %v", err)
			}
			if res.RoleEffect != tt.wantEff {
				t.Errorf("RoleEffect = %q, want %q", res.RoleEffect, tt.wantEff)
			}
			if got := f.users.RawRole("a@example.com"); got != tt.wantRole {
				t.Errorf("role = %q, want %q", got, tt.wantRole)
			}
			// 状態遷移はrole更新の結果に関わらず成功している
			stored, _ := f.agreements.FindByID(ctx, a.ID)
			if stored.Status != model.AgreementStatusAccepted {
				t.Errorf("stored status = %q, want accepted", stored.Status)
			}
			if len(f.metrics.effects) != 1 || f.metrics.effects[0] != string(tt.wantEff) {
				t.Errorf("effects = %v", f.metrics.effects)
			}
		})
	}
}

func TestLedger_Accept_NotFoundMutatesNothing(t *testing.T) {
	f := newFixture(t, &model.User{ID: "u1", Email: "a@example.com"})
	ctx := context.Background()
	a, _ := f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptA})

	for _, id := range []string{"not-a-uuid", "44444444-4444-4444-8444-444444444444"} {
		_, err := f.ledger.Accept(ctx, id)
		if got := apiCode(t, err); got != model.ErrCodeAgreementNotFound {
			t.Errorf("Accept(%q) code = %q, want %q", id, got, model.ErrCodeAgreementNotFound)
		}
	}

	stored, _ := f.agreements.FindByID(ctx, a.ID)
	if stored.Status != model.AgreementStatusPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
	if got := f.users.RawRole("a@example.com"); got != "" {
		t.Errorf("role = %q, want empty", got)
	}
}

func TestLedger_Delete_KeepsRole(t *testing.T) {
	f := newFixture(t, &model.User{ID: "u1", Email: "a@example.com"})
	ctx := context.Background()
	a, _ := f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptA})
	if _, err := f.ledger.Accept(ctx, a.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if err := f.ledger.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.agreements.Len() != 0 {
		t.Errorf("stored = %d, want 0", f.agreements.Len())
	}
	if got := f.users.RawRole("a@example.com"); got != "member" {
		t.Errorf("role = %q, want member", got)
	}

	err := f.ledger.Delete(ctx, a.ID)
	if got := apiCode(t, err); got != model.ErrCodeAgreementNotFound {
		t.Errorf("second Delete code = %q, want %q", got, model.ErrCodeAgreementNotFound)
	}
}

func TestLedger_ListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptA})
	f.ledger.Create(ctx, CreateInput{UserEmail: "a@example.com", ApartmentID: aptB})
	f.ledger.Create(ctx, CreateInput{UserEmail: "b@example.com", ApartmentID: aptA})

	mine, err := f.ledger.ListByUser(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("len = %d, want 2", len(mine))
	}
	for _, a := range mine {
		if a.UserEmail != "a@example.com" {
			t.Errorf("foreign agreement returned: %+v", a)
		}
	}

	all, err := f.ledger.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}

	none, err := f.ledger.ListByUser(ctx, "nobody@example.com")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("got (%v, %v), want empty slice", none, err)
	}
}
