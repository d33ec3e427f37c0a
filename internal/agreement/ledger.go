// Package agreement は賃貸契約のライフサイクル（pending → accepted、削除）を管理する。
package agreement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/metrics"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
)

// maxUserNameLength はagreements.user_nameの列長。
const maxUserNameLength = 255

// RoleEffect は契約承認に伴うrole更新の結果を表す。
type RoleEffect string

const (
	// RoleEffectUpdated はroleをmemberに更新したことを示す。
	RoleEffectUpdated RoleEffect = "updated"
	// RoleEffectUnchanged は既にmemberだったため更新しなかったことを示す。
	RoleEffectUnchanged RoleEffect = "unchanged"
	// RoleEffectAdminRetained はadminを降格しなかったことを示す。
	RoleEffectAdminRetained RoleEffect = "admin_retained"
	// RoleEffectUserNotFound は契約者のユーザーレコードが存在しなかったことを示す。
	RoleEffectUserNotFound RoleEffect = "user_not_found"
	// RoleEffectFailed はrole更新がエラーになったことを示す。状態遷移自体は成功している。
	RoleEffectFailed RoleEffect = "failed"
)

// RoleStore は契約承認時に参照・更新するroleの保存先。
type RoleStore interface {
	Get(ctx context.Context, email string) (model.Role, error)
	SetRoleByEmail(ctx context.Context, email string, role model.Role) error
}

// ApartmentFinder は物件の存在確認に使う。
type ApartmentFinder interface {
	FindByID(ctx context.Context, id string) (*model.Apartment, error)
}

// CreateInput は契約作成の入力。UserEmailは検証済みトークンのemail。
type CreateInput struct {
	UserEmail   string
	UserName    string
	ApartmentID string
}

// AcceptResult は承認結果。RoleEffectでrole更新の成否を呼び出し元に示す。
type AcceptResult struct {
	Agreement  *model.Agreement
	RoleEffect RoleEffect
}

// Ledger は契約の作成・承認・削除・一覧を提供する。
type Ledger struct {
	repo       repository.AgreementRepository
	apartments ApartmentFinder
	roles      RoleStore
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewLedger はLedgerを生成する。recがnilの場合はメトリクスを記録しない。
func NewLedger(repo repository.AgreementRepository, apartments ApartmentFinder, roles RoleStore, rec metrics.Recorder) *Ledger {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Ledger{
		repo:       repo,
		apartments: apartments,
		roles:      roles,
		metrics:    rec,
		now:        time.Now,
	}
}

// Create はpending状態の契約を作成する。
// 同一(user, apartment)の契約が存在する場合はDUPLICATE_AGREEMENTを返す。
// 事前確認をすり抜けた同時作成はDBの一意制約で検出し、同じエラーに変換する。
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*model.Agreement, error) {
	email := strings.TrimSpace(in.UserEmail)
	if email == "" {
		return nil, model.NewUnauthorizedError()
	}
	userName := strings.TrimSpace(in.UserName)
	if utf8.RuneCountInString(userName) > maxUserNameLength {
		return nil, model.NewValidationError(fmt.Sprintf("userName must be at most %d characters", maxUserNameLength))
	}
	aptID := strings.TrimSpace(in.ApartmentID)
	if aptID == "" {
		return nil, model.NewValidationError("apartmentId is required")
	}
	if _, err := uuid.Parse(aptID); err != nil {
		return nil, model.NewApartmentNotFoundError(aptID)
	}

	apt, err := l.apartments.FindByID(ctx, aptID)
	if err != nil {
		return nil, fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if apt == nil {
		return nil, model.NewApartmentNotFoundError(aptID)
	}

	existing, err := l.repo.FindByUserAndApartment(ctx, email, aptID)
	if err != nil {
		return nil, fmt.Errorf("既存契約の確認に失敗しました: %w", err)
	}
	if existing != nil {
		l.metrics.RecordAgreementTransition("duplicate")
		return nil, model.NewDuplicateAgreementError()
	}

	a := &model.Agreement{
		ID:          uuid.NewString(),
		UserEmail:   email,
		UserName:    userName,
		ApartmentID: aptID,
		Status:      model.AgreementStatusPending,
		CreatedAt:   l.now(),
	}
	if err := l.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			l.metrics.RecordAgreementTransition("duplicate")
			slog.Warn("concurrent duplicate agreement rejected by constraint",
				slog.String("email", email),
				slog.String("apartment_id", aptID),
			)
			return nil, model.NewDuplicateAgreementError()
		}
		return nil, fmt.Errorf("契約の作成に失敗しました: %w", err)
	}

	l.metrics.RecordAgreementTransition("created")
	slog.Info("agreement created",
		slog.String("agreement_id", a.ID),
		slog.String("email", email),
		slog.String("apartment_id", aptID),
	)
	return a, nil
}

// Accept は契約をacceptedに遷移させ、契約者のroleをmemberにする。
// 存在しない場合はAGREEMENT_NOT_FOUNDを返し、何も変更しない。
// 状態遷移とrole更新は同一トランザクションではない。role更新が失敗しても
// 状態遷移は成功として返し、結果をRoleEffectで示す。
// 既にacceptedの契約への再承認は状態を書き換えず、role更新のみ再試行する。
func (l *Ledger) Accept(ctx context.Context, id string) (*AcceptResult, error) {
	a, err := l.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status != model.AgreementStatusAccepted {
		now := l.now()
		if err := l.repo.UpdateStatus(ctx, a.ID, model.AgreementStatusAccepted, &now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, model.NewAgreementNotFoundError(id)
			}
			return nil, fmt.Errorf("契約状態の更新に失敗しました: %w", err)
		}
		a.Status = model.AgreementStatusAccepted
		a.AcceptedAt = &now
		l.metrics.RecordAgreementTransition("accepted")
	}

	effect := l.promoteToMember(ctx, a.UserEmail)
	l.metrics.RecordRoleEffect(string(effect))

	level := slog.LevelInfo
	if effect == RoleEffectFailed || effect == RoleEffectUserNotFound {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "agreement accepted",
		slog.String("agreement_id", a.ID),
		slog.String("email", a.UserEmail),
		slog.String("role_effect", string(effect)),
	)

	return &AcceptResult{Agreement: a, RoleEffect: effect}, nil
}

// promoteToMember は契約者のroleをmemberにする。adminは降格しない。
func (l *Ledger) promoteToMember(ctx context.Context, email string) RoleEffect {
	current, err := l.roles.Get(ctx, email)
	if err != nil {
		slog.Error("failed to read role for agreement owner",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return RoleEffectFailed
	}
	switch current {
	case model.RoleAdmin:
		return RoleEffectAdminRetained
	case model.RoleMember:
		return RoleEffectUnchanged
	}

	if err := l.roles.SetRoleByEmail(ctx, email, model.RoleMember); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound {
			return RoleEffectUserNotFound
		}
		slog.Error("failed to promote agreement owner",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return RoleEffectFailed
	}
	return RoleEffectUpdated
}

// Delete は契約を状態に関わらず削除する。roleは変更しない。
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewAgreementNotFoundError(id)
	}
	if err := l.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewAgreementNotFoundError(id)
		}
		return fmt.Errorf("契約の削除に失敗しました: %w", err)
	}
	l.metrics.RecordAgreementTransition("deleted")
	slog.Info("agreement deleted", slog.String("agreement_id", id))
	return nil
}

// Get は指定IDの契約を返す。
func (l *Ledger) Get(ctx context.Context, id string) (*model.Agreement, error) {
	return l.find(ctx, id)
}

// List は全契約を返す。
func (l *Ledger) List(ctx context.Context) ([]*model.Agreement, error) {
	agreements, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("契約一覧の取得に失敗しました: %w", err)
	}
	return agreements, nil
}

// ListByUser は指定emailの契約を返す。
func (l *Ledger) ListByUser(ctx context.Context, email string) ([]*model.Agreement, error) {
	agreements, err := l.repo.ListByUserEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("契約一覧の取得に失敗しました: %w", err)
	}
	return agreements, nil
}

func (l *Ledger) find(ctx context.Context, id string) (*model.Agreement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewAgreementNotFoundError(id)
	}
	a, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("契約の取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewAgreementNotFoundError(id)
	}
	return a, nil
}
