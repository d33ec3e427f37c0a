package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/propertypulse/internal/model"
)

// PostgresAgreementRepo はPostgreSQLを使用した契約リポジトリ。
type PostgresAgreementRepo struct {
	db *sql.DB
}

// NewPostgresAgreementRepo はPostgresAgreementRepoを生成する。
func NewPostgresAgreementRepo(db *sql.DB) *PostgresAgreementRepo {
	return &PostgresAgreementRepo{db: db}
}

const agreementColumns = `id, user_email, user_name, apartment_id, status, created_at, accepted_at`

func scanAgreement(row rowScanner) (*model.Agreement, error) {
	a := &model.Agreement{}
	var status string
	var acceptedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.UserEmail, &a.UserName, &a.ApartmentID, &status, &a.CreatedAt, &acceptedAt); err != nil {
		return nil, err
	}
	a.Status = model.AgreementStatus(status)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		a.AcceptedAt = &t
	}
	return a, nil
}

// FindByID は指定IDの契約を取得する。見つからない場合はnilを返す。
func (r *PostgresAgreementRepo) FindByID(ctx context.Context, id string) (*model.Agreement, error) {
	a, err := scanAgreement(r.db.QueryRowContext(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("契約の取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindByUserAndApartment はユーザーemailと物件IDで契約を検索する。見つからない場合はnilを返す。
func (r *PostgresAgreementRepo) FindByUserAndApartment(ctx context.Context, userEmail, apartmentID string) (*model.Agreement, error) {
	a, err := scanAgreement(r.db.QueryRowContext(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE user_email = $1 AND apartment_id = $2`,
		userEmail, apartmentID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーと物件による契約の検索に失敗しました: %w", err)
	}
	return a, nil
}

// Create は契約を作成する。
func (r *PostgresAgreementRepo) Create(ctx context.Context, a *model.Agreement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agreements (id, user_email, user_name, apartment_id, status, created_at, accepted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserEmail, a.UserName, a.ApartmentID, string(a.Status), a.CreatedAt, a.AcceptedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("契約が既に存在します: %w", ErrDuplicate)
		}
		return fmt.Errorf("契約の作成に失敗しました: %w", err)
	}
	return nil
}

// List は全契約を作成順に返す。
func (r *PostgresAgreementRepo) List(ctx context.Context) ([]*model.Agreement, error) {
	return r.list(ctx,
		`SELECT `+agreementColumns+` FROM agreements ORDER BY created_at ASC, id ASC`,
	)
}

// ListByUserEmail は指定ユーザーの契約を作成順に返す。
func (r *PostgresAgreementRepo) ListByUserEmail(ctx context.Context, userEmail string) ([]*model.Agreement, error) {
	return r.list(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE user_email = $1 ORDER BY created_at ASC, id ASC`,
		userEmail,
	)
}

func (r *PostgresAgreementRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.Agreement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("契約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	agreements := make([]*model.Agreement, 0)
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("契約行の読み取りに失敗しました: %w", err)
		}
		agreements = append(agreements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("契約一覧の走査に失敗しました: %w", err)
	}
	return agreements, nil
}

// UpdateStatus は契約の状態を更新する。
// acceptedAtがnilの場合は既存のaccepted_atを維持する。
func (r *PostgresAgreementRepo) UpdateStatus(ctx context.Context, id string, status model.AgreementStatus, acceptedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE agreements SET status = $2, accepted_at = COALESCE(accepted_at, $3) WHERE id = $1`,
		id, string(status), acceptedAt,
	)
	if err != nil {
		return fmt.Errorf("契約状態の更新に失敗しました: %w", err)
	}
	return requireAffected(result, "agreement", id)
}

// Delete は指定IDの契約を削除する。
func (r *PostgresAgreementRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM agreements WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("契約の削除に失敗しました: %w", err)
	}
	return requireAffected(result, "agreement", id)
}

// compile-time interface check
var _ AgreementRepository = (*PostgresAgreementRepo)(nil)
