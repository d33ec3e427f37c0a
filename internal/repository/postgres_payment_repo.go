package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/lib/pq"
)

// PostgresPaymentRepo はPostgreSQLを使用した支払い記録リポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

// Create は支払い記録を作成する。
func (r *PostgresPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	cartIDs := p.CartIDs
	if cartIDs == nil {
		cartIDs = []string{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, user_email, price, transaction_id, cart_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserEmail, p.Price, p.TransactionID, pq.Array(cartIDs), p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment %s: %w", p.TransactionID, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListByUserEmail は指定ユーザーの支払い記録を新しい順に返す。
func (r *PostgresPaymentRepo) ListByUserEmail(ctx context.Context, userEmail string) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, price, transaction_id, cart_ids, created_at FROM payments
		 WHERE user_email = $1
		 ORDER BY created_at DESC, id ASC`,
		userEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*model.Payment, 0)
	for rows.Next() {
		p := &model.Payment{}
		var cartIDs pq.StringArray
		if err := rows.Scan(&p.ID, &p.UserEmail, &p.Price, &p.TransactionID, &cartIDs, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		p.CartIDs = []string(cartIDs)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// compile-time interface check
var _ PaymentRepository = (*PostgresPaymentRepo)(nil)
