package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/lib/pq"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// Create はカート項目を作成する。
func (r *PostgresCartRepo) Create(ctx context.Context, item *model.CartItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_email, apartment_id, created_at) VALUES ($1, $2, $3, $4)`,
		item.ID, item.UserEmail, item.ApartmentID, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("カート項目の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserEmail は指定ユーザーのカート項目を追加順に返す。
func (r *PostgresCartRepo) ListByUserEmail(ctx context.Context, userEmail string) ([]*model.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, apartment_id, created_at FROM carts
		 WHERE user_email = $1
		 ORDER BY created_at ASC, id ASC`,
		userEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("カート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	items := make([]*model.CartItem, 0)
	for rows.Next() {
		item := &model.CartItem{}
		if err := rows.Scan(&item.ID, &item.UserEmail, &item.ApartmentID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("カート行の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カート一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// DeleteByIDsForUser は指定ユーザーが所有するカート項目のうちidsに含まれるものを削除する。
// 他ユーザーの項目はidsに含まれていても削除しない。
func (r *PostgresCartRepo) DeleteByIDsForUser(ctx context.Context, userEmail string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM carts WHERE user_email = $1 AND id = ANY($2)`,
		userEmail, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("カート項目の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
