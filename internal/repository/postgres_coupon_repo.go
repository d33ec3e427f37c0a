package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/propertypulse/internal/model"
)

// PostgresCouponRepo はPostgreSQLを使用したクーポンリポジトリ。
type PostgresCouponRepo struct {
	db *sql.DB
}

// NewPostgresCouponRepo はPostgresCouponRepoを生成する。
func NewPostgresCouponRepo(db *sql.DB) *PostgresCouponRepo {
	return &PostgresCouponRepo{db: db}
}

const couponColumns = `id, code, discount, description, available, created_at`

func scanCoupon(row rowScanner) (*model.Coupon, error) {
	c := &model.Coupon{}
	if err := row.Scan(&c.ID, &c.Code, &c.Discount, &c.Description, &c.Available, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create はクーポンを作成する。
func (r *PostgresCouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO coupons (id, code, discount, description, available, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Code, c.Discount, c.Description, c.Available, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("coupon %s: %w", c.Code, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert coupon: %w", err)
	}
	return nil
}

// List はクーポンを新しい順に返す。
func (r *PostgresCouponRepo) List(ctx context.Context, onlyAvailable bool) ([]*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons`
	if onlyAvailable {
		query += ` WHERE available = TRUE`
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]*model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon row: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}
	return coupons, nil
}

// SetAvailability はクーポンの利用可否を更新し、更新後のクーポンを返す。
// availableがnilの場合は現在値を反転する。
func (r *PostgresCouponRepo) SetAvailability(ctx context.Context, id string, available *bool) (*model.Coupon, error) {
	var value interface{}
	if available != nil {
		value = *available
	}
	c, err := scanCoupon(r.db.QueryRowContext(ctx,
		`UPDATE coupons SET available = COALESCE($2::boolean, NOT available)
		 WHERE id = $1
		 RETURNING `+couponColumns,
		id, value,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("coupon %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update coupon availability: %w", err)
	}
	return c, nil
}

// compile-time interface check
var _ CouponRepository = (*PostgresCouponRepo)(nil)
