package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/propertypulse/internal/model"
)

// PostgresApartmentRepo はPostgreSQLを使用した物件リポジトリ。
type PostgresApartmentRepo struct {
	db *sql.DB
}

// NewPostgresApartmentRepo はPostgresApartmentRepoを生成する。
func NewPostgresApartmentRepo(db *sql.DB) *PostgresApartmentRepo {
	return &PostgresApartmentRepo{db: db}
}

const apartmentColumns = `id, apartment_no, floor_no, block_name, rent, image_url, created_at`

func scanApartment(row rowScanner) (*model.Apartment, error) {
	apt := &model.Apartment{}
	if err := row.Scan(&apt.ID, &apt.ApartmentNo, &apt.FloorNo, &apt.BlockName, &apt.Rent, &apt.ImageURL, &apt.CreatedAt); err != nil {
		return nil, err
	}
	return apt, nil
}

// rentClause は家賃範囲条件のWHERE句と引数を組み立てる。
// 下限・上限の両方が指定された場合のみ条件を付ける（片方のみは無視）。
func rentClause(filter model.ApartmentFilter) (string, []interface{}) {
	if !filter.HasRentRange() {
		return "", nil
	}
	return ` WHERE rent >= $1 AND rent <= $2`, []interface{}{*filter.RentMin, *filter.RentMax}
}

// FindByID は指定IDの物件を取得する。見つからない場合はnilを返す。
func (r *PostgresApartmentRepo) FindByID(ctx context.Context, id string) (*model.Apartment, error) {
	apt, err := scanApartment(r.db.QueryRowContext(ctx,
		`SELECT `+apartmentColumns+` FROM apartments WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find apartment by ID: %w", err)
	}
	return apt, nil
}

// Count はフィルタ条件に一致する物件の総数を返す。
func (r *PostgresApartmentRepo) Count(ctx context.Context, filter model.ApartmentFilter) (int, error) {
	where, args := rentClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM apartments`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count apartments: %w", err)
	}
	return total, nil
}

// List はフィルタ条件に一致する物件をapartment_no順にOffset/Limitの範囲で返す。
func (r *PostgresApartmentRepo) List(ctx context.Context, filter model.ApartmentFilter) ([]*model.Apartment, error) {
	where, args := rentClause(filter)
	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM apartments%s ORDER BY apartment_no ASC, id ASC LIMIT $%d OFFSET $%d`,
		apartmentColumns, where, n+1, n+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list apartments: %w", err)
	}
	defer rows.Close()

	apartments := make([]*model.Apartment, 0)
	for rows.Next() {
		apt, err := scanApartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan apartment row: %w", err)
		}
		apartments = append(apartments, apt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate apartments: %w", err)
	}
	return apartments, nil
}

// Upsert はapartment_noをキーに物件を作成または更新する。
func (r *PostgresApartmentRepo) Upsert(ctx context.Context, apt *model.Apartment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO apartments (id, apartment_no, floor_no, block_name, rent, image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (apartment_no) DO UPDATE
		 SET floor_no = EXCLUDED.floor_no,
		     block_name = EXCLUDED.block_name,
		     rent = EXCLUDED.rent,
		     image_url = EXCLUDED.image_url`,
		apt.ID, apt.ApartmentNo, apt.FloorNo, apt.BlockName, apt.Rent, apt.ImageURL, apt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert apartment: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ApartmentRepository = (*PostgresApartmentRepo)(nil)
