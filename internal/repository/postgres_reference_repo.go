package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/eventgate/internal/model"
)

// PostgresReferenceRepo はPostgreSQLを使用した参照データリポジトリ。
type PostgresReferenceRepo struct {
	db *sql.DB
}

// NewPostgresReferenceRepo はPostgresReferenceRepoを生成する。
func NewPostgresReferenceRepo(db *sql.DB) *PostgresReferenceRepo {
	return &PostgresReferenceRepo{db: db}
}

func scanProvince(row rowScanner) (*model.Province, error) {
	p := &model.Province{}
	if err := row.Scan(&p.ID, &p.Name, &p.Code); err != nil {
		return nil, err
	}
	return p, nil
}

func scanCity(row rowScanner) (*model.City, error) {
	c := &model.City{}
	if err := row.Scan(&c.ID, &c.ProvinceID, &c.Name, &c.Code); err != nil {
		return nil, err
	}
	return c, nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	c := &model.Category{}
	var description sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &description, &c.IsActive); err != nil {
		return nil, err
	}
	c.Description = stringPtr(description)
	return c, nil
}

// queryAll はクエリ結果の各行をscanで変換して返す。
func queryAll[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// queryOne は1行を取得する。行がない場合はnilを返す。
func queryOne[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// ListProvinces は州を名前順で返す。
func (r *PostgresReferenceRepo) ListProvinces(ctx context.Context) ([]*model.Province, error) {
	out, err := queryAll(ctx, r.db, scanProvince, `SELECT id, name, code FROM provinces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list provinces: %w", err)
	}
	return out, nil
}

// FindProvinceByID は指定IDの州を取得する。見つからない場合はnilを返す。
func (r *PostgresReferenceRepo) FindProvinceByID(ctx context.Context, id int) (*model.Province, error) {
	p, err := queryOne(ctx, r.db, scanProvince, `SELECT id, name, code FROM provinces WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find province: %w", err)
	}
	return p, nil
}

// ListCities は指定州の市を名前順で返す。
func (r *PostgresReferenceRepo) ListCities(ctx context.Context, provinceID int) ([]*model.City, error) {
	out, err := queryAll(ctx, r.db, scanCity,
		`SELECT id, province_id, name, code FROM cities WHERE province_id = $1 ORDER BY name`, provinceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return out, nil
}

// FindCityByID は指定IDの市を取得する。見つからない場合はnilを返す。
func (r *PostgresReferenceRepo) FindCityByID(ctx context.Context, id int) (*model.City, error) {
	c, err := queryOne(ctx, r.db, scanCity, `SELECT id, province_id, name, code FROM cities WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find city: %w", err)
	}
	return c, nil
}

// ListCategories はカテゴリを名前順で返す。isActiveがnilの場合は全件。
func (r *PostgresReferenceRepo) ListCategories(ctx context.Context, isActive *bool) ([]*model.Category, error) {
	query := `SELECT id, name, code, description, is_active FROM categories`
	var args []any
	if isActive != nil {
		query += ` WHERE is_active = $1`
		args = append(args, *isActive)
	}
	query += ` ORDER BY name`

	out, err := queryAll(ctx, r.db, scanCategory, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out, nil
}

// FindCategoryByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresReferenceRepo) FindCategoryByID(ctx context.Context, id int) (*model.Category, error) {
	c, err := queryOne(ctx, r.db, scanCategory,
		`SELECT id, name, code, description, is_active FROM categories WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}

// compile-time interface check
var _ ReferenceRepository = (*PostgresReferenceRepo)(nil)
