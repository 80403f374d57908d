package database

import (
	"context"
	"database/sql"
	"fmt"
)

type seedProvince struct {
	id         int
	name, code string
}

type seedCity struct {
	id, provinceID int
	name, code     string
}

type seedCategory struct {
	id                      int
	name, code, description string
	isActive                bool
}

var seedProvinces = []seedProvince{
	{1, "DKI Jakarta", "JKT"},
	{2, "Jawa Barat", "JB"},
	{3, "Jawa Tengah", "JT"},
	{4, "Jawa Timur", "JI"},
	{5, "Bali", "BA"},
}

var seedCities = []seedCity{
	{1, 1, "Jakarta Pusat", "JP"},
	{2, 1, "Jakarta Utara", "JU"},
	{3, 1, "Jakarta Selatan", "JS"},
	{4, 2, "Bandung", "BDG"},
	{5, 2, "Bogor", "BGR"},
	{6, 2, "Bekasi", "BKS"},
	{7, 3, "Semarang", "SMG"},
	{8, 3, "Surakarta", "SKA"},
	{9, 3, "Yogyakarta", "YGY"},
	{10, 4, "Surabaya", "SBY"},
	{11, 4, "Malang", "MLG"},
	{12, 5, "Denpasar", "DPS"},
	{13, 5, "Ubud", "UBD"},
}

var seedCategories = []seedCategory{
	{1, "Seminar", "SEM", "Acara seminar dan presentasi", true},
	{2, "Workshop", "WS", "Acara workshop dan pelatihan", true},
	{3, "Konferensi", "CONF", "Acara konferensi dan simposium", true},
	{4, "Pameran", "EXPO", "Acara pameran dan exhibition", true},
	{5, "Kompetisi", "COMP", "Acara kompetisi dan lomba", true},
	{6, "Festival", "FEST", "Acara festival dan perayaan", true},
	{7, "Rapat", "MEET", "Acara rapat dan pertemuan", false},
}

// SeedReferenceData は州、市、イベントカテゴリの初期データを投入する。
// 既存の行はそのまま残すため、繰り返し実行できる。
func SeedReferenceData(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range seedProvinces {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO provinces (id, name, code) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.code,
		); err != nil {
			return fmt.Errorf("failed to seed province %s: %w", p.code, err)
		}
	}

	for _, c := range seedCities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cities (id, province_id, name, code) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			c.id, c.provinceID, c.name, c.code,
		); err != nil {
			return fmt.Errorf("failed to seed city %s: %w", c.code, err)
		}
	}

	for _, c := range seedCategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, code, description, is_active) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			c.id, c.name, c.code, c.description, c.isActive,
		); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.code, err)
		}
	}

	// 明示IDで投入したためSERIALのシーケンスを進めておく
	for _, table := range []string{"provinces", "cities", "categories"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))`,
			table, table,
		)); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
