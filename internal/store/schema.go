package store

import (
	"context"
	"fmt"

	"inventory-catalog/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    category      TEXT NOT NULL,
    price         REAL NOT NULL,
    discountPrice REAL,
    gstSlab       REAL,
    quantity      INTEGER DEFAULT 0,
    details       TEXT,
    imageUri      TEXT,
    createdAt     DATETIME DEFAULT CURRENT_TIMESTAMP,
    updatedAt     DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL UNIQUE,
    createdAt DATETIME DEFAULT CURRENT_TIMESTAMP,
    updatedAt DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS product_images (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    productId    INTEGER NOT NULL,
    imageUri     TEXT NOT NULL,
    displayOrder INTEGER NOT NULL DEFAULT 0,
    isPrimary    BOOLEAN NOT NULL DEFAULT 0,
    createdAt    DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (productId) REFERENCES products (id) ON DELETE CASCADE
);
`

const indexes = `
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_product_images_productId ON product_images(productId);
CREATE INDEX IF NOT EXISTS idx_product_images_isPrimary ON product_images(isPrimary);
`

// Columns added to products after the first release, in the order they shipped.
var productColumnMigrations = []struct {
	name       string
	definition string
}{
	{"imageUri", "TEXT"},
	{"gstSlab", "REAL"},
	{"quantity", "INTEGER DEFAULT 0"},
}

type columnInfo struct {
	CID          int     `db:"cid"`
	Name         string  `db:"name"`
	Type         string  `db:"type"`
	NotNull      int     `db:"notnull"`
	DefaultValue *string `db:"dflt_value"`
	PK           int     `db:"pk"`
}

// migrate creates missing tables, adds missing product columns and ensures the
// indexes exist. Any failure here leaves the store unusable.
func (s *Store) migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	added, err := addMissingProductColumns(ctx, db)
	if err != nil {
		return err
	}
	for _, col := range added {
		s.logger.Info("Added products column", zap.String("column", col))
	}

	if _, err := db.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func addMissingProductColumns(ctx context.Context, db *sqlx.DB) ([]string, error) {
	var cols []columnInfo
	if err := db.SelectContext(ctx, &cols, "PRAGMA table_info(products)"); err != nil {
		return nil, fmt.Errorf("failed to inspect products table: %w", err)
	}

	existing := make(map[string]bool, len(cols))
	for _, c := range cols {
		existing[c.Name] = true
	}

	var added []string
	for _, m := range productColumnMigrations {
		if existing[m.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE products ADD COLUMN %s %s", m.name, m.definition)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return added, fmt.Errorf("failed to add products.%s: %w", m.name, err)
		}
		added = append(added, m.name)
	}

	return added, nil
}

// migrateLegacyImages copies the single products.imageUri of older installs
// into product_images. It runs only while product_images is empty and never
// fails initialization.
func (s *Store) migrateLegacyImages(ctx context.Context, db *sqlx.DB) {
	_, createdAt := s.timestamp()
	migrated, err := copyLegacyImages(ctx, db, createdAt)
	if err != nil {
		s.logger.Error("Legacy image migration failed", zap.Error(err))
		return
	}
	if migrated > 0 {
		util.LegacyImagesMigratedTotal.Add(float64(migrated))
		s.logger.Info("Migrated legacy product images", zap.Int("count", migrated))
	}
}

func copyLegacyImages(ctx context.Context, db *sqlx.DB, createdAt string) (int, error) {
	var existing int
	if err := db.GetContext(ctx, &existing, "SELECT COUNT(*) FROM product_images"); err != nil {
		return 0, fmt.Errorf("failed to count product images: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO product_images (productId, imageUri, displayOrder, isPrimary, createdAt)
		SELECT id, imageUri, 0, 1, ?
		FROM products
		WHERE imageUri IS NOT NULL AND imageUri != ''
		ORDER BY id`, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to copy legacy images: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), tx.Commit()
}
