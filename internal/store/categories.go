package store

import (
	"context"
	"database/sql"
	"errors"

	"inventory-catalog/internal/models"
)

const categoryColumns = `id, name, createdAt, updatedAt`

// AddCategory inserts a category and returns its id. A duplicate name fails
// with a constraint violation from SQLite.
func (s *Store) AddCategory(ctx context.Context, c *models.Category) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	now, ts := s.timestamp()
	res, err := db.ExecContext(ctx,
		"INSERT INTO categories (name, createdAt, updatedAt) VALUES (?, ?, ?)", c.Name, ts, ts)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return id, nil
}

// UpdateCategory renames a category. Products keep the category string they
// already carry.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	now, ts := s.timestamp()
	res, err := db.ExecContext(ctx,
		"UPDATE categories SET name = ?, updatedAt = ? WHERE id = ?", c.Name, ts, c.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	c.UpdatedAt = now
	return nil
}

// DeleteCategory removes a category. Products carrying its name are untouched.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// GetCategoryByID returns the category, or nil if it does not exist
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	return s.getCategory(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
}

// GetCategoryByName returns the category, or nil if it does not exist
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return s.getCategory(ctx, "SELECT "+categoryColumns+" FROM categories WHERE name = ?", name)
}

// GetCategories returns all categories in alphabetical order
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	categories := []models.Category{}
	err = db.SelectContext(ctx, &categories,
		"SELECT "+categoryColumns+" FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategoriesWithProductCount returns every category with the number of
// products whose category string matches its name, including empty ones.
func (s *Store) GetCategoriesWithProductCount(ctx context.Context) ([]models.CategoryWithCount, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	categories := []models.CategoryWithCount{}
	err = db.SelectContext(ctx, &categories, `
		SELECT c.id, c.name, c.createdAt, c.updatedAt, COUNT(p.id) AS productCount
		FROM categories c
		LEFT JOIN products p ON p.category = c.name
		GROUP BY c.id, c.name, c.createdAt, c.updatedAt
		ORDER BY c.name ASC`)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) getCategory(ctx context.Context, query string, args ...interface{}) (*models.Category, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var category models.Category
	err = db.GetContext(ctx, &category, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}
