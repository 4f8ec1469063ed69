package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"inventory-catalog/internal/models"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, category, price, discountPrice, gstSlab,
	COALESCE(quantity, 0) AS quantity, details, imageUri, createdAt, updatedAt`

const productOrder = `ORDER BY updatedAt DESC, id DESC`

// ulower folds case on the SQL side the same way searchArgs does on the Go side
const searchPredicate = `(ulower(name) LIKE ? ESCAPE '\'
	OR ulower(category) LIKE ? ESCAPE '\'
	OR ulower(COALESCE(details, '')) LIKE ? ESCAPE '\')`

// AddProduct inserts a product and, when it carries images (or a single
// ImageURI), stores them as its image set. It returns the new id and updates
// p with the stored id, timestamps and primary image.
func (s *Store) AddProduct(ctx context.Context, p *models.Product) (int64, error) {
	now, ts := s.timestamp()
	images := initialImages(p)

	var (
		id      int64
		primary *string
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, category, price, discountPrice, gstSlab, quantity, details, createdAt, updatedAt)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Category, p.Price, p.DiscountPrice, p.GSTSlab, p.Quantity, p.Details, ts, ts)
		if err != nil {
			return err
		}

		id, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if images == nil {
			return nil
		}
		primary, err = replaceImages(ctx, tx, id, images, ts)
		return err
	})
	if err != nil {
		return 0, err
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	p.ImageURI = primary
	if images != nil {
		p.Images = sanitizeURIs(images)
	}
	return id, nil
}

// UpdateProduct overwrites the mutable fields of an existing product. The
// image set is replaced only when p.Images is non-nil.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == 0 {
		return ErrNotFound
	}
	now, ts := s.timestamp()

	var primary *string
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = ?, category = ?, price = ?, discountPrice = ?, gstSlab = ?,
				quantity = ?, details = ?, updatedAt = ?
			WHERE id = ?`,
			p.Name, p.Category, p.Price, p.DiscountPrice, p.GSTSlab, p.Quantity, p.Details, ts, p.ID)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if p.Images == nil {
			return nil
		}
		primary, err = replaceImages(ctx, tx, p.ID, p.Images, ts)
		return err
	})
	if err != nil {
		return err
	}

	p.UpdatedAt = now
	if p.Images != nil {
		p.ImageURI = primary
		p.Images = sanitizeURIs(p.Images)
	}
	return nil
}

// DeleteProduct removes a product; its images go with it via the cascading key.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// GetProductByID returns the product with its image URIs in display order,
// or nil if no such product exists.
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	images, err := selectImages(ctx, db, id)
	if err != nil {
		return nil, err
	}

	product.Images = make([]string, 0, len(images))
	for _, img := range images {
		product.Images = append(product.Images, img.ImageURI)
	}
	if product.ImageURI == nil && len(product.Images) > 0 {
		first := product.Images[0]
		product.ImageURI = &first
	}

	return &product, nil
}

// GetProducts returns every product, most recently updated first
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.selectProducts(ctx, "SELECT "+productColumns+" FROM products "+productOrder)
}

// GetProductsByCategory returns the products whose category equals category
func (s *Store) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.selectProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE category = ? "+productOrder, category)
}

// SearchProducts returns all products whose name, category or details
// contain query, ignoring case.
func (s *Store) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	return s.selectProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE "+searchPredicate+" "+productOrder,
		searchArgs(query)...)
}

// SearchProductsPage is SearchProducts limited to one page of results
func (s *Store) SearchProductsPage(ctx context.Context, query string, limit, offset int) ([]models.Product, error) {
	if limit <= 0 {
		return []models.Product{}, nil
	}
	args := append(searchArgs(query), limit, max(offset, 0))
	return s.selectProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE "+searchPredicate+" "+productOrder+" LIMIT ? OFFSET ?",
		args...)
}

// CountSearchResults returns how many products SearchProducts would return
func (s *Store) CountSearchResults(ctx context.Context, query string) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM products WHERE "+searchPredicate, searchArgs(query)...)
}

// GetProductsPage returns one page of products, most recently updated first
func (s *Store) GetProductsPage(ctx context.Context, limit, offset int) ([]models.Product, error) {
	if limit <= 0 {
		return []models.Product{}, nil
	}
	return s.selectProducts(ctx,
		"SELECT "+productColumns+" FROM products "+productOrder+" LIMIT ? OFFSET ?",
		limit, max(offset, 0))
}

// GetProductCount returns the total number of products
func (s *Store) GetProductCount(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM products")
}

func (s *Store) selectProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	var n int
	err = db.GetContext(ctx, &n, query, args...)
	return n, err
}

// initialImages picks the image list a new product starts with: its explicit
// list (blank entries dropped), else its single ImageURI, else none.
func initialImages(p *models.Product) []string {
	if images := sanitizeURIs(p.Images); len(images) > 0 {
		return images
	}
	if uri := strings.TrimSpace(p.PrimaryImageURI()); uri != "" {
		return []string{uri}
	}
	return nil
}

func searchArgs(query string) []interface{} {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	return []interface{}{pattern, pattern, pattern}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
