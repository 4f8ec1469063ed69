package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"inventory-catalog/internal/models"

	"github.com/jmoiron/sqlx"
)

// products.imageUri mirrors the URI of the product's primary image. Every
// function here that changes which image is primary, or removes it, also
// rewrites that column in the same transaction.

const imageColumns = `id, productId, imageUri, displayOrder, isPrimary, createdAt`

// AddImage appends an image after the product's current last image. When
// isPrimary is set the new image replaces the current primary.
func (s *Store) AddImage(ctx context.Context, productID int64, uri string, isPrimary bool) (*models.ProductImage, error) {
	now, ts := s.timestamp()
	img := &models.ProductImage{
		ProductID: productID,
		ImageURI:  uri,
		IsPrimary: isPrimary,
		CreatedAt: now,
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireProduct(ctx, tx, productID); err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &img.DisplayOrder,
			"SELECT COALESCE(MAX(displayOrder) + 1, 0) FROM product_images WHERE productId = ?",
			productID); err != nil {
			return err
		}

		if isPrimary {
			if _, err := tx.ExecContext(ctx,
				"UPDATE product_images SET isPrimary = 0 WHERE productId = ?", productID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (productId, imageUri, displayOrder, isPrimary, createdAt)
			VALUES (?, ?, ?, ?, ?)`,
			productID, uri, img.DisplayOrder, isPrimary, ts)
		if err != nil {
			return err
		}
		if img.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		if isPrimary {
			return setImageURI(ctx, tx, productID, &uri)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return img, nil
}

// DeleteImage removes an image. If it was the primary, the remaining image
// with the lowest display order becomes primary; with none left the
// product's imageUri is cleared.
func (s *Store) DeleteImage(ctx context.Context, imageID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var img models.ProductImage
		err := tx.GetContext(ctx, &img, "SELECT "+imageColumns+" FROM product_images WHERE id = ?", imageID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM product_images WHERE id = ?", imageID); err != nil {
			return err
		}

		if !img.IsPrimary {
			return nil
		}

		var next int64
		err = tx.GetContext(ctx, &next, `
			SELECT id FROM product_images
			WHERE productId = ?
			ORDER BY displayOrder, id
			LIMIT 1`, img.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return setImageURI(ctx, tx, img.ProductID, nil)
		}
		if err != nil {
			return err
		}

		return setPrimary(ctx, tx, img.ProductID, next)
	})
}

// ReorderImage sets one image's display order. Sibling images are not
// renumbered.
func (s *Store) ReorderImage(ctx context.Context, imageID int64, newOrder int) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		"UPDATE product_images SET displayOrder = ? WHERE id = ?", newOrder, imageID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetPrimaryImage makes imageID the product's only primary image
func (s *Store) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return setPrimary(ctx, tx, productID, imageID)
	})
}

// GetImages returns a product's images in display order
func (s *Store) GetImages(ctx context.Context, productID int64) ([]models.ProductImage, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return selectImages(ctx, db, productID)
}

func selectImages(ctx context.Context, q sqlx.QueryerContext, productID int64) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	err := sqlx.SelectContext(ctx, q, &images,
		"SELECT "+imageColumns+" FROM product_images WHERE productId = ? ORDER BY displayOrder, id",
		productID)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// replaceImages swaps the product's whole image set for uris (empty entries
// dropped). The first URI becomes primary. It returns the new imageUri.
func replaceImages(ctx context.Context, tx *sqlx.Tx, productID int64, uris []string, createdAt string) (*string, error) {
	clean := sanitizeURIs(uris)

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_images WHERE productId = ?", productID); err != nil {
		return nil, err
	}

	if len(clean) == 0 {
		return nil, setImageURI(ctx, tx, productID, nil)
	}

	for i, uri := range clean {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (productId, imageUri, displayOrder, isPrimary, createdAt)
			VALUES (?, ?, ?, ?, ?)`,
			productID, uri, i, i == 0, createdAt); err != nil {
			return nil, err
		}
	}

	primary := clean[0]
	return &primary, setImageURI(ctx, tx, productID, &primary)
}

func setPrimary(ctx context.Context, tx *sqlx.Tx, productID, imageID int64) error {
	var uri string
	err := tx.GetContext(ctx, &uri,
		"SELECT imageUri FROM product_images WHERE id = ? AND productId = ?", imageID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE product_images SET isPrimary = 0 WHERE productId = ?", productID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE product_images SET isPrimary = 1 WHERE id = ?", imageID); err != nil {
		return err
	}

	return setImageURI(ctx, tx, productID, &uri)
}

func setImageURI(ctx context.Context, tx *sqlx.Tx, productID int64, uri *string) error {
	_, err := tx.ExecContext(ctx, "UPDATE products SET imageUri = ? WHERE id = ?", uri, productID)
	return err
}

func requireProduct(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)", productID); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func sanitizeURIs(uris []string) []string {
	clean := make([]string, 0, len(uris))
	for _, uri := range uris {
		if uri = strings.TrimSpace(uri); uri != "" {
			clean = append(clean, uri)
		}
	}
	return clean
}
