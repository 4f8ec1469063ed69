package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-catalog/internal/models"
	"inventory-catalog/internal/util"

	"go.uber.org/zap"
)

// AddImage appends an image to a product, optionally as its new primary image
func (s *CatalogService) AddImage(ctx context.Context, productID int64, uri string, primary bool) (*models.ProductImage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AddImage")
	defer span.End()
	defer observe("add_image", time.Now())

	uri = strings.TrimSpace(uri)
	if uri == "" {
		err := &ValidationError{Field: "image_uri", Message: "is required"}
		s.fail(span, "add_image", err)
		return nil, err
	}

	img, err := s.store.AddImage(ctx, productID, uri, primary)
	if err != nil {
		s.fail(span, "add_image", err)
		return nil, fmt.Errorf("failed to add image to product %d: %w", productID, err)
	}

	util.ImageMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Info("Image added",
		zap.Int64("product_id", productID),
		zap.Int64("image_id", img.ID),
		zap.Bool("primary", primary))
	return img, nil
}

// DeleteImage removes an image, promoting the next image if it was primary
func (s *CatalogService) DeleteImage(ctx context.Context, imageID int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteImage")
	defer span.End()
	defer observe("delete_image", time.Now())

	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		s.fail(span, "delete_image", err)
		return fmt.Errorf("failed to delete image %d: %w", imageID, err)
	}

	util.ImageMutationsTotal.WithLabelValues("delete").Inc()
	return nil
}

// ReorderImage moves an image to a new display position
func (s *CatalogService) ReorderImage(ctx context.Context, imageID int64, order int) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.ReorderImage")
	defer span.End()
	defer observe("reorder_image", time.Now())

	if order < 0 {
		err := &ValidationError{Field: "display_order", Message: "must not be negative"}
		s.fail(span, "reorder_image", err)
		return err
	}

	if err := s.store.ReorderImage(ctx, imageID, order); err != nil {
		s.fail(span, "reorder_image", err)
		return fmt.Errorf("failed to reorder image %d: %w", imageID, err)
	}

	util.ImageMutationsTotal.WithLabelValues("reorder").Inc()
	return nil
}

// SetPrimaryImage makes an image the product's primary image
func (s *CatalogService) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.SetPrimaryImage")
	defer span.End()
	defer observe("set_primary_image", time.Now())

	if err := s.store.SetPrimaryImage(ctx, productID, imageID); err != nil {
		s.fail(span, "set_primary_image", err)
		return fmt.Errorf("failed to set primary image %d of product %d: %w", imageID, productID, err)
	}

	util.ImageMutationsTotal.WithLabelValues("set_primary").Inc()
	return nil
}

// ListImages returns a product's images in display order
func (s *CatalogService) ListImages(ctx context.Context, productID int64) ([]models.ProductImage, error) {
	images, err := s.store.GetImages(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of product %d: %w", productID, err)
	}
	return images, nil
}
