package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-catalog/internal/models"
	"inventory-catalog/internal/store"
	"inventory-catalog/internal/util"

	"go.uber.org/zap"
)

// CreateCategory adds a category with a unique name
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCategory")
	defer span.End()
	defer observe("create_category", time.Now())

	name = strings.TrimSpace(name)
	if name == "" {
		err := &ValidationError{Field: "name", Message: "is required"}
		s.fail(span, "create_category", err)
		return nil, err
	}

	if err := s.checkCategoryName(ctx, 0, name); err != nil {
		s.fail(span, "create_category", err)
		return nil, err
	}

	category := &models.Category{Name: name}
	if _, err := s.store.AddCategory(ctx, category); err != nil {
		s.fail(span, "create_category", err)
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	util.CategoryMutationsTotal.WithLabelValues("create").Inc()
	s.logger.Info("Category created", zap.Int64("category_id", category.ID), zap.String("name", name))
	return category, nil
}

// RenameCategory changes a category's name. Products keep their old category string.
func (s *CatalogService) RenameCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.RenameCategory")
	defer span.End()
	defer observe("rename_category", time.Now())

	name = strings.TrimSpace(name)
	if name == "" {
		err := &ValidationError{Field: "name", Message: "is required"}
		s.fail(span, "rename_category", err)
		return nil, err
	}

	if err := s.checkCategoryName(ctx, id, name); err != nil {
		s.fail(span, "rename_category", err)
		return nil, err
	}

	category := &models.Category{ID: id, Name: name}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		s.fail(span, "rename_category", err)
		return nil, fmt.Errorf("failed to rename category %d: %w", id, err)
	}

	util.CategoryMutationsTotal.WithLabelValues("rename").Inc()
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCategory")
	defer span.End()
	defer observe("delete_category", time.Now())

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		s.fail(span, "delete_category", err)
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}

	util.CategoryMutationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}

// GetCategory returns a category by id
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	if category == nil {
		return nil, fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	return category, nil
}

// ListCategories returns categories alphabetically with their product counts
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.CategoryWithCount, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListCategories")
	defer span.End()

	categories, err := s.store.GetCategoriesWithProductCount(ctx)
	if err != nil {
		s.fail(span, "list_categories", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// checkCategoryName rejects a name already held by a category other than id.
// The UNIQUE constraint still catches a concurrent writer.
func (s *CatalogService) checkCategoryName(ctx context.Context, id int64, name string) error {
	existing, err := s.store.GetCategoryByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if existing != nil && existing.ID != id {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("%q already exists", name)}
	}
	return nil
}
