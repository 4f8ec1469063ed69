package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"inventory-catalog/internal/models"
	"inventory-catalog/internal/pricing"
	"inventory-catalog/internal/store"
	"inventory-catalog/internal/util"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Sort keys accepted by ListProducts
const (
	SortNewest       = "newest"
	SortNameAsc      = "name_asc"
	SortNameDesc     = "name_desc"
	SortPriceAsc     = "price_asc"
	SortPriceDesc    = "price_desc"
	SortQuantityAsc  = "quantity_asc"
	SortQuantityDesc = "quantity_desc"
)

// CatalogService is the entry point the UI uses for products, categories and images
type CatalogService struct {
	store           *store.Store
	logger          *zap.Logger
	enforceGSTSlabs bool
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, enforceGSTSlabs bool) *CatalogService {
	return &CatalogService{
		store:           store,
		logger:          util.GetLogger(),
		enforceGSTSlabs: enforceGSTSlabs,
	}
}

// ProductInput carries the user-editable product fields
type ProductInput struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	GSTSlab       *float64 `json:"gst_slab,omitempty"`
	Quantity      int      `json:"quantity"`
	Details       *string  `json:"details,omitempty"`
	// Images replaces the image set when non-nil; nil leaves it unchanged on update.
	Images []string `json:"images,omitempty"`
}

// ProductView is a product together with its computed prices
type ProductView struct {
	models.Product
	Pricing            pricing.Breakdown `json:"pricing"`
	DiscountPercentage int               `json:"discount_percentage"`
}

// ListOptions selects, orders and pages products
type ListOptions struct {
	Category string
	Query    string
	Sort     string
	Limit    int
	Offset   int
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Items []ProductView `json:"items"`
	Total int           `json:"total"`
}

// CreateProduct validates and stores a new product
func (s *CatalogService) CreateProduct(ctx context.Context, in *ProductInput) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()
	defer observe("create_product", time.Now())

	if err := s.validateProduct(in); err != nil {
		s.fail(span, "create_product", err)
		return nil, err
	}

	product := in.toModel(0)
	id, err := s.store.AddProduct(ctx, product)
	if err != nil {
		s.fail(span, "create_product", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created", zap.Int64("product_id", id), zap.Int("images", len(product.Images)))

	return s.GetProduct(ctx, id)
}

// UpdateProduct validates and overwrites an existing product
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in *ProductInput) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()
	defer observe("update_product", time.Now())

	if err := s.validateProduct(in); err != nil {
		s.fail(span, "update_product", err)
		return nil, err
	}

	if err := s.store.UpdateProduct(ctx, in.toModel(id)); err != nil {
		s.fail(span, "update_product", err)
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	util.ProductsUpdatedTotal.Inc()
	s.logger.Info("Product updated", zap.Int64("product_id", id), zap.Bool("images_replaced", in.Images != nil))

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product and its images
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()
	defer observe("delete_product", time.Now())

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		s.fail(span, "delete_product", err)
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	util.ProductsDeletedTotal.Inc()
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// GetProduct returns a product with its images and prices
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		s.fail(span, "get_product", err)
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	if product == nil {
		err := fmt.Errorf("product %d: %w", id, store.ErrNotFound)
		s.fail(span, "get_product", err)
		return nil, err
	}

	view := newProductView(*product)
	return &view, nil
}

// ListProducts browses, searches and sorts products. Newest-first listings
// are paged in the database; any other order is applied to the full
// result set before paging.
func (s *CatalogService) ListProducts(ctx context.Context, opts ListOptions) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()
	defer observe("list_products", time.Now())

	if opts.Sort == "" {
		opts.Sort = SortNewest
	}
	less, ok := productOrderings[opts.Sort]
	if !ok && opts.Sort != SortNewest {
		err := &ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort %q", opts.Sort)}
		s.fail(span, "list_products", err)
		return nil, err
	}

	if opts.Sort == SortNewest && opts.Category == "" && opts.Limit > 0 {
		page, err := s.pageNewest(ctx, opts)
		if err != nil {
			s.fail(span, "list_products", err)
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		return page, nil
	}

	products, err := s.snapshot(ctx, opts)
	if err != nil {
		s.fail(span, "list_products", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	if less != nil {
		sort.SliceStable(views, func(i, j int) bool { return less(&views[i], &views[j]) })
	}

	return &ProductPage{Items: paginate(views, opts.Limit, opts.Offset), Total: len(views)}, nil
}

func (s *CatalogService) pageNewest(ctx context.Context, opts ListOptions) (*ProductPage, error) {
	var (
		products []models.Product
		total    int
		err      error
	)
	if q := strings.TrimSpace(opts.Query); q != "" {
		if products, err = s.store.SearchProductsPage(ctx, q, opts.Limit, opts.Offset); err != nil {
			return nil, err
		}
		total, err = s.store.CountSearchResults(ctx, q)
	} else {
		if products, err = s.store.GetProductsPage(ctx, opts.Limit, opts.Offset); err != nil {
			return nil, err
		}
		total, err = s.store.GetProductCount(ctx)
	}
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return &ProductPage{Items: views, Total: total}, nil
}

func (s *CatalogService) snapshot(ctx context.Context, opts ListOptions) ([]models.Product, error) {
	q := strings.TrimSpace(opts.Query)
	switch {
	case q != "" && opts.Category != "":
		found, err := s.store.SearchProducts(ctx, q)
		if err != nil {
			return nil, err
		}
		filtered := found[:0]
		for _, p := range found {
			if p.Category == opts.Category {
				filtered = append(filtered, p)
			}
		}
		return filtered, nil
	case q != "":
		return s.store.SearchProducts(ctx, q)
	case opts.Category != "":
		return s.store.GetProductsByCategory(ctx, opts.Category)
	default:
		return s.store.GetProducts(ctx)
	}
}

var productOrderings = map[string]func(a, b *ProductView) bool{
	SortNameAsc: func(a, b *ProductView) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	},
	SortNameDesc: func(a, b *ProductView) bool {
		return strings.ToLower(a.Name) > strings.ToLower(b.Name)
	},
	SortPriceAsc: func(a, b *ProductView) bool {
		return a.Pricing.FinalPrice.LessThan(b.Pricing.FinalPrice)
	},
	SortPriceDesc: func(a, b *ProductView) bool {
		return a.Pricing.FinalPrice.GreaterThan(b.Pricing.FinalPrice)
	},
	SortQuantityAsc: func(a, b *ProductView) bool {
		return a.Quantity < b.Quantity
	},
	SortQuantityDesc: func(a, b *ProductView) bool {
		return a.Quantity > b.Quantity
	},
}

func paginate(views []ProductView, limit, offset int) []ProductView {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(views) {
		return []ProductView{}
	}
	views = views[offset:]
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views
}

func newProductView(p models.Product) ProductView {
	return ProductView{
		Product:            p,
		Pricing:            pricing.ComputeFinalPrice(p.Price, p.DiscountPrice, p.GSTSlab),
		DiscountPercentage: pricing.DiscountPercentage(p.Price, p.DiscountPrice),
	}
}

func (in *ProductInput) toModel(id int64) *models.Product {
	return &models.Product{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Category:      strings.TrimSpace(in.Category),
		Price:         in.Price,
		DiscountPrice: in.DiscountPrice,
		GSTSlab:       in.GSTSlab,
		Quantity:      in.Quantity,
		Details:       in.Details,
		Images:        in.Images,
	}
}

func (s *CatalogService) validateProduct(in *ProductInput) error {
	if in == nil {
		return &ValidationError{Field: "product", Message: "is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Message: "is required"}
	}
	if in.Price <= 0 {
		return &ValidationError{Field: "price", Message: "must be greater than 0"}
	}
	if in.DiscountPrice != nil {
		if *in.DiscountPrice < 0 {
			return &ValidationError{Field: "discount_price", Message: "must not be negative"}
		}
		if *in.DiscountPrice >= in.Price {
			return &ValidationError{Field: "discount_price", Message: "must be less than price"}
		}
	}
	if in.GSTSlab != nil && s.enforceGSTSlabs && !pricing.IsValidGSTSlab(*in.GSTSlab) {
		return &ValidationError{
			Field:   "gst_slab",
			Message: fmt.Sprintf("must be one of %v", pricing.GSTSlabs),
		}
	}
	if in.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	return nil
}

// fail records a failed operation on the span and in the failure counter.
func (s *CatalogService) fail(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	reason := failureReason(err)
	util.OperationsFailedTotal.WithLabelValues(op, reason).Inc()
	if reason != "validation" && reason != "not_found" {
		s.logger.Error("Catalog operation failed", zap.String("op", op), zap.Error(err))
	}
}

func failureReason(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrNotInitialized):
		return "not_initialized"
	case store.IsConstraintViolation(err):
		return "constraint"
	default:
		return "storage"
	}
}

func observe(op string, start time.Time) {
	util.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
