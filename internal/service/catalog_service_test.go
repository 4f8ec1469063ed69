package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"inventory-catalog/internal/store"
	"inventory-catalog/internal/util"

	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T, enforceGSTSlabs bool) *CatalogService {
	t.Helper()

	util.SetLogger(zap.NewNop())

	st := store.NewStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(func() { st.Close() })

	return NewCatalogService(st, enforceGSTSlabs)
}

func validInput(name string) *ProductInput {
	return &ProductInput{Name: name, Category: "Tools", Price: 100}
}

func TestCreateProduct(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	before := testutil.ToFloat64(util.ProductsCreatedTotal)

	view, err := svc.CreateProduct(ctx, &ProductInput{
		Name:          "  Widget ",
		Category:      "Tools",
		Price:         100,
		DiscountPrice: ptr(80.0),
		GSTSlab:       ptr(18.0),
		Quantity:      5,
		Images:        []string{"file:///a.jpg", "file:///b.jpg"},
	})
	require.NoError(t, err)

	assert.NotZero(t, view.ID)
	assert.Equal(t, "Widget", view.Name)
	assert.Equal(t, []string{"file:///a.jpg", "file:///b.jpg"}, view.Images)
	assert.Equal(t, "file:///a.jpg", view.PrimaryImageURI())
	assert.True(t, view.Pricing.FinalPrice.Equal(decimal.RequireFromString("94.4")))
	assert.Equal(t, 20, view.DiscountPercentage)

	assert.Equal(t, before+1, testutil.ToFloat64(util.ProductsCreatedTotal))
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	tests := []struct {
		name  string
		input *ProductInput
		field string
	}{
		{"nil input", nil, "product"},
		{"blank name", &ProductInput{Name: "  ", Category: "Tools", Price: 1}, "name"},
		{"blank category", &ProductInput{Name: "Widget", Price: 1}, "category"},
		{"zero price", &ProductInput{Name: "Widget", Category: "Tools"}, "price"},
		{"negative discount", &ProductInput{Name: "Widget", Category: "Tools", Price: 10, DiscountPrice: ptr(-1.0)}, "discount_price"},
		{"discount equal to price", &ProductInput{Name: "Widget", Category: "Tools", Price: 10, DiscountPrice: ptr(10.0)}, "discount_price"},
		{"unknown gst slab", &ProductInput{Name: "Widget", Category: "Tools", Price: 10, GSTSlab: ptr(10.0)}, "gst_slab"},
		{"negative quantity", &ProductInput{Name: "Widget", Category: "Tools", Price: 10, Quantity: -1}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed := util.OperationsFailedTotal.WithLabelValues("create_product", "validation")
			before := testutil.ToFloat64(failed)

			_, err := svc.CreateProduct(ctx, tt.input)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, before+1, testutil.ToFloat64(failed))
		})
	}

	page, err := svc.ListProducts(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestGSTSlabEnforcementCanBeDisabled(t *testing.T) {
	svc := newTestService(t, false)

	in := validInput("Widget")
	in.GSTSlab = ptr(10.0)

	view, err := svc.CreateProduct(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, view.Pricing.FinalPrice.Equal(decimal.NewFromInt(110)))
}

func TestUpdateProduct(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	in := validInput("Widget")
	in.Images = []string{"file:///a.jpg"}
	created, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, created.ID, &ProductInput{Name: "Widget", Category: "Tools", Price: 150, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Price)
	assert.Equal(t, 2, updated.Quantity)
	assert.Equal(t, []string{"file:///a.jpg"}, updated.Images)

	cleared, err := svc.UpdateProduct(ctx, created.ID, &ProductInput{Name: "Widget", Category: "Tools", Price: 150, Images: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Images)
	assert.Nil(t, cleared.ImageURI)

	_, err = svc.UpdateProduct(ctx, 999, validInput("Ghost"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetAndDeleteProduct(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, validInput("Widget"))
	require.NoError(t, err)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.DeleteProduct(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, GenericFailureMessage, UserMessage(err, false))
}

func TestListProducts(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	// final prices: Widget 94.4, Gadget 50, Gizmo 210
	inputs := []*ProductInput{
		{Name: "Widget", Category: "Tools", Price: 100, DiscountPrice: ptr(80.0), GSTSlab: ptr(18.0), Quantity: 7},
		{Name: "gadget", Category: "Toys", Price: 50, Quantity: 1},
		{Name: "Gizmo", Category: "Tools", Price: 200, GSTSlab: ptr(5.0), Quantity: 3},
	}
	for _, in := range inputs {
		_, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	names := func(page *ProductPage) []string {
		var out []string
		for _, v := range page.Items {
			out = append(out, v.Name)
		}
		return out
	}

	tests := []struct {
		name  string
		opts  ListOptions
		want  []string
		total int
	}{
		{"newest first", ListOptions{}, []string{"Gizmo", "gadget", "Widget"}, 3},
		{"newest paged", ListOptions{Limit: 2, Offset: 1}, []string{"gadget", "Widget"}, 3},
		{"name ascending ignores case", ListOptions{Sort: SortNameAsc}, []string{"gadget", "Gizmo", "Widget"}, 3},
		{"name descending", ListOptions{Sort: SortNameDesc}, []string{"Widget", "Gizmo", "gadget"}, 3},
		{"final price ascending", ListOptions{Sort: SortPriceAsc}, []string{"gadget", "Widget", "Gizmo"}, 3},
		{"final price descending", ListOptions{Sort: SortPriceDesc}, []string{"Gizmo", "Widget", "gadget"}, 3},
		{"quantity ascending", ListOptions{Sort: SortQuantityAsc}, []string{"gadget", "Gizmo", "Widget"}, 3},
		{"quantity descending paged", ListOptions{Sort: SortQuantityDesc, Limit: 1}, []string{"Widget"}, 3},
		{"category", ListOptions{Category: "Tools"}, []string{"Gizmo", "Widget"}, 2},
		{"search", ListOptions{Query: "dget"}, []string{"gadget", "Widget"}, 2},
		{"search paged", ListOptions{Query: "dget", Limit: 1, Offset: 1}, []string{"Widget"}, 2},
		{"search within category", ListOptions{Query: "dget", Category: "Tools"}, []string{"Widget"}, 1},
		{"offset past the end", ListOptions{Sort: SortNameAsc, Offset: 10}, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListProducts(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(page))
			assert.Equal(t, tt.total, page.Total)
		})
	}

	_, err := svc.ListProducts(ctx, ListOptions{Sort: "cheapest"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sort", ve.Field)
}

func TestCategories(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	tools, err := svc.CreateCategory(ctx, " Tools ")
	require.NoError(t, err)
	assert.Equal(t, "Tools", tools.Name)

	_, err = svc.CreateCategory(ctx, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	rejected := util.OperationsFailedTotal.WithLabelValues("create_category", "validation")
	before := testutil.ToFloat64(rejected)
	_, err = svc.CreateCategory(ctx, "Tools")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, `name "Tools" already exists`, UserMessage(err, false))
	assert.Equal(t, before+1, testutil.ToFloat64(rejected))

	garden, err := svc.CreateCategory(ctx, "Garden")
	require.NoError(t, err)

	_, err = svc.RenameCategory(ctx, garden.ID, "Tools")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	// keeping its own name is not a conflict
	same, err := svc.RenameCategory(ctx, garden.ID, "Garden")
	require.NoError(t, err)
	assert.Equal(t, "Garden", same.Name)
	require.NoError(t, svc.DeleteCategory(ctx, garden.ID))

	_, err = svc.CreateProduct(ctx, validInput("Hammer"))
	require.NoError(t, err)

	listed, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].ProductCount)

	renamed, err := svc.RenameCategory(ctx, tools.ID, "Hand tools")
	require.NoError(t, err)
	assert.Equal(t, "Hand tools", renamed.Name)

	_, err = svc.RenameCategory(ctx, 999, "Nothing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, svc.DeleteCategory(ctx, tools.ID))
	_, err = svc.GetCategory(ctx, tools.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImages(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	in := validInput("Widget")
	in.Images = []string{"file:///a.jpg"}
	product, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)

	_, err = svc.AddImage(ctx, product.ID, "   ", false)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "image_uri", ve.Field)

	added, err := svc.AddImage(ctx, product.ID, "file:///b.jpg", false)
	require.NoError(t, err)
	assert.Equal(t, 1, added.DisplayOrder)

	require.NoError(t, svc.SetPrimaryImage(ctx, product.ID, added.ID))
	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "file:///b.jpg", got.PrimaryImageURI())

	err = svc.ReorderImage(ctx, added.ID, -1)
	require.ErrorAs(t, err, &ve)
	require.NoError(t, svc.ReorderImage(ctx, added.ID, 0))

	images, err := svc.ListImages(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	// equal display orders fall back to insertion order
	assert.Equal(t, "file:///a.jpg", images[0].ImageURI)

	require.NoError(t, svc.DeleteImage(ctx, added.ID))
	got, err = svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "file:///a.jpg", got.PrimaryImageURI())

	_, err = svc.AddImage(ctx, 999, "file:///x.jpg", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFailedOperationsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp, err := util.InitTracer("catalog-test", recorder)
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	svc := newTestService(t, true)
	_, err = svc.GetProduct(context.Background(), 42)
	require.Error(t, err)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)

	last := spans[len(spans)-1]
	assert.Equal(t, "CatalogService.GetProduct", last.Name())
	assert.Equal(t, codes.Error, last.Status().Code)
	require.NotEmpty(t, last.Events())
	assert.Equal(t, "exception", last.Events()[0].Name)
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ValidationError{Field: "name", Message: "is required"}, "validation"},
		{fmt.Errorf("product 1: %w", store.ErrNotFound), "not_found"},
		{store.ErrNotInitialized, "not_initialized"},
		{fmt.Errorf("failed to create category: %w", sqlite3.Error{Code: sqlite3.ErrConstraint}), "constraint"},
		{errors.New("disk I/O error"), "storage"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, failureReason(tt.err), tt.err.Error())
	}
}

func TestUserMessage(t *testing.T) {
	storageErr := fmt.Errorf("failed to list products: %w", errors.New("database is locked"))
	validationErr := fmt.Errorf("wrapped: %w", &ValidationError{Field: "price", Message: "must be greater than 0"})

	assert.Equal(t, "", UserMessage(nil, false))
	assert.Equal(t, "price must be greater than 0", UserMessage(validationErr, false))
	assert.Equal(t, GenericFailureMessage, UserMessage(storageErr, false))
	assert.Equal(t, "failed to list products: database is locked", UserMessage(storageErr, true))
}
