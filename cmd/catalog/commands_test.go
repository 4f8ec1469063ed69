package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"inventory-catalog/config"
	"inventory-catalog/internal/models"
	"inventory-catalog/internal/service"
	"inventory-catalog/internal/store"
	"inventory-catalog/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	util.SetLogger(zap.NewNop())

	return &config.Config{
		App: config.AppConfig{Env: "test"},
		Catalog: config.CatalogConfig{
			DBPath:          filepath.Join(t.TempDir(), "catalog.db"),
			EnforceGSTSlabs: true,
			PageSize:        20,
		},
	}
}

// execute runs one command line against a fresh command tree, the way each
// process invocation would.
func execute(t *testing.T, cfg *config.Config, args ...string) ([]byte, error) {
	t.Helper()

	var out bytes.Buffer
	a := newApp(cfg, &out)
	defer a.store.Close()

	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.Bytes(), err
}

func mustExecute(t *testing.T, cfg *config.Config, v interface{}, args ...string) {
	t.Helper()

	out, err := execute(t, cfg, args...)
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, json.Unmarshal(out, v), string(out))
	}
}

func TestPriceCommand(t *testing.T) {
	cfg := testConfig(t)

	var result struct {
		Pricing            map[string]decimal.Decimal `json:"pricing"`
		DiscountPercentage int                        `json:"discount_percentage"`
	}
	mustExecute(t, cfg, &result, "price", "--price", "100", "--discount", "80", "--gst", "18")

	assert.True(t, result.Pricing["base_price"].Equal(decimal.NewFromInt(80)))
	assert.True(t, result.Pricing["gst_amount"].Equal(decimal.RequireFromString("14.4")))
	assert.True(t, result.Pricing["final_price"].Equal(decimal.RequireFromString("94.4")))
	assert.Equal(t, 20, result.DiscountPercentage)

	// price never touches the database
	_, err := os.Stat(cfg.Catalog.DBPath)
	assert.True(t, os.IsNotExist(err))

	_, err = execute(t, cfg, "price")
	assert.Error(t, err)
}

func TestProductLifecycle(t *testing.T) {
	cfg := testConfig(t)

	var created service.ProductView
	mustExecute(t, cfg, &created, "product", "add",
		"--name", "Widget", "--category", "Tools", "--price", "100", "--gst", "18",
		"--image", "file:///a.jpg", "--image", "file:///b.jpg")
	require.NotZero(t, created.ID)
	assert.Equal(t, []string{"file:///a.jpg", "file:///b.jpg"}, created.Images)
	assert.True(t, created.Pricing.FinalPrice.Equal(decimal.NewFromInt(118)))

	var updated service.ProductView
	mustExecute(t, cfg, &updated, "product", "update", "1", "--quantity", "4", "--discount", "90")
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, 10, updated.DiscountPercentage)
	assert.Equal(t, []string{"file:///a.jpg", "file:///b.jpg"}, updated.Images)

	var shown service.ProductView
	mustExecute(t, cfg, &shown, "product", "show", "1")
	assert.Equal(t, 4, shown.Quantity)

	mustExecute(t, cfg, nil, "product", "add", "--name", "Gadget", "--category", "Toys", "--price", "20")

	var page service.ProductPage
	mustExecute(t, cfg, &page, "product", "list", "--sort", "price_asc")
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Gadget", page.Items[0].Name)

	page = service.ProductPage{}
	mustExecute(t, cfg, &page, "product", "search", "wid")
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Widget", page.Items[0].Name)

	var cleared service.ProductView
	mustExecute(t, cfg, &cleared, "product", "update", "1", "--clear-images")
	assert.Empty(t, cleared.Images)

	mustExecute(t, cfg, nil, "product", "delete", "1")

	_, err := execute(t, cfg, "product", "show", "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImageCommands(t *testing.T) {
	cfg := testConfig(t)

	mustExecute(t, cfg, nil, "product", "add", "--name", "Widget", "--category", "Tools", "--price", "10",
		"--image", "file:///a.jpg")

	var img models.ProductImage
	mustExecute(t, cfg, &img, "image", "add", "1", "file:///b.jpg", "--primary")
	assert.True(t, img.IsPrimary)
	assert.Equal(t, 1, img.DisplayOrder)

	mustExecute(t, cfg, nil, "image", "reorder", "2", "0")
	mustExecute(t, cfg, nil, "image", "primary", "1", "1")

	var images []models.ProductImage
	mustExecute(t, cfg, &images, "image", "list", "1")
	require.Len(t, images, 2)
	assert.True(t, images[0].IsPrimary)
	assert.Equal(t, "file:///a.jpg", images[0].ImageURI)

	mustExecute(t, cfg, nil, "image", "delete", "1")

	var shown service.ProductView
	mustExecute(t, cfg, &shown, "product", "show", "1")
	assert.Equal(t, "file:///b.jpg", shown.PrimaryImageURI())
}

func TestCategoryCommands(t *testing.T) {
	cfg := testConfig(t)

	var category models.Category
	mustExecute(t, cfg, &category, "category", "add", "Tools")
	assert.Equal(t, "Tools", category.Name)

	_, err := execute(t, cfg, "category", "add", "Tools")
	require.Error(t, err)
	assert.Equal(t, `name "Tools" already exists`, service.UserMessage(err, false))

	mustExecute(t, cfg, nil, "product", "add", "--name", "Hammer", "--category", "Tools", "--price", "10")

	var listed []models.CategoryWithCount
	mustExecute(t, cfg, &listed, "category", "list")
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].ProductCount)

	mustExecute(t, cfg, &category, "category", "rename", "1", "Hand tools")
	assert.Equal(t, "Hand tools", category.Name)

	mustExecute(t, cfg, nil, "category", "delete", "1")
}

func TestInvalidInput(t *testing.T) {
	cfg := testConfig(t)

	_, err := execute(t, cfg, "product", "show", "abc")
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, `id must be a positive integer, got "abc"`, service.UserMessage(err, false))

	_, err = execute(t, cfg, "product", "add", "--name", "Widget", "--category", "Tools", "--price", "10", "--gst", "7")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "gst_slab", ve.Field)
}

func TestInitWritesMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observ.MetricsTextfile = filepath.Join(t.TempDir(), "catalog.prom")

	var status map[string]string
	mustExecute(t, cfg, &status, "init")
	assert.Equal(t, "ready", status["status"])

	_, err := os.Stat(cfg.Catalog.DBPath)
	require.NoError(t, err)

	metrics, err := os.ReadFile(cfg.Observ.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "catalog_products_created_total")
}
