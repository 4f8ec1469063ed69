package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"inventory-catalog/config"
	"inventory-catalog/internal/pricing"
	"inventory-catalog/internal/service"
	"inventory-catalog/internal/store"
	"inventory-catalog/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// commands annotated with noStore run without opening the database
const noStore = "no-store"

type app struct {
	cfg     *config.Config
	out     io.Writer
	store   *store.Store
	svc     *service.CatalogService
	started bool
}

func newApp(cfg *config.Config, out io.Writer) *app {
	st := store.NewStore(cfg.Catalog.DBPath)
	return &app{
		cfg:   cfg,
		out:   out,
		store: st,
		svc:   service.NewCatalogService(st, cfg.Catalog.EnforceGSTSlabs),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage the local product catalog",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.started = true
			if cmd.Annotations[noStore] != "" {
				return nil
			}
			return a.store.Init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Close(); err != nil {
				return err
			}
			if path := a.cfg.Observ.MetricsTextfile; path != "" {
				if err := util.WriteMetrics(path); err != nil {
					util.GetLogger().Warn("Failed to write metrics", zap.String("path", path), zap.Error(err))
				}
			}
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create or upgrade the catalog database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.print(map[string]string{"status": "ready", "path": a.cfg.Catalog.DBPath})
			},
		},
		newProductCmd(a),
		newImageCmd(a),
		newCategoryCmd(a),
		newPriceCmd(a),
	)

	return root
}

func newPriceCmd(a *app) *cobra.Command {
	var price float64
	var discount, gst optionalFloat

	cmd := &cobra.Command{
		Use:         "price",
		Short:       "Compute the final price of an item",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(map[string]interface{}{
				"pricing":             pricing.ComputeFinalPrice(price, discount.ptr(), gst.ptr()),
				"discount_percentage": pricing.DiscountPercentage(price, discount.ptr()),
			})
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "list price")
	cmd.Flags().Var(&discount, "discount", "discounted price")
	cmd.Flags().Var(&gst, "gst", "GST percentage")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg, field string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: field, Message: fmt.Sprintf("must be a positive integer, got %q", arg)}
	}
	return id, nil
}

// optionalFloat is a float flag that distinguishes "not given" from 0.
type optionalFloat struct {
	value float64
	set   bool
}

var _ pflag.Value = (*optionalFloat)(nil)

func (f *optionalFloat) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

func (f *optionalFloat) Type() string { return "float" }

func (f *optionalFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}
