package main

import (
	"inventory-catalog/internal/service"

	"github.com/spf13/cobra"
)

type productFlags struct {
	name        string
	category    string
	price       float64
	discount    optionalFloat
	gst         optionalFloat
	quantity    int
	details     string
	images      []string
	clearImages bool
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.category, "category", "", "category name")
	cmd.Flags().Float64Var(&f.price, "price", 0, "list price")
	cmd.Flags().Var(&f.discount, "discount", "discounted price")
	cmd.Flags().Var(&f.gst, "gst", "GST slab percentage (0, 5, 12, 18, 28)")
	cmd.Flags().IntVar(&f.quantity, "quantity", 0, "units in stock")
	cmd.Flags().StringVar(&f.details, "details", "", "free-text details")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "image URI, repeatable; the first is primary")
}

// apply copies the flags the user actually set onto in.
func (f *productFlags) apply(cmd *cobra.Command, in *service.ProductInput) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = f.name
	}
	if flags.Changed("category") {
		in.Category = f.category
	}
	if flags.Changed("price") {
		in.Price = f.price
	}
	if flags.Changed("discount") {
		in.DiscountPrice = f.discount.ptr()
	}
	if flags.Changed("gst") {
		in.GSTSlab = f.gst.ptr()
	}
	if flags.Changed("quantity") {
		in.Quantity = f.quantity
	}
	if flags.Changed("details") {
		details := f.details
		in.Details = &details
	}
	if flags.Changed("image") {
		in.Images = f.images
	}
	if f.clearImages {
		in.Images = []string{}
	}
}

func newProductCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Add, edit and browse products",
	}
	cmd.AddCommand(
		newProductAddCmd(a),
		newProductUpdateCmd(a),
		newProductDeleteCmd(a),
		newProductShowCmd(a),
		newProductListCmd(a),
		newProductSearchCmd(a),
	)
	return cmd
}

func newProductAddCmd(a *app) *cobra.Command {
	var f productFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in service.ProductInput
			f.apply(cmd, &in)

			view, err := a.svc.CreateProduct(cmd.Context(), &in)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
	f.register(cmd)
	return cmd
}

func newProductUpdateCmd(a *app) *cobra.Command {
	var f productFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a product; only the given flags are modified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "id")
			if err != nil {
				return err
			}

			current, err := a.svc.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}

			in := service.ProductInput{
				Name:          current.Name,
				Category:      current.Category,
				Price:         current.Price,
				DiscountPrice: current.DiscountPrice,
				GSTSlab:       current.GSTSlab,
				Quantity:      current.Quantity,
				Details:       current.Details,
			}
			f.apply(cmd, &in)

			view, err := a.svc.UpdateProduct(cmd.Context(), id, &in)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.clearImages, "clear-images", false, "remove all images")
	return cmd
}

func newProductDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "id")
			if err != nil {
				return err
			}
			if err := a.svc.DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			return a.print(map[string]int64{"deleted": id})
		},
	}
}

func newProductShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a product with its images and prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "id")
			if err != nil {
				return err
			}
			view, err := a.svc.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func newProductListCmd(a *app) *cobra.Command {
	var opts service.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.svc.ListProducts(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return a.print(page)
		},
	}
	registerListFlags(cmd, &opts, a.cfg.Catalog.PageSize)
	cmd.Flags().StringVar(&opts.Category, "category", "", "only products in this category")
	return cmd
}

func newProductSearchCmd(a *app) *cobra.Command {
	var opts service.ListOptions
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find products by name, category or details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = args[0]
			page, err := a.svc.ListProducts(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return a.print(page)
		},
	}
	registerListFlags(cmd, &opts, a.cfg.Catalog.PageSize)
	return cmd
}

func registerListFlags(cmd *cobra.Command, opts *service.ListOptions, pageSize int) {
	cmd.Flags().StringVar(&opts.Sort, "sort", service.SortNewest,
		"newest, name_asc, name_desc, price_asc, price_desc, quantity_asc or quantity_desc")
	cmd.Flags().IntVar(&opts.Limit, "limit", pageSize, "page size; 0 lists everything")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of products to skip")
}
