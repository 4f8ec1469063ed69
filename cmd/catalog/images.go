package main

import (
	"strconv"

	"inventory-catalog/internal/service"

	"github.com/spf13/cobra"
)

func newImageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage product images one at a time",
	}

	var primary bool
	add := &cobra.Command{
		Use:   "add PRODUCT_ID URI",
		Short: "Append an image to a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0], "product_id")
			if err != nil {
				return err
			}
			img, err := a.svc.AddImage(cmd.Context(), productID, args[1], primary)
			if err != nil {
				return err
			}
			return a.print(img)
		},
	}
	add.Flags().BoolVar(&primary, "primary", false, "make this the primary image")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "delete IMAGE_ID",
			Short: "Remove an image",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				imageID, err := parseID(args[0], "image_id")
				if err != nil {
					return err
				}
				if err := a.svc.DeleteImage(cmd.Context(), imageID); err != nil {
					return err
				}
				return a.print(map[string]int64{"deleted": imageID})
			},
		},
		&cobra.Command{
			Use:   "reorder IMAGE_ID ORDER",
			Short: "Set an image's display order",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				imageID, err := parseID(args[0], "image_id")
				if err != nil {
					return err
				}
				order, err := strconv.Atoi(args[1])
				if err != nil {
					return &service.ValidationError{Field: "display_order", Message: "must be an integer"}
				}
				if err := a.svc.ReorderImage(cmd.Context(), imageID, order); err != nil {
					return err
				}
				return a.print(map[string]interface{}{"image_id": imageID, "display_order": order})
			},
		},
		&cobra.Command{
			Use:   "primary PRODUCT_ID IMAGE_ID",
			Short: "Make an image the product's primary image",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseID(args[0], "product_id")
				if err != nil {
					return err
				}
				imageID, err := parseID(args[1], "image_id")
				if err != nil {
					return err
				}
				if err := a.svc.SetPrimaryImage(cmd.Context(), productID, imageID); err != nil {
					return err
				}
				return a.print(map[string]int64{"product_id": productID, "primary_image_id": imageID})
			},
		},
		&cobra.Command{
			Use:   "list PRODUCT_ID",
			Short: "List a product's images in display order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseID(args[0], "product_id")
				if err != nil {
					return err
				}
				images, err := a.svc.ListImages(cmd.Context(), productID)
				if err != nil {
					return err
				}
				return a.print(images)
			},
		},
	)
	return cmd
}
