package main

import "github.com/spf13/cobra"

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				category, err := a.svc.CreateCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(category)
			},
		},
		&cobra.Command{
			Use:   "rename ID NAME",
			Short: "Rename a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "id")
				if err != nil {
					return err
				}
				category, err := a.svc.RenameCategory(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				return a.print(category)
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a category; products keep their category text",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "id")
				if err != nil {
					return err
				}
				if err := a.svc.DeleteCategory(cmd.Context(), id); err != nil {
					return err
				}
				return a.print(map[string]int64{"deleted": id})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories with product counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				categories, err := a.svc.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(categories)
			},
		},
	)
	return cmd
}
