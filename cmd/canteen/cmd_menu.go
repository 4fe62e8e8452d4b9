package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/internal/client"
)

var (
	categoryFlag int64
	refreshFlag  bool
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Browse categories and dishes",
}

// canteen menu categories
var menuCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List menu categories",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		if refreshFlag {
			if err := c.Catalog.Invalidate(ctx); err != nil {
				return err
			}
		}
		cats, err := c.Catalog.Categories(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, cat := range cats {
			fmt.Fprintf(w, "%d\t%s\n", cat.ID, cat.Name)
		}
		return w.Flush()
	}),
}

// canteen menu dishes [--category N]
var menuDishesCmd = &cobra.Command{
	Use:   "dishes",
	Short: "List on-sale dishes, optionally of one category",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		if refreshFlag {
			if err := c.Catalog.Invalidate(ctx); err != nil {
				return err
			}
		}
		dishes, err := c.Catalog.Dishes(ctx, categoryFlag)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tIN CART")
		for _, d := range dishes {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", d.ID, d.Name, d.CategoryName, d.Price.StringFixed(2), c.Cart.Quantity(d.ID))
		}
		return w.Flush()
	}),
}

// canteen menu dish <id>
var menuDishCmd = &cobra.Command{
	Use:   "dish <id>",
	Short: "Show one dish",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		d, err := c.Catalog.Dish(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n%s\n", d.Name, d.Price.StringFixed(2), d.Description)
		return nil
	}),
}

func init() {
	menuCmd.PersistentFlags().BoolVar(&refreshFlag, "refresh", false, "drop the cached menu first")
	menuDishesCmd.Flags().Int64Var(&categoryFlag, "category", 0, "category id (0 for all)")
	menuCmd.AddCommand(menuCategoriesCmd, menuDishesCmd, menuDishCmd)
}
