package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/internal/client"
	"github.com/shashiranjanraj/canteen/pkg/catalog"
	"github.com/shashiranjanraj/canteen/pkg/order"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Back-office commands (admin accounts only)",
}

// canteen admin orders [--status --page]
var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List every customer's orders",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		page, err := c.Orders.All(ctx, queryFromFlags())
		if err != nil {
			return err
		}
		return printOrders(cmd.OutOrStdout(), page, true)
	}),
}

// canteen admin advance <id>
var adminAdvanceCmd = &cobra.Command{
	Use:   "advance <id>",
	Short: "Move an order to its next stage (paid → delivering → completed)",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
		o, err := fetchOrder(ctx, c, args[0])
		if err != nil {
			return err
		}
		from := o.Status
		if err := c.Orders.Advance(ctx, o); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order %d: %s → %s\n", o.ID, order.Label(from), order.Label(o.Status))
		return nil
	}),
}

var adminDishCmd = &cobra.Command{
	Use:   "dish",
	Short: "Create, update or delete dishes",
}

var (
	dishCategoryFlag int64
	dishNameFlag     string
	dishDescFlag     string
	dishPriceFlag    string
	dishImageFlag    string
	dishStatusFlag   int
	dishSortFlag     int
)

// canteen admin dish create --category --name --price
var adminDishCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a dish to the menu",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		price, err := decimal.NewFromString(dishPriceFlag)
		if err != nil {
			return fmt.Errorf("invalid price %q", dishPriceFlag)
		}
		in := catalog.DishInput{
			CategoryID:  dishCategoryFlag,
			Name:        dishNameFlag,
			Description: dishDescFlag,
			Price:       price,
			ImageURL:    dishImageFlag,
			SortOrder:   dishSortFlag,
		}
		if cmd.Flags().Changed("status") {
			in.Status = &dishStatusFlag
		}
		id, err := c.Catalog.CreateDish(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dish %d created.\n", id)
		return nil
	}),
}

// canteen admin dish update <id> [flags]; only the given flags are sent.
var adminDishUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a dish",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var p catalog.DishPatch
		flags := cmd.Flags()
		if flags.Changed("category") {
			p.CategoryID = &dishCategoryFlag
		}
		if flags.Changed("name") {
			p.Name = &dishNameFlag
		}
		if flags.Changed("description") {
			p.Description = &dishDescFlag
		}
		if flags.Changed("price") {
			price, err := decimal.NewFromString(dishPriceFlag)
			if err != nil {
				return fmt.Errorf("invalid price %q", dishPriceFlag)
			}
			p.Price = &price
		}
		if flags.Changed("image") {
			p.ImageURL = &dishImageFlag
		}
		if flags.Changed("status") {
			p.Status = &dishStatusFlag
		}
		if flags.Changed("sort") {
			p.SortOrder = &dishSortFlag
		}
		return c.Catalog.UpdateDish(ctx, id, p)
	}),
}

// canteen admin dish delete <id>
var adminDishDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a dish from the menu",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, _ *cobra.Command, c *client.Client, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return c.Catalog.DeleteDish(ctx, id)
	}),
}

// canteen admin users [--page]
var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List customer accounts",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		page, err := c.Account.Users(ctx, pageFlag, pageSizeFlag)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNICKNAME\tPHONE\tJOINED")
		for _, m := range page.List {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ID, m.Username, m.Nickname, m.Phone, m.CreatedAt.Format("2006-01-02"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d\n", page.Page, len(page.List), page.Total)
		return nil
	}),
}

// canteen admin stats
var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard figures",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		ov, err := c.Stats.Overview(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Customers:     %d\n", ov.UserCount)
		fmt.Fprintf(out, "Orders:        %d (%d today)\n", ov.OrderCount, ov.TodayOrderCount)
		fmt.Fprintf(out, "Sales:         %s (%s today)\n", ov.TotalSales.StringFixed(2), ov.TodaySales.StringFixed(2))
		if len(ov.HotDishes) > 0 {
			fmt.Fprintln(out, "Best sellers:")
			for i, d := range ov.HotDishes {
				fmt.Fprintf(out, "  %d. %s (%d sold)\n", i+1, d.Name, d.Sales)
			}
		}
		return nil
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{adminDishCreateCmd, adminDishUpdateCmd} {
		f := cmd.Flags()
		f.Int64Var(&dishCategoryFlag, "category", 0, "category id")
		f.StringVar(&dishNameFlag, "name", "", "dish name")
		f.StringVar(&dishDescFlag, "description", "", "description")
		f.StringVar(&dishPriceFlag, "price", "", "unit price, e.g. 12.50")
		f.StringVar(&dishImageFlag, "image", "", "image URL")
		f.IntVar(&dishStatusFlag, "status", 1, "1 on sale, 0 off sale")
		f.IntVar(&dishSortFlag, "sort", 0, "menu position")
	}
	_ = adminDishCreateCmd.MarkFlagRequired("category")
	_ = adminDishCreateCmd.MarkFlagRequired("name")
	_ = adminDishCreateCmd.MarkFlagRequired("price")

	adminUsersCmd.Flags().IntVar(&pageFlag, "page", 1, "page number")
	adminUsersCmd.Flags().IntVar(&pageSizeFlag, "page-size", 10, "accounts per page")

	adminDishCmd.AddCommand(adminDishCreateCmd, adminDishUpdateCmd, adminDishDeleteCmd)
	adminCmd.AddCommand(adminOrdersCmd, adminAdvanceCmd, adminDishCmd, adminUsersCmd, adminStatsCmd)
}
