package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/internal/client"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	"github.com/shashiranjanraj/canteen/pkg/order"
)

var (
	remarkFlag   string
	statusFlag   int
	pageFlag     int
	pageSizeFlag int
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place and track your orders",
}

// canteen order submit [--remark]
var orderSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Turn the cart into an order",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		rc, err := c.Orders.Submit(ctx, remarkFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order %s (id %d) placed.\n", rc.OrderNo, rc.ID)
		return nil
	}),
}

// canteen order list [--status --page]
var orderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders, newest first",
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		page, err := c.Orders.Mine(ctx, queryFromFlags())
		if err != nil {
			return err
		}
		return printOrders(cmd.OutOrStdout(), page, false)
	}),
}

// canteen order show <id>
var orderShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an order with its lines and next steps",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
		o, err := fetchOrder(ctx, c, args[0])
		if err != nil {
			return err
		}
		printOrder(cmd.OutOrStdout(), o, order.AllowedTransitions(o.Status, c.Session.Role()))
		return nil
	}),
}

// transitionCmd loads the order, applies ev and prints the new status.
func transitionCmd(use, short string, ev order.Event) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
			o, err := fetchOrder(ctx, c, args[0])
			if err != nil {
				return err
			}
			if err := c.Orders.Apply(ctx, o, ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %d is now %s.\n", o.ID, order.Label(o.Status))
			return nil
		}),
	}
}

var (
	orderCancelCmd = transitionCmd("cancel", "Cancel a pending order", order.Cancel)
	orderPayCmd    = transitionCmd("pay", "Mark a pending order paid", order.MarkPaid)
)

func fetchOrder(ctx context.Context, c *client.Client, arg string) (*order.Order, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	return c.Orders.Get(ctx, id)
}

func queryFromFlags() order.Query {
	return order.Query{Status: order.Status(statusFlag), Page: pageFlag, PageSize: pageSizeFlag}
}

func printOrders(out io.Writer, page gateway.Page[order.Order], withUser bool) error {
	if len(page.List) == 0 {
		fmt.Fprintln(out, "No orders.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	header := "ID\tNUMBER\tSTATUS\tTOTAL\tPLACED"
	if withUser {
		header += "\tCUSTOMER"
	}
	fmt.Fprintln(w, header)
	for _, o := range page.List {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s", o.ID, o.OrderNo, order.Label(o.Status), o.TotalPrice.StringFixed(2), o.CreatedAt)
		if withUser {
			fmt.Fprintf(w, "\t%s", o.UserNickname)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d, %d of %d\n", page.Page, len(page.List), page.Total)
	return nil
}

func printOrder(out io.Writer, o *order.Order, next []order.Event) {
	fmt.Fprintf(out, "Order %s (id %d), %s\n", o.OrderNo, o.ID, order.Label(o.Status))
	for _, it := range o.Items {
		fmt.Fprintf(out, "  %-24s %3d × %s = %s\n", it.DishName, it.Quantity, it.DishPrice.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(out, "Total: %s\n", o.TotalPrice.StringFixed(2))
	if o.Remark != "" {
		fmt.Fprintf(out, "Remark: %s\n", o.Remark)
	}
	if len(next) > 0 {
		names := make([]string, len(next))
		for i, ev := range next {
			names[i] = string(ev)
		}
		fmt.Fprintf(out, "Next: %s\n", strings.Join(names, ", "))
	}
}

func init() {
	orderSubmitCmd.Flags().StringVar(&remarkFlag, "remark", "", "note for the kitchen")
	for _, cmd := range []*cobra.Command{orderListCmd, adminOrdersCmd} {
		cmd.Flags().IntVar(&statusFlag, "status", 0, "filter by status (1 pending … 5 cancelled)")
		cmd.Flags().IntVar(&pageFlag, "page", 1, "page number")
		cmd.Flags().IntVar(&pageSizeFlag, "page-size", 10, "orders per page")
	}
	orderCmd.AddCommand(orderSubmitCmd, orderListCmd, orderShowCmd, orderCancelCmd, orderPayCmd)
}
