package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/internal/client"
)

var quantityFlag int

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Edit the local cart",
}

// canteen cart add <dishID> [-n qty]
var cartAddCmd = &cobra.Command{
	Use:   "add <dishID>",
	Short: "Add a dish at its current menu price",
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
		if err := c.Cart.Add(d.Item(), quantityFlag); err != nil {
			return err
		}
		return showCart(cmd, c)
	}),
}

// lineCmd builds inc/dec/rm, which differ only in the cart call.
func lineCmd(use, short string, op func(c *client.Client, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <dishID>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(_ context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := op(c, id); err != nil {
				return err
			}
			return showCart(cmd, c)
		}),
	}
}

var (
	cartIncCmd = lineCmd("inc", "Add one more of a dish already in the cart", func(c *client.Client, id int64) error {
		return c.Cart.Increment(id)
	})
	cartDecCmd = lineCmd("dec", "Take one off; the line goes away at zero", func(c *client.Client, id int64) error {
		return c.Cart.Decrement(id)
	})
	cartRmCmd = lineCmd("rm", "Remove a line", func(c *client.Client, id int64) error {
		return c.Cart.Remove(id)
	})
)

// canteen cart clear
var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: withClient(func(_ context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		return c.Cart.Clear()
	}),
}

// canteen cart show
var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart and its total",
	RunE: withClient(func(_ context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
		return showCart(cmd, c)
	}),
}

func showCart(cmd *cobra.Command, c *client.Client) error {
	out := cmd.OutOrStdout()
	if c.Cart.IsEmpty() {
		fmt.Fprintln(out, "Cart is empty.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range c.Cart.Lines() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ItemID, l.Name, l.UnitPrice.StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
	}
	t := c.Cart.Totals()
	fmt.Fprintf(w, "\t\t\t%d\t%s\n", t.Count, t.Display())
	return w.Flush()
}

func init() {
	cartAddCmd.Flags().IntVarP(&quantityFlag, "quantity", "n", 1, "how many to add")
	cartCmd.AddCommand(cartAddCmd, cartIncCmd, cartDecCmd, cartRmCmd, cartClearCmd, cartShowCmd)
}
