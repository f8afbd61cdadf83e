package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"medstore/cmd/medstore/ui"
	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/ident"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show or change the saved cart",
	RunE:  runCartList,
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show cart lines with subtotals and the total",
	RunE:  runCartList,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id> [quantity]",
	Short: "Add a product (quantity defaults to 1)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCartAdd,
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set a line's quantity (values below 1 become 1)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCartSet,
}

var cartRemoveCmd = &cobra.Command{
	Use:     "remove <product-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a line",
	Args:    cobra.ExactArgs(1),
	RunE:    runCartRemove,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE:  runCartClear,
}

func init() {
	cartCmd.AddCommand(cartListCmd, cartAddCmd, cartSetCmd, cartRemoveCmd, cartClearCmd)
}

func runCartList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if a.cart.IsEmpty() {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()

	snap, err := a.catalog.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if snap.Notice != "" {
		fmt.Fprintln(out, snap.Notice)
	}
	printCart(out, a, snap.Index())
	return nil
}

// printCart renders priced lines; lines whose product is not in idx are
// counted but not priced.
func printCart(out io.Writer, a *app, idx catalog.Index) {
	lines := a.cart.Lines(idx)
	table := ui.NewTable("Cart", "ID", "Product", "Unit", "Qty", "Subtotal").AlignRight(2, 3, 4)
	for _, l := range lines {
		table.AddRow(l.Product.ID.String(), l.Product.Name, a.money(l.Product.Price.Decimal), strconv.Itoa(l.Quantity), a.money(l.Subtotal))
	}
	table.Footer = []string{"", "Total", "", strconv.Itoa(a.cart.Count()), a.money(a.cart.Total(idx))}
	if v := table.View(ui.DefaultStyles()); v != "" {
		fmt.Fprintln(out, v)
	}
	if missing := len(a.cart.Items()) - len(lines); missing > 0 {
		fmt.Fprintf(out, "%d line(s) refer to products not in the catalog and are not priced.\n", missing)
	}
}

// reportPersist turns a storage write failure into a warning: the change
// still applies to this process.
func reportPersist(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cart.ErrNotPersisted) {
		log().Warn("Cart change not saved", zap.Error(err))
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: cart change could not be saved.")
		return nil
	}
	return err
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	qty := 1
	if len(args) == 2 {
		qty = cart.ParseQuantity(args[1])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := ident.ID(args[0])
	if err := reportPersist(cmd, a.cart.Add(id, qty)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (now %d in cart, %d item(s) total)\n", id, a.cart.Quantity(id), a.cart.Count())
	return nil
}

func runCartSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := ident.ID(args[0])
	if a.cart.Quantity(id) == 0 {
		return fmt.Errorf("product %s is not in the cart", id)
	}
	if err := reportPersist(cmd, a.cart.SetQuantity(id, cart.ParseQuantity(args[1]))); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %d\n", id, a.cart.Quantity(id))
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := ident.ID(args[0])
	if err := reportPersist(cmd, a.cart.Remove(id)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%d item(s) left)\n", id, a.cart.Count())
	return nil
}

func runCartClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := reportPersist(cmd, a.cart.Clear()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
	return nil
}
