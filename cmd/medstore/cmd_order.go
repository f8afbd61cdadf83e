package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"medstore/cmd/medstore/ui"
	"medstore/internal/api"
	"medstore/internal/checkout"
	"medstore/internal/ident"
	"medstore/internal/payment"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkoutName    string
	checkoutPhone   string
	checkoutAddress string

	proofFile string
	proofNote string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the current cart",
	Long: `Creates an order from the saved cart. On success the cart is cleared,
the order is remembered as the last order and its WhatsApp link is printed.

Example:
  medstore checkout --name "Ada Obi" --phone 08031234567 --address "12 Marina, Lagos"`,
	Args: cobra.NoArgs,
	RunE: runCheckout,
}

var orderCmd = &cobra.Command{
	Use:   "order [order-id]",
	Short: "Show an order's status (defaults to the last order)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOrder,
}

var orderMarkCmd = &cobra.Command{
	Use:   "mark <order-id> <status>",
	Short: "Set an order's status (UNPAID, PROOF_SENT, PAID, DELIVERED)",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrderMark,
}

var payCmd = &cobra.Command{
	Use:   "pay [order-id]",
	Short: "Show bank details and the WhatsApp proof-of-payment link",
	Long: `Prints the bank-transfer details for an order (defaults to the last
order). With --proof the file is uploaded first and its link is included in
the WhatsApp message.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPay,
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutName, "name", "", "Customer name (required)")
	checkoutCmd.Flags().StringVar(&checkoutPhone, "phone", "", "Phone number (required)")
	checkoutCmd.Flags().StringVar(&checkoutAddress, "address", "", "Delivery address")

	payCmd.Flags().StringVar(&proofFile, "proof", "", "Payment proof file to upload (image or PDF)")
	payCmd.Flags().StringVar(&proofNote, "note", "", "Note attached to the proof upload")

	orderCmd.AddCommand(orderMarkCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()

	res, err := a.checkout.Submit(ctx, checkout.Form{
		CustomerName: checkoutName,
		Phone:        checkoutPhone,
		Address:      checkoutAddress,
	})
	if err != nil {
		kind, ok := checkout.KindOf(err)
		if !ok {
			return err
		}
		log().Debug("Checkout failed", zap.String("kind", kind.String()), zap.Error(err))
		var ce *checkout.Error
		errors.As(err, &ce)
		return errors.New(ce.Message)
	}

	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()
	fmt.Fprintln(out, styles.Success.Render("Order created ✅"))
	fmt.Fprintf(out, "Order ID: %s\n", res.OrderID)
	fmt.Fprintf(out, "WhatsApp: %s\n", res.WhatsAppURL)
	if res.PersistErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the order was created but could not be saved locally. Note the Order ID above.")
	}
	fmt.Fprintf(out, "\nPay with: medstore pay %s\n", res.OrderID)
	return nil
}

func runOrder(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var explicit ident.ID
	if len(args) == 1 {
		explicit = ident.ID(args[0])
	}

	ctx, cancel := commandContext()
	defer cancel()

	page, err := a.payment.LoadStatus(ctx, a.payment.ResolveOrderID(explicit))
	if errors.Is(err, payment.ErrNoOrder) {
		return errors.New("no order given and no last order saved")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printOrder(out, a, page)
	if page.WhatsApp != "" {
		fmt.Fprintf(out, "WhatsApp: %s\n", page.WhatsApp)
	} else {
		fmt.Fprintln(out, "WhatsApp link not saved")
	}
	printBank(out, a.payment.Bank())
	return nil
}

func runOrderMark(cmd *cobra.Command, args []string) error {
	status := api.OrderStatus(strings.ToUpper(strings.TrimSpace(args[1])))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q (valid: UNPAID, PROOF_SENT, PAID, DELIVERED)", args[1])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()

	id := ident.ID(args[0])
	if err := a.client.UpdateOrderStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Order %s marked %s\n", id, status.Label())
	return nil
}

func runPay(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var explicit ident.ID
	if len(args) == 1 {
		explicit = ident.ID(args[0])
	}

	ctx, cancel := commandContext()
	defer cancel()

	page, err := a.payment.LoadPayment(ctx, explicit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printOrder(out, a, page)
	printBank(out, a.payment.Bank())

	var proofURL string
	if proofFile != "" {
		f, err := os.Open(proofFile)
		if err != nil {
			return fmt.Errorf("failed to open proof: %w", err)
		}
		defer f.Close()

		proofURL, err = a.payment.UploadProof(ctx, page.OrderID, filepath.Base(proofFile), f, proofNote)
		if errors.Is(err, payment.ErrNoOrder) {
			return errors.New("no order to attach the proof to: pass an order id")
		}
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		fmt.Fprintln(out, ui.DefaultStyles().Success.Render("Proof uploaded."))
	}

	fmt.Fprintf(out, "\nSend proof on WhatsApp:\n%s\n", payment.ProofLink(page, proofURL))
	return nil
}

// printOrder prints the order header and, when loaded, its items.
func printOrder(out io.Writer, a *app, page payment.Page) {
	id := page.OrderID.String()
	if page.OrderID.IsZero() {
		id = "—"
	}
	fmt.Fprintf(out, "Order ID: %s\n", id)
	if page.Notice != "" {
		fmt.Fprintln(out, page.Notice)
	}
	if page.Detail == nil {
		return
	}

	d := page.Detail
	fmt.Fprintf(out, "Status:   %s\n", d.Status.Label())
	fmt.Fprintf(out, "Customer: %s (%s)\n", d.CustomerName, d.Phone)
	if d.Address != "" {
		fmt.Fprintf(out, "Address:  %s\n", d.Address)
	}
	table := ui.NewTable("", "Product", "Qty", "Price").AlignRight(1, 2)
	for _, it := range d.Items {
		table.AddRow(it.ProductName, fmt.Sprint(it.Quantity), a.money(it.PriceAtTime.Decimal))
	}
	table.Footer = []string{"Total", "", a.money(d.TotalAmount.Decimal)}
	if v := table.View(ui.DefaultStyles()); v != "" {
		fmt.Fprintln(out, v)
	} else {
		fmt.Fprintf(out, "Total:    %s\n", a.money(d.TotalAmount.Decimal))
	}
}

func printBank(out io.Writer, b payment.Bank) {
	fmt.Fprintln(out, "\nBank transfer details")
	fmt.Fprintf(out, "  Bank:    %s\n", b.BankName)
	fmt.Fprintf(out, "  Name:    %s\n", b.AccountName)
	fmt.Fprintf(out, "  Account: %s\n", b.AccountNumber)
	if b.Note != "" {
		fmt.Fprintf(out, "  %s\n", b.Note)
	}
}
