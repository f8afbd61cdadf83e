package main

import (
	"context"
	"os/signal"
	"syscall"

	"medstore/cmd/medstore/shop"
	"medstore/cmd/medstore/ui"
	"medstore/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Open the interactive storefront (default)",
	Args:  cobra.NoArgs,
	RunE:  runShop,
}

func runShop(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := shop.Options{
		Catalog:        a.catalog,
		Cart:           a.cart,
		Checkout:       a.checkout,
		Payment:        a.payment,
		FeaturedLimit:  a.cfg.GetFeaturedLimit(),
		CurrencySymbol: a.cfg.Shop.CurrencySymbol,
		Styles:         ui.DefaultStyles(),
	}

	// Another medstore process may edit the same cart files.
	if fs, ok := a.storage.(*store.FileStorage); ok {
		w, err := fs.NewWatcher()
		if err != nil {
			log().Warn("Cart watcher unavailable", zap.Error(err))
		} else {
			opts.Watcher = w
		}
	}

	log().Debug("Starting storefront", zap.String("workspace", a.workspace))
	return shop.Run(ctx, opts)
}
