package main

import (
	"fmt"
	"os"
	"path/filepath"

	"medstore/internal/api"
	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/checkout"
	"medstore/internal/config"
	"medstore/internal/logging"
	"medstore/internal/payment"
	"medstore/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// app bundles the storefront components a command needs.
type app struct {
	workspace string
	cfg       *config.Config

	storage  store.Storage
	client   *api.Client
	cart     *cart.Store
	orders   *checkout.LastOrderStore
	checkout *checkout.Machine
	catalog  *catalog.Loader
	payment  *payment.Service
}

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

// loadConfig reads the config file for the current workspace.
func loadConfig(ws string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(ws)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// newApp loads config, opens storage and wires every component.
func newApp() (*app, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return nil, err
	}

	if err := logging.Initialize(ws, cfg.Logging.Options()); err != nil {
		log().Warn("File logging disabled", zap.Error(err))
	}
	logging.Boot("config loaded (backend=%s, api=%s)", cfg.Storage.Backend, cfg.API.BaseURL)

	storage, err := store.Open(cfg.Storage, ws)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	client := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.GetAPITimeout()))
	carts := cart.New(storage)
	orders := checkout.NewLastOrderStore(storage)

	a := &app{
		workspace: ws,
		cfg:       cfg,
		storage:   storage,
		client:    client,
		cart:      carts,
		orders:    orders,
		checkout:  checkout.New(client, carts, orders),
		catalog:   catalog.NewLoader(client, cfg.API.BaseURL),
		payment: payment.NewService(client, orders, cfg.Shop.WhatsAppFallbackURL, payment.Bank{
			BankName:      cfg.Bank.BankName,
			AccountName:   cfg.Bank.AccountName,
			AccountNumber: cfg.Bank.AccountNumber,
			Note:          cfg.Bank.Note,
		}),
	}
	log().Debug("App wired",
		zap.String("workspace", ws),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("api", cfg.API.BaseURL))
	return a, nil
}

// Close releases storage and flushes file logs.
func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		log().Warn("Failed to close storage", zap.Error(err))
	}
	logging.CloseAll()
}

// money formats an amount with the configured currency symbol.
func (a *app) money(d decimal.Decimal) string {
	return catalog.FormatMoney(a.cfg.Shop.CurrencySymbol, d)
}
