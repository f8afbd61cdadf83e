package main

import (
	"fmt"
	"os"
	"sort"

	"medstore/internal/api"
	"medstore/internal/config"

	"github.com/spf13/cobra"
)

var forceConfig bool

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the store API is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage medstore configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the workspace",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceConfig, "force", "f", false, "Overwrite an existing config")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	client := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.GetAPITimeout()))
	body, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("store API at %s is not reachable: %w", cfg.API.BaseURL, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s is up\n", cfg.API.BaseURL)
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %v\n", k, body[k])
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(ws)
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); err == nil && !forceConfig {
		fmt.Fprintf(out, "Config already exists at %s (use --force to overwrite)\n", path)
		return nil
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "api.base_url:      %s\n", cfg.API.BaseURL)
	fmt.Fprintf(out, "api.timeout:       %s\n", cfg.GetAPITimeout())
	fmt.Fprintf(out, "storage.backend:   %s\n", cfg.Storage.Backend)
	fmt.Fprintf(out, "shop.featured:     %d\n", cfg.GetFeaturedLimit())
	fmt.Fprintf(out, "logging.debug:     %v\n", cfg.Logging.DebugMode)
	return nil
}
