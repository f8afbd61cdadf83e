package main

import (
	"fmt"
	"strconv"
	"strings"

	"medstore/cmd/medstore/ui"
	"medstore/internal/catalog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	productSearch   string
	productCategory string
	productInStock  bool
	productSort     string
	categoriesAPI   bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the catalog (featured first, then the rest)",
	Long: `Fetches the catalog from the store API and prints it through the same
filter, sort and featured/main partition the interactive shop uses.

Examples:
  medstore products --search glove
  medstore products --category "Dental Tools" --in-stock --sort price_asc`,
	RunE: runProducts,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE:  runCategories,
}

func init() {
	productsCmd.Flags().StringVarP(&productSearch, "search", "s", "", "Match name, description or category (case-insensitive)")
	productsCmd.Flags().StringVarP(&productCategory, "category", "c", catalog.AllCategories, "Exact category name, or ALL")
	productsCmd.Flags().BoolVar(&productInStock, "in-stock", false, "Only products with stock > 0")
	productsCmd.Flags().StringVar(&productSort, "sort", string(catalog.SortNewest), "newest, price_asc, price_desc or name_asc")

	categoriesCmd.Flags().BoolVar(&categoriesAPI, "api", false, "Ask the categories endpoint instead of deriving from products")
}

// productCriteria builds the criteria from the products flags.
func productCriteria() (catalog.Criteria, error) {
	by, err := catalog.ParseSortBy(productSort)
	if err != nil {
		return catalog.Criteria{}, err
	}
	return catalog.Criteria{
		Search:      productSearch,
		Category:    productCategory,
		InStockOnly: productInStock,
		SortBy:      by,
	}, nil
}

func runProducts(cmd *cobra.Command, args []string) error {
	criteria, err := productCriteria()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()

	snap, err := a.catalog.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	out := cmd.OutOrStdout()
	if snap.Notice != "" {
		fmt.Fprintln(out, snap.Notice)
		return nil
	}

	view := catalog.BuildLimit(snap.Products, criteria, a.cfg.GetFeaturedLimit())
	log().Debug("Catalog view built",
		zap.Int("products", len(snap.Products)),
		zap.Int("filtered", len(view.Filtered)))

	if len(view.Filtered) == 0 {
		fmt.Fprintln(out, "No products match your filters.")
		return nil
	}

	styles := ui.DefaultStyles()
	for _, section := range []struct {
		title string
		list  []catalog.Product
	}{
		{"Featured", view.Featured},
		{"All products", view.Main},
	} {
		table := ui.NewTable(section.title, "ID", "Name", "Category", "Price", "Stock").AlignRight(3, 4)
		for _, p := range section.list {
			table.AddRow(p.ID.String(), p.Name, p.CategoryName(), a.money(p.Price.Decimal), strconv.Itoa(p.Stock))
		}
		if v := table.View(styles); v != "" {
			fmt.Fprintln(out, v)
		}
	}
	fmt.Fprintf(out, "%d product(s), sorted by %s\n", len(view.Filtered), criteria.SortBy.Label())
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()

	var names []string
	if categoriesAPI {
		cats, err := a.client.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		names = append(names, catalog.AllCategories)
		for _, c := range cats {
			names = append(names, c.Name)
		}
	} else {
		snap, err := a.catalog.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		names = catalog.Categories(snap.Products)
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
	return nil
}
