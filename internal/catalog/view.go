package catalog

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"medstore/internal/ident"
)

// DefaultFeaturedLimit caps the featured row.
const DefaultFeaturedLimit = 3

// View is the derived catalog the storefront renders.
type View struct {
	Filtered []Product // filtered and sorted
	Featured []Product // leading slice of Filtered
	Main     []Product // Filtered minus Featured, same relative order
}

// Build derives the view for products under c. It is a pure function of its
// inputs; products is not modified.
func Build(products []Product, c Criteria) View {
	return BuildLimit(products, c, DefaultFeaturedLimit)
}

// BuildLimit is Build with a custom featured cap.
func BuildLimit(products []Product, c Criteria, featuredLimit int) View {
	list := Filter(products, c)
	Sort(list, c.SortBy)
	featured, main := Partition(list, featuredLimit)
	return View{Filtered: list, Featured: featured, Main: main}
}

// Filter returns a new slice of the products matching every predicate of c.
func Filter(products []Product, c Criteria) []Product {
	q := strings.ToLower(strings.TrimSpace(c.Search))
	category := c.Category
	if category == "" {
		category = AllCategories
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		matchesCategory := category == AllCategories || p.CategoryName() == category
		matchesSearch := q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.CategoryName()), q)
		matchesStock := !c.InStockOnly || p.Stock > 0

		if matchesCategory && matchesSearch && matchesStock {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders list in place. The sort is stable for every option.
func Sort(list []Product, by SortBy) {
	switch by {
	case SortPriceAsc:
		slices.SortStableFunc(list, func(a, b Product) int { return a.Price.Cmp(b.Price.Decimal) })
	case SortPriceDesc:
		slices.SortStableFunc(list, func(a, b Product) int { return b.Price.Cmp(a.Price.Decimal) })
	case SortNameAsc:
		// A Collator is not safe for concurrent use.
		col := collate.New(language.English)
		slices.SortStableFunc(list, func(a, b Product) int { return col.CompareString(a.Name, b.Name) })
	default:
		slices.SortStableFunc(list, func(a, b Product) int {
			ka, kb := a.newestKey(), b.newestKey()
			switch {
			case ka > kb:
				return -1
			case ka < kb:
				return 1
			}
			return 0
		})
	}
}

// Partition splits a sorted list into the featured head and the rest. The
// head holds min(limit, len-1) items, so a single product is never featured
// and the last item always lands in main.
func Partition(list []Product, limit int) (featured, main []Product) {
	n := max(0, min(limit, len(list)-1))
	featured = slices.Clone(list[:n])

	ids := make(map[ident.ID]struct{}, n)
	for _, p := range featured {
		ids[p.ID] = struct{}{}
	}
	main = make([]Product, 0, len(list)-n)
	for _, p := range list {
		if _, ok := ids[p.ID]; !ok {
			main = append(main, p)
		}
	}
	return featured, main
}

// Categories returns AllCategories followed by the distinct category names
// of products in sorted order.
func Categories(products []Product) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range products {
		name := p.CategoryName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{AllCategories}, names...)
}
