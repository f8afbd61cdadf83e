package catalog

import (
	"fmt"
	"strings"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "ALL"

// SortBy selects the ordering of the filtered catalog.
type SortBy string

const (
	SortNewest    SortBy = "newest"
	SortPriceAsc  SortBy = "price_asc"
	SortPriceDesc SortBy = "price_desc"
	SortNameAsc   SortBy = "name_asc"
)

// SortOptions lists every SortBy in display order.
var SortOptions = []SortBy{SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc}

// Label returns the human label for a sort option.
func (s SortBy) Label() string {
	switch s {
	case SortPriceAsc:
		return "Price: Low → High"
	case SortPriceDesc:
		return "Price: High → Low"
	case SortNameAsc:
		return "Name: A → Z"
	default:
		return "Newest"
	}
}

// ParseSortBy parses a sort option name.
func ParseSortBy(s string) (SortBy, error) {
	for _, o := range SortOptions {
		if string(o) == strings.TrimSpace(s) {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown sort %q (valid: newest, price_asc, price_desc, name_asc)", s)
}

// Criteria is the user's transient filter/sort selection.
type Criteria struct {
	Search      string
	Category    string
	InStockOnly bool
	SortBy      SortBy
}

// DefaultCriteria returns the cleared selection.
func DefaultCriteria() Criteria {
	return Criteria{Category: AllCategories, SortBy: SortNewest}
}

// IsDefault reports whether c equals the cleared selection.
func (c Criteria) IsDefault() bool {
	return c == DefaultCriteria()
}

// NextSort cycles to the following sort option.
func (c Criteria) NextSort() SortBy {
	for i, o := range SortOptions {
		if o == c.SortBy {
			return SortOptions[(i+1)%len(SortOptions)]
		}
	}
	return SortNewest
}
