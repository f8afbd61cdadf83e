// Package catalog holds the product model and the catalog view model: the
// filter, sort and featured/main partition derived from a product snapshot.
package catalog

import (
	"strings"
	"time"

	"medstore/internal/ident"
)

// Category is the product category as returned by the store API.
type Category struct {
	ID   ident.ID `json:"id,omitempty"`
	Name string   `json:"name"`
	Slug string   `json:"slug,omitempty"`
}

// Product is a read-only catalog record.
type Product struct {
	ID          ident.ID  `json:"id"`
	Name        string    `json:"name"`
	Price       Price     `json:"price"`
	Stock       int       `json:"stock"`
	Category    *Category `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
}

// CategoryName returns the category name or "".
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// InStock reports whether stock is positive.
func (p Product) InStock() bool { return p.Stock > 0 }

// Initials returns the two-letter placeholder shown when a product has no image.
func (p Product) Initials() string {
	name := p.Name
	if name == "" {
		name = "P"
	}
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// newestKey is the ordering key of the "newest" sort: created_at in Unix
// milliseconds, or the numeric id when created_at is absent or unparseable.
// The id fallback treats larger ids as newer. That is a policy, not a
// guarantee of chronological order.
func (p Product) newestKey() int64 {
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, p.CreatedAt); err == nil {
			return t.UnixMilli()
		}
	}
	if n, ok := p.ID.Int(); ok {
		return n
	}
	return 0
}

// Index maps product ids to products for one catalog snapshot.
type Index map[ident.ID]Product

// NewIndex builds an Index. Later duplicates win.
func NewIndex(products []Product) Index {
	idx := make(Index, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// Lookup returns the product for id.
func (idx Index) Lookup(id ident.ID) (Product, bool) {
	p, ok := idx[id]
	return p, ok
}
