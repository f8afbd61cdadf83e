// Package cart is the session cart: an ordered, persisted list of
// (product, quantity) lines with derived count and totals.
package cart

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"medstore/internal/catalog"
	"medstore/internal/ident"
	"medstore/internal/logging"
	"medstore/internal/notify"
	"medstore/internal/store"
)

// ErrNotPersisted wraps storage write failures. The in-memory cart still
// holds the change; it just will not survive a restart.
var ErrNotPersisted = errors.New("cart: change not persisted")

// Line is one cart entry. Quantity is always at least 1.
type Line struct {
	ProductID ident.ID `json:"product_id"`
	Quantity  int      `json:"quantity"`
}

// PricedLine is a Line joined against the catalog.
type PricedLine struct {
	Product  catalog.Product
	Quantity int
	Subtotal decimal.Decimal
}

// EventKind identifies a cart event.
type EventKind int

const (
	// Changed fires after every mutation.
	Changed EventKind = iota
	// OpenRequested asks the UI to show the cart. It is not a data change.
	OpenRequested
)

// Event is published to subscribers.
type Event struct {
	Kind  EventKind
	Count int
}

// Store owns the cart lines.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	storage  store.Storage
	degraded bool

	events notify.Hub[Event]
}

// New rehydrates the cart from storage. Missing or corrupt data yields an
// empty cart; loading never fails.
func New(storage store.Storage) *Store {
	s := &Store{storage: storage}
	s.lines = load(storage)
	logging.CartDebug("cart loaded with %d lines", len(s.lines))
	return s
}

func load(storage store.Storage) []Line {
	raw := store.DecodeOr[[]Line](storage, store.CartKey, nil)
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		if l.ProductID.IsZero() {
			continue
		}
		if i := slices.IndexFunc(lines, func(x Line) bool { return x.ProductID == l.ProductID }); i >= 0 {
			lines[i].Quantity = addQuantity(lines[i].Quantity, clamp(l.Quantity))
			continue
		}
		lines = append(lines, Line{ProductID: l.ProductID, Quantity: clamp(l.Quantity)})
	}
	return lines
}

// Subscribe registers fn for cart events.
func (s *Store) Subscribe(fn func(Event)) func() {
	return s.events.Subscribe(fn)
}

// Add adds qty of a product, merging with an existing line. qty below 1 is
// treated as 1. It also requests that the cart be shown.
func (s *Store) Add(id ident.ID, qty int) error {
	q := clamp(qty)
	err := s.mutate(func(lines []Line) []Line {
		if i := indexOf(lines, id); i >= 0 {
			lines[i].Quantity = addQuantity(lines[i].Quantity, q)
			return lines
		}
		return append(lines, Line{ProductID: id, Quantity: q})
	})
	logging.Cart("add %s x%d", id, q)
	s.events.Publish(Event{Kind: OpenRequested, Count: s.Count()})
	return err
}

// SetQuantity overwrites a line's quantity in place (clamped to at least 1).
// Unknown products are ignored.
func (s *Store) SetQuantity(id ident.ID, qty int) error {
	q := clamp(qty)
	return s.mutate(func(lines []Line) []Line {
		if i := indexOf(lines, id); i >= 0 {
			lines[i].Quantity = q
		}
		return lines
	})
}

// Remove deletes a line if present.
func (s *Store) Remove(id ident.ID) error {
	return s.mutate(func(lines []Line) []Line {
		return slices.DeleteFunc(lines, func(l Line) bool { return l.ProductID == id })
	})
}

// Clear empties the cart.
func (s *Store) Clear() error {
	return s.mutate(func([]Line) []Line { return nil })
}

// RemoveOrdered subtracts the ordered quantities from the cart, dropping
// lines that reach zero. Lines added after the order snapshot are kept.
func (s *Store) RemoveOrdered(ordered []Line) error {
	return s.mutate(func(lines []Line) []Line {
		for _, o := range ordered {
			if i := indexOf(lines, o.ProductID); i >= 0 {
				lines[i].Quantity -= o.Quantity
			}
		}
		return slices.DeleteFunc(lines, func(l Line) bool { return l.Quantity < 1 })
	})
}

// Reload replaces the in-memory cart with what storage holds, e.g. after
// another process changed it. Subscribers are notified only on a difference.
func (s *Store) Reload() {
	fresh := load(s.storage)

	s.mu.Lock()
	same := slices.Equal(fresh, s.lines)
	if !same {
		s.lines = fresh
	}
	count := countOf(s.lines)
	s.mu.Unlock()

	if !same {
		logging.CartDebug("cart reloaded from storage (%d lines)", len(fresh))
		s.events.Publish(Event{Kind: Changed, Count: count})
	}
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Quantity returns the quantity held for id, or 0.
func (s *Store) Quantity(id ident.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.lines, id); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

// Count is the sum of all quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countOf(s.lines)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Lines joins the cart against idx. Lines whose product is not in idx are
// skipped.
func (s *Store) Lines(idx catalog.Index) []PricedLine {
	items := s.Items()
	out := make([]PricedLine, 0, len(items))
	for _, l := range items {
		p, ok := idx.Lookup(l.ProductID)
		if !ok {
			continue
		}
		out = append(out, PricedLine{
			Product:  p,
			Quantity: l.Quantity,
			Subtotal: p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return out
}

// Total sums the subtotals of Lines(idx).
func (s *Store) Total(idx catalog.Index) decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines(idx) {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Degraded reports whether the last write failed, i.e. the cart is memory-only.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) mutate(fn func([]Line) []Line) error {
	s.mu.Lock()
	s.lines = fn(s.lines)
	snapshot := slices.Clone(s.lines)
	if snapshot == nil {
		snapshot = []Line{}
	}
	err := store.Encode(s.storage, store.CartKey, snapshot)
	s.degraded = err != nil
	count := countOf(s.lines)
	s.mu.Unlock()

	s.events.Publish(Event{Kind: Changed, Count: count})

	if err != nil {
		logging.CartError("persisting cart failed, continuing in memory: %v", err)
		return fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	return nil
}

func indexOf(lines []Line, id ident.ID) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ProductID == id })
}

func countOf(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func clamp(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// addQuantity adds two positive quantities, saturating at math.MaxInt.
func addQuantity(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

// ParseQuantity turns user input into a valid quantity: anything that is not
// a positive number becomes 1, fractions are truncated.
func ParseQuantity(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return clamp(int(f))
}
