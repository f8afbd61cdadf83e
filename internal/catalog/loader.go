package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"medstore/internal/latest"
	"medstore/internal/logging"
	"medstore/internal/notify"
)

// Notices shown instead of a product grid.
const (
	NoticeEmpty = "No products returned. Add products in the admin and refresh."
)

// fetchTimeout bounds a shared product fetch.
const fetchTimeout = 30 * time.Second

// ErrStale is returned by Refresh when a newer refresh started while this one
// was in flight. The newer refresh owns the snapshot.
var ErrStale = errors.New("catalog: refresh superseded")

// Fetcher fetches the raw product list (the Product API).
type Fetcher interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Snapshot is the current catalog state.
type Snapshot struct {
	Products  []Product
	Notice    string // user-visible notice, empty when the grid has products
	Loading   bool
	FetchedAt time.Time
}

// Index builds the id lookup for the snapshot.
func (s Snapshot) Index() Index { return NewIndex(s.Products) }

// Loader owns the catalog snapshot and refreshes it from a Fetcher.
type Loader struct {
	fetcher Fetcher
	baseURL string

	group singleflight.Group
	guard latest.Guard

	mu   sync.RWMutex
	snap Snapshot

	changes notify.Hub[Snapshot]
}

// NewLoader creates a loader. baseURL is the API origin used to absolutise
// relative image paths and in the failure notice.
func NewLoader(fetcher Fetcher, baseURL string) *Loader {
	return &Loader{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Snapshot returns the current snapshot.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Subscribe registers fn for snapshot changes.
func (l *Loader) Subscribe(fn func(Snapshot)) func() {
	return l.changes.Subscribe(fn)
}

// Refresh fetches the catalog. Concurrent refreshes share one request.
// A fetch failure is not returned as an error: it empties the catalog and sets
// a notice. The only error is ErrStale (or ctx's error if it was cancelled).
func (l *Loader) Refresh(ctx context.Context) (Snapshot, error) {
	ticket := l.guard.Begin()
	l.commit(func(s *Snapshot) { s.Loading = true; s.Notice = "" })

	timer := logging.StartTimer(logging.CategoryCatalog, "Refresh")
	// The fetch is shared by every caller that joins it, so it must not die
	// with the first caller's context.
	res := l.group.DoChan("products", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return l.fetcher.ListProducts(fetchCtx)
	})

	var r singleflight.Result
	select {
	case r = <-res:
	case <-ctx.Done():
		if l.guard.Current(ticket) {
			l.commit(func(s *Snapshot) { s.Loading = false })
		}
		return l.Snapshot(), ctx.Err()
	}
	timer.Stop()

	if !l.guard.Current(ticket) {
		logging.CatalogDebug("discarding stale catalog response")
		return l.Snapshot(), ErrStale
	}

	next := Snapshot{FetchedAt: time.Now()}
	if r.Err != nil {
		logging.CatalogWarn("products fetch failed: %v", r.Err)
		next.Notice = l.FailureNotice()
	} else {
		raw := r.Val.([]Product)
		next.Products = make([]Product, len(raw))
		for i, p := range raw {
			p.ImageURL = NormalizeImageURL(l.baseURL, p.ImageURL)
			next.Products[i] = p
		}
		if len(next.Products) == 0 {
			next.Notice = NoticeEmpty
		}
		logging.Catalog("loaded %d products", len(next.Products))
	}

	l.commit(func(s *Snapshot) { *s = next })
	return next, nil
}

// Invalidate discards any in-flight refresh result.
func (l *Loader) Invalidate() { l.guard.Invalidate() }

// FailureNotice is the notice shown when the product fetch fails.
func (l *Loader) FailureNotice() string {
	return fmt.Sprintf("Products fetch failed. Is the store API running at %s?", l.baseURL)
}

func (l *Loader) commit(mutate func(*Snapshot)) {
	l.mu.Lock()
	mutate(&l.snap)
	snap := l.snap
	l.mu.Unlock()
	l.changes.Publish(snap)
}

// NormalizeImageURL makes a relative image path absolute against base.
// "/media/x.jpg" becomes base+"/media/x.jpg", "media/x.jpg" becomes
// base+"/media/x.jpg". Absolute http(s) URLs and "" are returned unchanged.
func NormalizeImageURL(base, img string) string {
	if img == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(img, "/") {
		return base + img
	}
	if !strings.HasPrefix(img, "http") {
		return base + "/" + img
	}
	return img
}
