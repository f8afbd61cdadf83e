// Package shop implements the interactive terminal storefront.
//
// The model owns no business state: the catalog loader, cart store,
// checkout machine and payment service do. Their change notifications are
// bridged into tea messages, and every render reads the current state back
// from them.
package shop

import (
	"context"

	"medstore/cmd/medstore/ui"
	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/checkout"
	"medstore/internal/ident"
	"medstore/internal/logging"
	"medstore/internal/payment"
	"medstore/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Page is the main area being shown.
type Page int

const (
	PageCatalog Page = iota
	PageQuickView
	PageOrder
	PagePayment
)

// Drawer is the state of the cart side panel.
type Drawer int

const (
	DrawerClosed Drawer = iota
	DrawerCart
	DrawerCheckout
)

// checkout form fields
const (
	fieldName = iota
	fieldPhone
	fieldAddress
	fieldCount
)

const eventBuffer = 64

// Options wires the storefront to its components.
type Options struct {
	Catalog  *catalog.Loader
	Cart     *cart.Store
	Checkout *checkout.Machine
	Payment  *payment.Service

	// Watcher, when set, reloads the cart after another process changes it.
	Watcher *store.Watcher

	FeaturedLimit  int
	CurrencySymbol string
	Styles         ui.Styles
}

// Model is the bubbletea model of the storefront.
type Model struct {
	opts   Options
	styles ui.Styles
	keys   keyMap
	help   help.Model

	width  int
	height int

	page   Page
	drawer Drawer

	// Catalog page
	snapshot   catalog.Snapshot
	index      catalog.Index
	criteria   catalog.Criteria
	view       catalog.View
	categories []string
	cursor     int
	search     textinput.Model
	searching  bool

	// Quick view
	quick    *catalog.Product
	quickQty int
	details  viewport.Model

	// Cart drawer and checkout form
	drawerCursor int
	form         [fieldCount]textinput.Model
	focus        int
	formErr      string
	submitting   bool

	// Order and payment pages
	orderID   ident.ID
	banner    bool
	detail    payment.Page
	loading   bool
	proofPath textinput.Model
	proofURL  string
	uploading bool

	spinner spinner.Model
	status  string

	events chan tea.Msg
	unsubs []func()
}

// New creates the storefront model and subscribes it to the components.
// Call Close when the program exits.
func New(opts Options) Model {
	if opts.FeaturedLimit <= 0 {
		opts.FeaturedLimit = 3
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = catalog.DefaultCurrencySymbol
	}
	if opts.Styles.Theme.Primary == "" {
		opts.Styles = ui.DefaultStyles()
	}

	search := textinput.New()
	search.Placeholder = "Search name, description or category"
	search.Prompt = "🔍 "
	search.CharLimit = 80

	var form [fieldCount]textinput.Model
	for i, ph := range []string{"Full name", "Phone number", "Delivery address (optional)"} {
		in := textinput.New()
		in.Placeholder = ph
		in.CharLimit = 120
		form[i] = in
	}

	proof := textinput.New()
	proof.Placeholder = "Path to transfer receipt (image or PDF)"
	proof.CharLimit = 255

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Title

	m := Model{
		opts:      opts,
		styles:    opts.Styles,
		keys:      defaultKeyMap(),
		help:      help.New(),
		criteria:  catalog.DefaultCriteria(),
		search:    search,
		form:      form,
		proofPath: proof,
		spinner:   sp,
		details:   viewport.New(60, 8),
		quickQty:  1,
		events:    make(chan tea.Msg, eventBuffer),
	}
	m.unsubs = append(m.unsubs,
		opts.Catalog.Subscribe(func(s catalog.Snapshot) { m.post(snapshotMsg(s)) }),
		opts.Cart.Subscribe(func(e cart.Event) { m.post(cartEventMsg(e)) }),
		opts.Checkout.Subscribe(func(e checkout.Event) { m.post(checkoutEventMsg(e)) }),
	)
	m.syncCatalog(opts.Catalog.Snapshot())
	return m
}

// post forwards a component event to the program without blocking the
// publisher. Catalog and cart events re-read state when handled, and the
// checkout navigation is replayed from the submit result, so a full buffer
// only delays the screen.
func (m Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		logging.UIDebug("event buffer full, dropping %T", msg)
	}
}

// Close removes the component subscriptions and stops the watcher.
func (m Model) Close() {
	for _, u := range m.unsubs {
		u()
	}
	if m.opts.Watcher != nil {
		m.opts.Watcher.Stop()
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		waitForEvent(m.events),
		refreshCatalog(m.opts.Catalog),
	}
	if m.opts.Watcher != nil {
		cmds = append(cmds, watchStorage(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

// syncCatalog adopts a snapshot and rebuilds the derived view.
func (m *Model) syncCatalog(s catalog.Snapshot) {
	m.snapshot = s
	m.index = s.Index()
	m.categories = catalog.Categories(s.Products)
	m.rebuild()
}

// rebuild recomputes the catalog view from the snapshot and criteria.
func (m *Model) rebuild() {
	m.view = catalog.BuildLimit(m.snapshot.Products, m.criteria, m.opts.FeaturedLimit)
	if m.cursor >= len(m.view.Filtered) {
		m.cursor = len(m.view.Filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selected returns the product under the catalog cursor.
func (m Model) selected() (catalog.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Filtered) {
		return catalog.Product{}, false
	}
	return m.view.Filtered[m.cursor], true
}

// formValues returns the checkout form as entered.
func (m Model) formValues() checkout.Form {
	return checkout.Form{
		CustomerName: m.form[fieldName].Value(),
		Phone:        m.form[fieldPhone].Value(),
		Address:      m.form[fieldAddress].Value(),
	}
}

// Page returns the current page.
func (m Model) Page() Page { return m.page }

// Drawer returns the cart drawer state.
func (m Model) Drawer() Drawer { return m.drawer }

// Criteria returns the current filter selection.
func (m Model) Criteria() catalog.Criteria { return m.criteria }

// Run starts the storefront and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Watcher != nil {
		if err := opts.Watcher.Start(ctx); err != nil {
			logging.Get(logging.CategoryUI).Warn("cart watcher unavailable: %v", err)
			opts.Watcher.Stop()
			opts.Watcher = nil
		}
	}

	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
