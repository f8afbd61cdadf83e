package shop

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"medstore/cmd/medstore/ui"
	"medstore/internal/api"
	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/checkout"
	"medstore/internal/ident"
	"medstore/internal/payment"
	"medstore/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves products, orders and uploads from memory.
type fakeBackend struct {
	mu        sync.Mutex
	products  []catalog.Product
	created   api.CreateOrderResponse
	createErr error
	order     api.OrderDetail
	orderErr  error
	creates   int
}

func (f *fakeBackend) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return f.products, nil
}

func (f *fakeBackend) CreateOrder(ctx context.Context, req api.CreateOrderRequest) (api.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	return f.created, f.createErr
}

func (f *fakeBackend) GetOrder(ctx context.Context, id ident.ID) (api.OrderDetail, error) {
	return f.order, f.orderErr
}

func (f *fakeBackend) UploadPaymentProof(ctx context.Context, id ident.ID, filename string, file io.Reader, note string) (api.ProofUpload, error) {
	return api.ProofUpload{FileURL: "https://shop.test/media/" + filename}, nil
}

func testProducts() []catalog.Product {
	mk := func(id, name string, price int64, stock int, cat, created string) catalog.Product {
		return catalog.Product{
			ID:        ident.ID(id),
			Name:      name,
			Price:     catalog.NewPrice(price),
			Stock:     stock,
			Category:  &catalog.Category{Name: cat},
			CreatedAt: created,
		}
	}
	gloves := mk("1", "Nitrile Gloves", 4000, 10, "Gloves", "2024-01-01T00:00:00Z")
	gloves.Description = "**Powder-free** nitrile gloves, box of 100."
	return []catalog.Product{
		gloves,
		mk("2", "Dental Mirror", 1500, 5, "Dental Tools", "2024-02-01T00:00:00Z"),
		mk("3", "Autoclave", 250000, 0, "Sterilization", "2024-03-01T00:00:00Z"),
		mk("4", "Face Mask", 2000, 50, "PPE", "2024-04-01T00:00:00Z"),
	}
}

type harness struct {
	backend *fakeBackend
	storage store.Storage
	cart    *cart.Store
	orders  *checkout.LastOrderStore
	payment *payment.Service
	m       Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := &fakeBackend{
		products: testProducts(),
		created:  api.CreateOrderResponse{OrderID: "42", WhatsAppURL: "https://wa.me/2348000000000?text=Order%2042"},
		order: api.OrderDetail{
			ID:          "42",
			Status:      api.StatusUnpaid,
			TotalAmount: catalog.NewPrice(8000),
			WhatsAppURL: "https://wa.me/2348000000000?text=Order%2042",
		},
	}
	storage := store.NewMemory()
	c := cart.New(storage)
	orders := checkout.NewLastOrderStore(storage)
	svc := payment.NewService(backend, orders, "https://wa.me/2340000000000", payment.Bank{
		BankName:      "Opay Microfinance Bank",
		AccountName:   "MedStore",
		AccountNumber: "9134744193",
	})

	m := New(Options{
		Catalog:  catalog.NewLoader(backend, "http://shop.test"),
		Cart:     c,
		Checkout: checkout.New(backend, c, orders),
		Payment:  svc,
		Styles:   ui.NewStyles(ui.LightTheme()),
	})
	t.Cleanup(m.Close)

	return &harness{backend: backend, storage: storage, cart: c, orders: orders, payment: svc, m: m}
}

// send feeds msg to the model and returns the command it produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// drain delivers every pending component event.
func (h *harness) drain() {
	for {
		select {
		case msg := <-h.m.events:
			h.send(msg)
		default:
			return
		}
	}
}

// run executes a command that does not wait on channels and feeds its result.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	h.send(cmd())
	h.drain()
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	h.run(refreshCatalog(h.m.opts.Catalog))
	require.Len(t, h.m.view.Filtered, 4)
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(keyRunes(string(r)))
	}
}

func TestCatalogPage(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	// Newest first; three featured, the rest in the main list.
	assert.Equal(t, ident.ID("4"), h.m.view.Featured[0].ID)
	assert.Len(t, h.m.view.Featured, 3)
	assert.Len(t, h.m.view.Main, 1)

	view := h.m.View()
	assert.Contains(t, view, "Featured")
	assert.Contains(t, view, "Face Mask")
	assert.Contains(t, view, "Out of stock")
}

func TestCatalogFilters(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.send(keyRunes("i"))
	assert.True(t, h.m.Criteria().InStockOnly)
	assert.Len(t, h.m.view.Filtered, 3)

	h.send(keyRunes("s"))
	assert.Equal(t, catalog.SortPriceAsc, h.m.Criteria().SortBy)
	assert.Equal(t, ident.ID("2"), h.m.view.Filtered[0].ID)

	h.send(keyRunes("c"))
	assert.Equal(t, "Dental Tools", h.m.Criteria().Category)
	assert.Len(t, h.m.view.Filtered, 1)

	h.send(keyRunes("x"))
	assert.True(t, h.m.Criteria().IsDefault())
	assert.Len(t, h.m.view.Filtered, 4)
}

func TestCatalogSearch(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.send(keyRunes("/"))
	require.True(t, h.m.searching)
	h.typeText("GLOVE")
	h.send(keyEnter)

	assert.False(t, h.m.searching)
	assert.Equal(t, "GLOVE", h.m.Criteria().Search)
	require.Len(t, h.m.view.Filtered, 1)
	assert.Equal(t, "Nitrile Gloves", h.m.view.Filtered[0].Name)

	// Typing in the search box must not trigger shortcuts.
	h.send(keyRunes("/"))
	h.typeText("q")
	assert.Equal(t, PageCatalog, h.m.Page())
}

func TestEmptyCatalogNotice(t *testing.T) {
	h := newHarness(t)
	h.backend.products = nil
	h.run(refreshCatalog(h.m.opts.Catalog))

	assert.Contains(t, h.m.View(), catalog.NoticeEmpty)
}

func TestAddOpensCartDrawer(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.send(keyRunes("a"))
	h.drain()

	assert.Equal(t, DrawerCart, h.m.Drawer())
	assert.Equal(t, 1, h.cart.Quantity("4"))
	view := h.m.View()
	assert.Contains(t, view, "Your cart")
	assert.Contains(t, view, "₦2,000")
}

func TestOutOfStockCannotBeAdded(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.send(keyDown) // Autoclave, stock 0
	p, ok := h.m.selected()
	require.True(t, ok)
	require.False(t, p.InStock())

	h.send(keyRunes("a"))
	h.drain()

	assert.True(t, h.cart.IsEmpty())
	assert.Equal(t, DrawerClosed, h.m.Drawer())
	assert.Contains(t, h.m.View(), "out of stock")
}

func TestQuickView(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.send(keyRunes("x"))
	h.send(keyRunes("s")) // price_asc
	h.send(keyRunes("s")) // price_desc
	h.send(keyRunes("s")) // name_asc: Autoclave, Dental Mirror, Face Mask, Nitrile Gloves
	h.send(keyDown)
	h.send(keyDown)
	h.send(keyDown)
	h.send(keyEnter)
	require.Equal(t, PageQuickView, h.m.Page())
	assert.Contains(t, h.m.View(), "Nitrile Gloves")
	assert.Contains(t, h.m.View(), "Powder")

	h.send(keyRunes("-"))
	assert.Equal(t, 1, h.m.quickQty, "quantity never drops below 1")
	h.send(keyRunes("+"))
	h.send(keyRunes("+"))
	h.send(keyRunes("a"))
	h.drain()

	assert.Equal(t, 3, h.cart.Quantity("1"))
	assert.Equal(t, PageCatalog, h.m.Page())
	assert.Equal(t, DrawerCart, h.m.Drawer())
}

func TestDrawerEditsLines(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	require.NoError(t, h.cart.Add("4", 2))
	require.NoError(t, h.cart.Add("2", 1))
	h.drain()
	require.Equal(t, DrawerCart, h.m.Drawer())

	h.send(keyRunes("+"))
	assert.Equal(t, 3, h.cart.Quantity("4"))
	h.send(keyRunes("-"))
	h.send(keyRunes("-"))
	h.send(keyRunes("-"))
	assert.Equal(t, 1, h.cart.Quantity("4"), "quantity clamps at 1")

	h.send(keyDown)
	h.send(keyRunes("d"))
	assert.Equal(t, 0, h.cart.Quantity("2"))
	assert.Equal(t, 0, h.m.drawerCursor)

	h.send(keyEsc)
	assert.Equal(t, DrawerClosed, h.m.Drawer())
}

func TestCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	require.NoError(t, h.cart.Add("1", 2))
	h.drain()

	h.send(keyEnter)
	require.Equal(t, DrawerCheckout, h.m.Drawer())

	h.typeText("Ada Obi")
	h.send(keyTab)
	h.typeText("08031234567")

	cmd := h.send(keySave)
	require.True(t, h.m.submitting)
	h.run(cmd)

	assert.Equal(t, DrawerClosed, h.m.Drawer())
	assert.Equal(t, PageOrder, h.m.Page())
	assert.True(t, h.m.banner)
	assert.True(t, h.cart.IsEmpty())
	lo, ok := h.orders.Get()
	require.True(t, ok)
	assert.Equal(t, ident.ID("42"), lo.OrderID)

	h.run(loadStatus(h.payment, "42"))
	view := h.m.View()
	assert.Contains(t, view, "Order created")
	assert.Contains(t, view, "Unpaid")
	assert.Contains(t, view, "₦8,000")

	// The banner is shown once: revisiting the order does not repeat it.
	h.send(keyEsc)
	assert.False(t, h.m.banner)
	h.send(keyRunes("o"))
	assert.Equal(t, PageOrder, h.m.Page())
	assert.False(t, h.m.banner)
	assert.NotContains(t, h.m.View(), "Order created")
}

func TestCheckoutNavigatesWithFullEventBuffer(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	require.NoError(t, h.cart.Add("1", 1))
	h.drain()
	h.send(keyEnter)
	h.typeText("Ada")
	h.send(keyTab)
	h.typeText("0803")

	cmd := h.send(keySave)
	for len(h.m.events) < cap(h.m.events) {
		h.m.events <- cartEventMsg(cart.Event{Kind: cart.Changed})
	}
	done := cmd()
	for len(h.m.events) > 0 {
		<-h.m.events
	}

	next := h.send(done)
	assert.NotNil(t, next)
	assert.Equal(t, DrawerClosed, h.m.Drawer())
	assert.Equal(t, PageOrder, h.m.Page())
	assert.Equal(t, ident.ID("42"), h.m.orderID)
	assert.True(t, h.m.banner)
	assert.Empty(t, h.m.form[fieldName].Value())
}

func TestCheckoutValidation(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	require.NoError(t, h.cart.Add("1", 1))
	h.drain()
	h.send(keyEnter)

	h.run(h.send(keySave))

	assert.Equal(t, checkout.MsgNameRequired, h.m.formErr)
	assert.Contains(t, h.m.View(), checkout.MsgNameRequired)
	assert.Equal(t, DrawerCheckout, h.m.Drawer())
	assert.Zero(t, h.backend.creates)
}

func TestCheckoutTransportFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.createErr = errors.New("connection refused")
	h.load(t)
	require.NoError(t, h.cart.Add("1", 1))
	h.drain()
	h.send(keyEnter)
	h.typeText("Ada")
	h.send(keyTab)
	h.typeText("0803")

	h.run(h.send(keySave))

	assert.Equal(t, checkout.MsgFailed, h.m.formErr)
	assert.False(t, h.m.submitting)
	assert.Equal(t, 1, h.cart.Count(), "cart survives a failed checkout")
}

func TestPaymentPage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orders.Set(checkout.LastOrder{OrderID: "42", WhatsAppURL: "https://wa.me/2348000000000"}))
	h.backend.orderErr = errors.New("boom")

	h.run(h.send(keyRunes("p")))
	require.Equal(t, PagePayment, h.m.Page())

	view := h.m.View()
	assert.Contains(t, view, "Order ID: 42")
	assert.Contains(t, view, payment.NoticePaymentDetail)
	assert.Contains(t, view, "9134744193")
	assert.Contains(t, view, "https://wa.me/2348000000000?text=")
}

func TestPaymentUpload(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orders.Set(checkout.LastOrder{OrderID: "42", WhatsAppURL: "https://wa.me/2348000000000"}))
	h.run(h.send(keyRunes("p")))

	h.send(keyRunes("u"))
	require.True(t, h.m.proofPath.Focused())

	path := t.TempDir() + "/receipt.png"
	require.NoError(t, writeFile(path, "png"))
	h.typeText(path)
	h.run(h.send(keyEnter))

	assert.Equal(t, "https://shop.test/media/receipt.png", h.m.proofURL)
	assert.Contains(t, h.m.View(), "receipt.png")
}

func TestStalePageResultIgnored(t *testing.T) {
	h := newHarness(t)
	h.send(pageLoadedMsg{page: PagePayment, payment: payment.Page{OrderID: "99"}})
	assert.Equal(t, PageCatalog, h.m.Page())
	assert.True(t, h.m.detail.OrderID.IsZero())
}

func TestStorageChangeReloadsCart(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.storage.Write(store.CartKey, []byte(`[{"product_id":4,"quantity":2}]`)))

	h.send(storageChangedMsg{key: store.CartKey})
	h.drain()

	assert.Equal(t, 2, h.cart.Quantity("4"))
	assert.Contains(t, h.m.View(), "🛒 2")
}

func TestWindowSize(t *testing.T) {
	h := newHarness(t)
	for _, size := range []tea.WindowSizeMsg{{Width: 120, Height: 40}, {Width: 0, Height: 0}, {Width: -1, Height: -1}} {
		h.send(size)
		assert.GreaterOrEqual(t, h.m.width, 0)
		_ = h.m.View()
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestHelpPerPage(t *testing.T) {
	k := defaultKeyMap()
	assert.NotEmpty(t, k.helpFor(PageCatalog, DrawerClosed).ShortHelp())
	assert.Contains(t, k.helpFor(PageCatalog, DrawerCheckout).ShortHelp(), k.Submit)
	assert.True(t, strings.Contains(k.Upload.Help().Desc, "proof"))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
