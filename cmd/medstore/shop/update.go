package shop

import (
	"errors"
	"fmt"

	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/checkout"
	"medstore/internal/ident"
	"medstore/internal/logging"
	"medstore/internal/payment"
	"medstore/internal/store"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		m.help.Width = m.width
		m.details.Width = max(min(m.width-4, 80), 20)
		m.details.Height = max(m.height/3, 5)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.syncCatalog(catalog.Snapshot(msg))
		return m, waitForEvent(m.events)

	case cartEventMsg:
		if msg.Kind == cart.OpenRequested && m.drawer == DrawerClosed {
			m.drawer = DrawerCart
		}
		m.clampDrawer()
		return m, waitForEvent(m.events)

	case checkoutEventMsg:
		return m.handleCheckoutEvent(checkout.Event(msg))

	case storageChangedMsg:
		if msg.key == store.CartKey {
			logging.UIDebug("cart changed on disk, reloading")
			m.opts.Cart.Reload()
		}
		if m.opts.Watcher == nil {
			return m, nil
		}
		return m, watchStorage(m.opts.Watcher)

	case refreshDoneMsg:
		if errors.Is(msg.err, catalog.ErrStale) {
			return m, nil
		}
		if msg.err != nil {
			m.status = "Refresh cancelled."
			return m, nil
		}
		m.syncCatalog(msg.snap)
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case pageLoadedMsg:
		if errors.Is(msg.err, payment.ErrStale) || msg.page != m.page {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.detail = msg.payment
		m.orderID = msg.payment.OrderID
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil {
			m.status = "Upload failed: " + msg.err.Error()
			return m, nil
		}
		m.proofURL = msg.url
		m.proofPath.Blur()
		m.status = "Proof uploaded. Send it on WhatsApp with the link below."
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleCheckoutEvent(ev checkout.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.events)
	switch ev.Kind {
	case checkout.CloseCart:
		m.drawer = DrawerClosed
		m.resetForm()
		return m, next
	case checkout.ShowOrder:
		if ev.FromCheckout {
			return m, tea.Batch(next, m.showCreatedOrder(ev.OrderID))
		}
		return m, tea.Batch(next, m.openOrder(ev.OrderID, false))
	}
	return m, next
}

func (m Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if errors.Is(msg.err, checkout.ErrInProgress) {
		return m, nil
	}
	if msg.err != nil {
		var ce *checkout.Error
		if errors.As(msg.err, &ce) {
			m.formErr = ce.Message
		} else {
			m.formErr = checkout.MsgFailed
		}
		return m, nil
	}
	// The checkout events may have been dropped; navigate from the result too.
	cmd := m.showCreatedOrder(msg.res.OrderID)
	if msg.res.PersistErr != nil {
		m.status = fmt.Sprintf("Order %s created, but it could not be saved on this device. Note the Order ID.", msg.res.OrderID)
	}
	return m, cmd
}

// showCreatedOrder closes the checkout drawer and opens the new order with
// its banner. It does nothing when that order is already shown.
func (m *Model) showCreatedOrder(id ident.ID) tea.Cmd {
	if m.page == PageOrder && m.orderID == id && m.banner {
		return nil
	}
	m.drawer = DrawerClosed
	m.resetForm()
	return m.openOrder(id, true)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	m.status = ""

	switch m.drawer {
	case DrawerCheckout:
		return m.handleCheckoutKey(msg)
	case DrawerCart:
		return m.handleDrawerKey(msg)
	}

	switch m.page {
	case PageQuickView:
		return m.handleQuickViewKey(msg)
	case PageOrder:
		return m.handleOrderKey(msg)
	case PagePayment:
		return m.handlePaymentKey(msg)
	default:
		return m.handleCatalogKey(msg)
	}
}

func (m Model) handleCatalogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.criteria.Search = m.search.Value()
		m.cursor = 0
		m.rebuild()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Filtered)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if p, ok := m.selected(); ok {
			m.openQuickView(p)
		}
	case key.Matches(msg, m.keys.Add):
		if p, ok := m.selected(); ok {
			m.addToCart(p, 1)
		}
	case key.Matches(msg, m.keys.Category):
		m.criteria.Category = nextCategory(m.categories, m.criteria.Category)
		m.cursor = 0
		m.rebuild()
	case key.Matches(msg, m.keys.Sort):
		m.criteria.SortBy = m.criteria.NextSort()
		m.rebuild()
	case key.Matches(msg, m.keys.InStock):
		m.criteria.InStockOnly = !m.criteria.InStockOnly
		m.cursor = 0
		m.rebuild()
	case key.Matches(msg, m.keys.Clear):
		m.criteria = catalog.DefaultCriteria()
		m.search.SetValue("")
		m.cursor = 0
		m.rebuild()
	case key.Matches(msg, m.keys.Refresh):
		return m, refreshCatalog(m.opts.Catalog)
	case key.Matches(msg, m.keys.Cart):
		m.drawer = DrawerCart
		m.clampDrawer()
	case key.Matches(msg, m.keys.Order):
		id := m.opts.Payment.ResolveOrderID(ident.None)
		if id.IsZero() {
			m.status = "No order yet. Place one from the cart."
			return m, nil
		}
		return m, m.openOrder(id, false)
	case key.Matches(msg, m.keys.Pay):
		return m, m.openPayment(ident.None)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleQuickViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.page = PageCatalog
		m.quick = nil
	case key.Matches(msg, m.keys.More):
		m.quickQty++
	case key.Matches(msg, m.keys.Less):
		m.quickQty = max(m.quickQty-1, 1)
	case key.Matches(msg, m.keys.Add), key.Matches(msg, m.keys.Open):
		if m.quick != nil && m.addToCart(*m.quick, m.quickQty) {
			m.page = PageCatalog
			m.quick = nil
		}
	default:
		var cmd tea.Cmd
		m.details, cmd = m.details.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleDrawerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.opts.Cart.Items()
	var current cart.Line
	if m.drawerCursor < len(items) {
		current = items[m.drawerCursor]
	}

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Cart), key.Matches(msg, m.keys.Quit):
		m.drawer = DrawerClosed
	case key.Matches(msg, m.keys.Up):
		if m.drawerCursor > 0 {
			m.drawerCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.drawerCursor < len(items)-1 {
			m.drawerCursor++
		}
	case key.Matches(msg, m.keys.More):
		if current.Quantity > 0 {
			m.cartErr(m.opts.Cart.SetQuantity(current.ProductID, current.Quantity+1))
		}
	case key.Matches(msg, m.keys.Less):
		if current.Quantity > 0 {
			m.cartErr(m.opts.Cart.SetQuantity(current.ProductID, current.Quantity-1))
		}
	case key.Matches(msg, m.keys.Remove):
		if current.Quantity > 0 {
			m.cartErr(m.opts.Cart.Remove(current.ProductID))
			m.clampDrawer()
		}
	case key.Matches(msg, m.keys.Checkout):
		if m.opts.Cart.IsEmpty() {
			m.status = checkout.MsgCartEmpty
			return m, nil
		}
		m.drawer = DrawerCheckout
		m.formErr = ""
		m.focus = fieldName
		return m, m.form[fieldName].Focus()
	}
	return m, nil
}

func (m Model) handleCheckoutKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if !m.submitting {
			m.form[m.focus].Blur()
			m.drawer = DrawerCart
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case msg.Type == tea.KeyEnter:
		if m.focus == fieldCount-1 {
			return m.submit()
		}
		return m, m.focusField(m.focus + 1)
	case key.Matches(msg, m.keys.Next):
		return m, m.focusField((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)
	}

	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleOrderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.leavePage()
		m.page = PageCatalog
	case key.Matches(msg, m.keys.Pay):
		return m, m.openPayment(m.orderID)
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, loadStatus(m.opts.Payment, m.orderID)
	}
	return m, nil
}

func (m Model) handlePaymentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.proofPath.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			m.proofPath.Blur()
			return m, nil
		case tea.KeyEnter:
			if m.uploading {
				return m, nil
			}
			m.uploading = true
			return m, uploadProof(m.opts.Payment, m.detail.OrderID, m.proofPath.Value(), "")
		}
		var cmd tea.Cmd
		m.proofPath, cmd = m.proofPath.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.leavePage()
		m.page = PageCatalog
	case key.Matches(msg, m.keys.Upload):
		if m.detail.OrderID.IsZero() {
			m.status = "No order to attach a proof to."
			return m, nil
		}
		return m, m.proofPath.Focus()
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, loadPayment(m.opts.Payment, m.orderID)
	}
	return m, nil
}

// submit starts a checkout submission unless one is running.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.formErr = ""
	return m, submitOrder(m.opts.Checkout, m.formValues())
}

func (m *Model) focusField(i int) tea.Cmd {
	m.form[m.focus].Blur()
	m.focus = i
	return m.form[i].Focus()
}

func (m *Model) resetForm() {
	for i := range m.form {
		m.form[i].Blur()
		m.form[i].SetValue("")
	}
	m.focus = fieldName
	m.formErr = ""
	m.submitting = false
}

// addToCart adds qty of p. Out-of-stock products cannot be added.
func (m *Model) addToCart(p catalog.Product, qty int) bool {
	if !p.InStock() {
		m.status = p.Name + " is out of stock."
		return false
	}
	m.cartErr(m.opts.Cart.Add(p.ID, qty))
	if m.status == "" {
		m.status = fmt.Sprintf("Added %s to cart.", p.Name)
	}
	return true
}

func (m *Model) cartErr(err error) {
	if err == nil {
		return
	}
	logging.Get(logging.CategoryUI).Warn("cart change: %v", err)
	m.status = "Cart updated, but it could not be saved on this device."
}

func (m *Model) clampDrawer() {
	n := len(m.opts.Cart.Items())
	if m.drawerCursor >= n {
		m.drawerCursor = n - 1
	}
	if m.drawerCursor < 0 {
		m.drawerCursor = 0
	}
}

func (m *Model) openQuickView(p catalog.Product) {
	m.quick = &p
	m.quickQty = 1
	m.page = PageQuickView
	m.details.SetContent(m.renderDescription(p))
	m.details.GotoTop()
}

// openOrder switches to the status page of id. The order-created banner is
// shown only when arriving from a successful checkout.
func (m *Model) openOrder(id ident.ID, fromCheckout bool) tea.Cmd {
	m.leavePage()
	m.page = PageOrder
	m.orderID = id
	m.banner = fromCheckout
	m.detail = payment.Page{OrderID: id}
	m.loading = true
	return loadStatus(m.opts.Payment, id)
}

func (m *Model) openPayment(id ident.ID) tea.Cmd {
	m.leavePage()
	m.page = PagePayment
	m.orderID = m.opts.Payment.ResolveOrderID(id)
	m.detail = payment.Page{OrderID: m.orderID}
	m.loading = true
	return loadPayment(m.opts.Payment, id)
}

// leavePage drops per-page state and any in-flight detail load.
func (m *Model) leavePage() {
	m.opts.Payment.Invalidate()
	m.banner = false
	m.loading = false
	m.detail = payment.Page{}
	m.proofPath.Blur()
	m.proofPath.SetValue("")
	m.proofURL = ""
	m.uploading = false
}

// nextCategory cycles through the category list.
func nextCategory(categories []string, current string) string {
	for i, c := range categories {
		if c == current {
			return categories[(i+1)%len(categories)]
		}
	}
	return catalog.AllCategories
}
