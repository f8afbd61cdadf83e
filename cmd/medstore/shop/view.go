package shop

import (
	"fmt"
	"strings"

	"medstore/internal/catalog"
	"medstore/internal/checkout"
	"medstore/internal/payment"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func (m Model) View() string {
	var main string
	switch m.page {
	case PageQuickView:
		main = m.renderQuickView()
	case PageOrder:
		main = m.renderOrder()
	case PagePayment:
		main = m.renderPayment()
	default:
		main = m.renderCatalog()
	}

	switch m.drawer {
	case DrawerCart:
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", m.renderDrawer())
	case DrawerCheckout:
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", m.renderCheckout())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		main,
		m.renderFooter(),
	)
}

func (m Model) money(d decimal.Decimal) string {
	return catalog.FormatMoney(m.opts.CurrencySymbol, d)
}

func (m Model) renderHeader() string {
	count := m.opts.Cart.Count()
	title := "MedStore"
	cart := fmt.Sprintf("🛒 %d", count)
	if m.width > 0 {
		gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(cart)-4, 1)
		return m.styles.Header.Render(title + strings.Repeat(" ", gap) + cart)
	}
	return m.styles.Header.Render(title + "  " + cart)
}

func (m Model) renderFooter() string {
	var sb strings.Builder
	if m.status != "" {
		sb.WriteString(m.styles.Info.Render(m.status))
		sb.WriteString("\n")
	}
	if m.opts.Cart.Degraded() {
		sb.WriteString(m.styles.Warning.Render("Cart is not being saved on this device."))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys.helpFor(m.page, m.drawer)))
	return m.styles.Footer.Render(sb.String())
}

func (m Model) renderCatalog() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("Medical & Dental Equipment"))
	sb.WriteString("\n")
	sb.WriteString(m.renderFilters())
	sb.WriteString("\n\n")

	if m.snapshot.Loading {
		sb.WriteString(m.spinner.View() + " Loading products…")
		return sb.String()
	}
	if m.snapshot.Notice != "" {
		sb.WriteString(m.styles.Notice.Render(m.snapshot.Notice))
		return sb.String()
	}
	if len(m.view.Filtered) == 0 {
		sb.WriteString(m.styles.Muted.Render("No products match your filters. Press x to clear them."))
		return sb.String()
	}

	if len(m.view.Featured) > 0 {
		sb.WriteString(m.styles.Subtitle.Render("Featured"))
		sb.WriteString("\n")
		cards := make([]string, 0, len(m.view.Featured))
		for i, p := range m.view.Featured {
			cards = append(cards, m.renderCard(p, i == m.cursor))
		}
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		sb.WriteString("\n")
	}

	if len(m.view.Main) > 0 {
		sb.WriteString(m.styles.Subtitle.Render("All products"))
		sb.WriteString("\n")
		offset := len(m.view.Featured)
		for i, p := range m.view.Main {
			sb.WriteString(m.renderRow(p, offset+i == m.cursor))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m Model) renderFilters() string {
	stock := "all stock"
	if m.criteria.InStockOnly {
		stock = "in stock only"
	}
	line := fmt.Sprintf("Category: %s · Sort: %s · %s",
		m.criteria.Category, m.criteria.SortBy.Label(), stock)
	if m.searching || m.criteria.Search != "" {
		return m.search.View() + "\n" + m.styles.Muted.Render(line)
	}
	return m.styles.Muted.Render(line)
}

func (m Model) renderCard(p catalog.Product, selected bool) string {
	style := m.styles.Card
	if selected {
		style = m.styles.SelectedCard
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Badge.Render(p.Initials()),
		m.styles.Bold.Render(truncate(p.Name, 22)),
		m.styles.Muted.Render(truncate(p.CategoryName(), 22)),
		m.styles.Price.Render(m.money(p.Price.Decimal)),
		m.styles.StockLabel(p.Stock),
	)
	return style.Width(26).Render(body)
}

func (m Model) renderRow(p catalog.Product, selected bool) string {
	cursor := "  "
	if selected {
		cursor = m.styles.Title.Render("▸ ")
	}
	return fmt.Sprintf("%s%-28s %-18s %12s  %s",
		cursor,
		truncate(p.Name, 28),
		truncate(p.CategoryName(), 18),
		m.money(p.Price.Decimal),
		m.styles.StockLabel(p.Stock),
	)
}

func (m Model) renderQuickView() string {
	if m.quick == nil {
		return ""
	}
	p := *m.quick
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(p.Name))
	sb.WriteString("\n")
	if p.CategoryName() != "" {
		sb.WriteString(m.styles.Muted.Render(p.CategoryName()))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Price.Render(m.money(p.Price.Decimal)))
	sb.WriteString("  ")
	sb.WriteString(m.styles.StockLabel(p.Stock))
	sb.WriteString("\n")
	if p.ImageURL != "" {
		sb.WriteString(m.styles.Muted.Render("Image: " + p.ImageURL))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.details.View())
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Quantity: %d", m.quickQty))
	if p.InStock() {
		sb.WriteString("   " + m.styles.Button.Render("[a] Add to Cart"))
	} else {
		sb.WriteString("   " + m.styles.Muted.Render("Out of stock"))
	}
	return m.styles.Card.Render(sb.String())
}

// renderDescription renders the product description as markdown, falling
// back to the raw text when no renderer is available.
func (m Model) renderDescription(p catalog.Product) string {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return m.styles.Muted.Render("No description.")
	}
	style := "light"
	if m.styles.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(m.details.Width-2, 20)),
	)
	if err != nil {
		return desc
	}
	out, err := r.Render(desc)
	if err != nil {
		return desc
	}
	return strings.TrimSpace(out)
}

func (m Model) renderDrawer() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Your cart"))
	sb.WriteString("\n\n")

	items := m.opts.Cart.Items()
	if len(items) == 0 {
		sb.WriteString(m.styles.Muted.Render(checkout.MsgCartEmpty))
		return m.styles.Drawer.Width(44).Render(sb.String())
	}

	for i, l := range items {
		cursor := "  "
		if i == m.drawerCursor {
			cursor = m.styles.Title.Render("▸ ")
		}
		p, ok := m.index.Lookup(l.ProductID)
		if !ok {
			sb.WriteString(fmt.Sprintf("%s%s × %d %s\n", cursor, l.ProductID, l.Quantity, m.styles.Muted.Render("(unavailable)")))
			continue
		}
		sub := p.Price.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
		sb.WriteString(fmt.Sprintf("%s%s\n    %d × %s = %s\n",
			cursor, truncate(p.Name, 34), l.Quantity, m.money(p.Price.Decimal), m.styles.Price.Render(m.money(sub))))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.RenderDivider(40))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total  %s\n", m.styles.Price.Render(m.money(m.opts.Cart.Total(m.index)))))
	sb.WriteString(m.styles.Button.Render("[enter] Checkout"))
	return m.styles.Drawer.Width(44).Render(sb.String())
}

func (m Model) renderCheckout() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Checkout"))
	sb.WriteString("\n\n")
	for i := range m.form {
		sb.WriteString(m.form[i].View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total  %s\n\n", m.styles.Price.Render(m.money(m.opts.Cart.Total(m.index)))))
	if m.formErr != "" {
		sb.WriteString(m.styles.Error.Render(m.formErr))
		sb.WriteString("\n")
	}
	if m.submitting {
		sb.WriteString(m.spinner.View() + " Placing order…")
	} else {
		sb.WriteString(m.styles.Button.Render("[ctrl+s] Place order"))
	}
	return m.styles.Drawer.Width(44).Render(sb.String())
}

func (m Model) renderOrder() string {
	var sb strings.Builder
	if m.banner {
		sb.WriteString(m.styles.Banner.Render("Order created ✅  Complete payment and send your proof on WhatsApp."))
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.styles.Title.Render("Order " + m.orderID.String()))
	sb.WriteString("\n")
	sb.WriteString(m.renderDetail())

	if m.detail.WhatsApp != "" {
		sb.WriteString(m.styles.WhatsApp.Render("WhatsApp: ") + m.detail.WhatsApp)
	} else if !m.loading {
		sb.WriteString(m.styles.Muted.Render("WhatsApp link not saved"))
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderBank())
	return sb.String()
}

func (m Model) renderPayment() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Pay by bank transfer"))
	sb.WriteString("\n")
	id := "—"
	if !m.detail.OrderID.IsZero() {
		id = m.detail.OrderID.String()
	}
	sb.WriteString("Order ID: " + id + "\n")
	sb.WriteString(m.renderDetail())
	sb.WriteString(m.renderBank())
	sb.WriteString("\n")

	if m.proofPath.Focused() || m.proofPath.Value() != "" {
		sb.WriteString(m.proofPath.View())
		sb.WriteString("\n")
	}
	if m.uploading {
		sb.WriteString(m.spinner.View() + " Uploading…\n")
	}
	if !m.loading {
		sb.WriteString(m.styles.WhatsApp.Render("Send proof on WhatsApp:"))
		sb.WriteString("\n")
		sb.WriteString(payment.ProofLink(m.detail, m.proofURL))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDetail renders the loaded order detail, or the loading/notice line.
func (m Model) renderDetail() string {
	if m.loading {
		return m.spinner.View() + " Loading order…\n"
	}
	if m.detail.Notice != "" {
		return m.styles.Notice.Render(m.detail.Notice) + "\n"
	}
	d := m.detail.Detail
	if d == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status: %s\n", m.styles.Badge.Render(d.Status.Label())))
	for _, it := range d.Items {
		sb.WriteString(fmt.Sprintf("  %s × %d  %s\n", it.ProductName, it.Quantity, m.money(it.PriceAtTime.Decimal)))
	}
	sb.WriteString(fmt.Sprintf("Total: %s\n", m.styles.Price.Render(m.money(d.TotalAmount.Decimal))))
	return sb.String()
}

func (m Model) renderBank() string {
	b := m.opts.Payment.Bank()
	lines := []string{
		m.styles.Bold.Render("Bank transfer details"),
		"Bank:    " + b.BankName,
		"Name:    " + b.AccountName,
		"Account: " + b.AccountNumber,
	}
	if b.Note != "" {
		lines = append(lines, m.styles.Muted.Render(b.Note))
	}
	return m.styles.Card.Render(strings.Join(lines, "\n")) + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
