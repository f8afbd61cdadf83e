package shop

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding of the storefront. Which ones apply depends on
// the current page; see helpFor.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	Quit     key.Binding
	Search   key.Binding
	Category key.Binding
	Sort     key.Binding
	InStock  key.Binding
	Clear    key.Binding
	Refresh  key.Binding
	Add      key.Binding
	More     key.Binding
	Less     key.Binding
	Remove   key.Binding
	Cart     key.Binding
	Checkout key.Binding
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	Order    key.Binding
	Pay      key.Binding
	Upload   key.Binding
	Help     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "quick view")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		InStock:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "in stock")),
		Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to cart")),
		More:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more")),
		Less:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less")),
		Remove:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		Cart:     key.NewBinding(key.WithKeys("b", "tab"), key.WithHelp("b", "cart")),
		Checkout: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "checkout")),
		Next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "place order")),
		Order:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "last order")),
		Pay:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pay")),
		Upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload proof")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// pageHelp adapts the bindings of one page to help.KeyMap.
type pageHelp struct {
	short []key.Binding
	full  [][]key.Binding
}

func (h pageHelp) ShortHelp() []key.Binding  { return h.short }
func (h pageHelp) FullHelp() [][]key.Binding { return h.full }

func (k keyMap) helpFor(p Page, d Drawer) pageHelp {
	switch {
	case d == DrawerCheckout:
		return pageHelp{
			short: []key.Binding{k.Next, k.Submit, k.Back},
			full:  [][]key.Binding{{k.Next, k.Prev}, {k.Submit, k.Back}},
		}
	case d == DrawerCart:
		return pageHelp{
			short: []key.Binding{k.Up, k.Down, k.More, k.Less, k.Remove, k.Checkout, k.Back},
			full:  [][]key.Binding{{k.Up, k.Down}, {k.More, k.Less, k.Remove}, {k.Checkout, k.Back}},
		}
	case p == PageQuickView:
		return pageHelp{
			short: []key.Binding{k.More, k.Less, k.Add, k.Back},
			full:  [][]key.Binding{{k.More, k.Less}, {k.Add, k.Back}},
		}
	case p == PageOrder:
		return pageHelp{
			short: []key.Binding{k.Pay, k.Refresh, k.Back},
			full:  [][]key.Binding{{k.Pay, k.Refresh, k.Back}},
		}
	case p == PagePayment:
		return pageHelp{
			short: []key.Binding{k.Upload, k.Refresh, k.Back},
			full:  [][]key.Binding{{k.Upload, k.Refresh, k.Back}},
		}
	default:
		return pageHelp{
			short: []key.Binding{k.Search, k.Category, k.Sort, k.Add, k.Cart, k.Help, k.Quit},
			full: [][]key.Binding{
				{k.Up, k.Down, k.Open, k.Add},
				{k.Search, k.Category, k.Sort, k.InStock, k.Clear},
				{k.Cart, k.Order, k.Pay, k.Refresh},
				{k.Help, k.Quit},
			},
		}
	}
}
