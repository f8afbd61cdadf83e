package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"medstore/internal/api"
	"medstore/internal/cart"
	"medstore/internal/catalog"
	"medstore/internal/ident"
	"medstore/internal/store"
)

type checkoutTestContext struct {
	products []catalog.Product
	storage  *store.Memory
	cart     *cart.Store
	orders   *LastOrderStore
	creator  *fakeCreator
	machine  *Machine
	events   []Event
	err      error
}

func (c *checkoutTestContext) reset() {
	c.products = nil
	c.storage = store.NewMemory()
	c.cart = cart.New(c.storage)
	c.orders = NewLastOrderStore(c.storage)
	c.creator = &fakeCreator{}
	c.machine = New(c.creator, c.cart, c.orders)
	c.events = nil
	c.err = nil
	c.machine.Subscribe(func(e Event) { c.events = append(c.events, e) })
}

func (c *checkoutTestContext) theCatalogHasProductPriced(id string, price int) error {
	c.products = append(c.products, catalog.Product{ID: ident.ID(id), Name: id, Price: catalog.NewPrice(int64(price))})
	return nil
}

func (c *checkoutTestContext) theCartHolds(qty int, id string) error {
	return c.cart.Add(ident.ID(id), qty)
}

func (c *checkoutTestContext) theOrderAPIAnswersWithLink(orderID int, link string) error {
	c.creator.resp = api.CreateOrderResponse{OrderID: ident.FromInt(int64(orderID)), WhatsAppURL: link}
	return nil
}

func (c *checkoutTestContext) theOrderAPIAnswersWithNoLink(orderID int) error {
	c.creator.resp = api.CreateOrderResponse{OrderID: ident.FromInt(int64(orderID))}
	return nil
}

func (c *checkoutTestContext) theCustomerChecksOut(name, phone string) error {
	_, c.err = c.machine.Submit(context.Background(), Form{CustomerName: name, Phone: phone})
	return nil
}

func (c *checkoutTestContext) theCheckoutStateIs(want string) error {
	if got := c.machine.State().String(); got != want {
		return fmt.Errorf("expected state %s, got %s (err=%v)", want, got, c.err)
	}
	return nil
}

func (c *checkoutTestContext) theOrderAPIWasCalled(n int) error {
	if len(c.creator.calls) != n {
		return fmt.Errorf("expected %d calls, got %d", n, len(c.creator.calls))
	}
	return nil
}

func (c *checkoutTestContext) theLastRequestCarried(qty int, id string) error {
	if len(c.creator.calls) == 0 {
		return errors.New("no request made")
	}
	items := c.creator.calls[len(c.creator.calls)-1].Items
	if len(items) != 1 || items[0] != (api.OrderItem{ProductID: ident.ID(id), Quantity: qty}) {
		return fmt.Errorf("unexpected items %+v", items)
	}
	return nil
}

func (c *checkoutTestContext) theLastOrderIs(orderID int, link string) error {
	lo, ok := c.orders.Get()
	if !ok {
		return errors.New("no last order")
	}
	if lo.OrderID != ident.FromInt(int64(orderID)) || lo.WhatsAppURL != link {
		return fmt.Errorf("unexpected last order %+v", lo)
	}
	if lo.CreatedAt.IsZero() {
		return errors.New("last order has no timestamp")
	}
	return nil
}

func (c *checkoutTestContext) thereIsNoLastOrder() error {
	if lo, ok := c.orders.Get(); ok {
		return fmt.Errorf("unexpected last order %+v", lo)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	if !c.cart.IsEmpty() {
		return fmt.Errorf("cart not empty: %+v", c.cart.Items())
	}
	return nil
}

func (c *checkoutTestContext) theCartStillHolds(qty int, id string) error {
	if got := c.cart.Quantity(ident.ID(id)); got != qty {
		return fmt.Errorf("expected %d of %s, got %d", qty, id, got)
	}
	return nil
}

func (c *checkoutTestContext) theUIWasAskedToShowOrder(orderID int) error {
	for _, e := range c.events {
		if e.Kind == ShowOrder && e.OrderID == ident.FromInt(int64(orderID)) && e.FromCheckout {
			return nil
		}
	}
	return fmt.Errorf("no ShowOrder event for %d in %+v", orderID, c.events)
}

func (c *checkoutTestContext) theFailureKindIs(want string) error {
	kind, ok := KindOf(c.err)
	if !ok {
		return fmt.Errorf("expected checkout error, got %v", c.err)
	}
	if kind.String() != want {
		return fmt.Errorf("expected kind %s, got %s", want, kind)
	}
	return nil
}

func (c *checkoutTestContext) theFailureMessageIs(want string) error {
	var ce *Error
	if !errors.As(c.err, &ce) || ce.Message != want {
		return fmt.Errorf("expected message %q, got %v", want, c.err)
	}
	return nil
}

func (c *checkoutTestContext) theCartTotalIs(want int) error {
	got := c.cart.Total(catalog.NewIndex(c.products))
	if !got.Equal(decimal.NewFromInt(int64(want))) {
		return fmt.Errorf("expected total %d, got %s", want, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog has product "([^"]*)" priced (\d+)$`, tc.theCatalogHasProductPriced)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.theCartHolds)
	ctx.Step(`^the Order API answers with order (\d+) and link "([^"]*)"$`, tc.theOrderAPIAnswersWithLink)
	ctx.Step(`^the Order API answers with order (\d+) and no link$`, tc.theOrderAPIAnswersWithNoLink)

	// When steps
	ctx.Step(`^the customer "([^"]*)" with phone "([^"]*)" checks out$`, tc.theCustomerChecksOut)

	// Then steps
	ctx.Step(`^the checkout state is "([^"]*)"$`, tc.theCheckoutStateIs)
	ctx.Step(`^the Order API was called (\d+) times?$`, tc.theOrderAPIWasCalled)
	ctx.Step(`^the last request carried (\d+) of "([^"]*)"$`, tc.theLastRequestCarried)
	ctx.Step(`^the last order is (\d+) with link "([^"]*)"$`, tc.theLastOrderIs)
	ctx.Step(`^there is no last order$`, tc.thereIsNoLastOrder)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)" still$`, tc.theCartStillHolds)
	ctx.Step(`^the UI was asked to show order (\d+) from checkout$`, tc.theUIWasAskedToShowOrder)
	ctx.Step(`^the failure kind is "([^"]*)"$`, tc.theFailureKindIs)
	ctx.Step(`^the failure message is "([^"]*)"$`, tc.theFailureMessageIs)
	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
