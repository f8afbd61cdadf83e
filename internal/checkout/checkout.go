// Package checkout turns the cart plus contact details into a remote order.
//
// A Machine moves Idle → Submitting → Succeeded | Failed. Only a complete
// success mutates local state: the LastOrder record is overwritten, the cart
// is cleared and the UI is told to close the cart and show the order.
// Retrying after a failure re-sends the full item list; the backend has no
// idempotency key, so a retry after a lost response can create a duplicate
// order.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medstore/internal/api"
	"medstore/internal/cart"
	"medstore/internal/ident"
	"medstore/internal/logging"
	"medstore/internal/notify"
)

// State of the checkout transition.
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OrderCreator is the Order API.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (api.CreateOrderResponse, error)
}

// Form is the customer's contact details.
type Form struct {
	CustomerName string
	Phone        string
	Address      string
}

func (f Form) normalized() Form {
	return Form{
		CustomerName: strings.TrimSpace(f.CustomerName),
		Phone:        strings.TrimSpace(f.Phone),
		Address:      strings.TrimSpace(f.Address),
	}
}

// Validate checks the required fields.
func (f Form) Validate() error {
	n := f.normalized()
	if n.CustomerName == "" {
		return newValidation("customer_name", MsgNameRequired)
	}
	if n.Phone == "" {
		return newValidation("phone", MsgPhoneRequired)
	}
	return nil
}

// Result is a successful checkout.
type Result struct {
	OrderID     ident.ID
	WhatsAppURL string
	// PersistErr is set when the order was created remotely but the local
	// LastOrder or cart could not be persisted. The order still exists.
	PersistErr error
}

// EventKind identifies navigation events emitted on success.
type EventKind int

const (
	// CloseCart asks the UI to dismiss any cart presentation.
	CloseCart EventKind = iota
	// ShowOrder asks the UI to navigate to the order status view.
	ShowOrder
)

// Event is published to subscribers after a successful checkout.
type Event struct {
	Kind    EventKind
	OrderID ident.ID
	// FromCheckout is a one-shot flag for the destination view's success
	// banner. It is never persisted.
	FromCheckout bool
}

// Machine runs the checkout transition.
type Machine struct {
	creator OrderCreator
	cart    *cart.Store
	orders  *LastOrderStore
	now     func() time.Time
	tracer  trace.Tracer

	mu      sync.Mutex
	state   State
	lastErr error

	events notify.Hub[Event]
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides time.Now for the LastOrder timestamp.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New creates a Machine in the Idle state.
func New(creator OrderCreator, c *cart.Store, orders *LastOrderStore, opts ...Option) *Machine {
	m := &Machine{
		creator: creator,
		cart:    c,
		orders:  orders,
		now:     time.Now,
		tracer:  otel.Tracer("medstore/checkout"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error of the last failed attempt, or nil.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Subscribe registers fn for navigation events.
func (m *Machine) Subscribe(fn func(Event)) func() {
	return m.events.Subscribe(fn)
}

// Reset returns a finished machine to Idle.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Submitting {
		m.state = Idle
		m.lastErr = nil
	}
}

// Submit validates form, creates the order and commits local state.
// Errors are *Error values (see KindOf) or ErrInProgress.
func (m *Machine) Submit(ctx context.Context, form Form) (Result, error) {
	m.mu.Lock()
	if m.state == Submitting {
		m.mu.Unlock()
		return Result{}, ErrInProgress
	}

	items := m.cart.Items()
	if err := form.Validate(); err != nil {
		return Result{}, m.failLocked(err)
	}
	if len(items) == 0 {
		return Result{}, m.failLocked(newValidation("items", MsgCartEmpty))
	}
	m.state = Submitting
	m.lastErr = nil
	m.mu.Unlock()

	f := form.normalized()
	req := api.CreateOrderRequest{
		CustomerName: f.CustomerName,
		Phone:        f.Phone,
		Address:      f.Address,
		Items:        make([]api.OrderItem, 0, len(items)),
	}
	for _, l := range items {
		req.Items = append(req.Items, api.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	ctx, span := m.tracer.Start(ctx, "checkout.submit",
		trace.WithAttributes(attribute.Int("checkout.items", len(req.Items))))
	defer span.End()

	logging.Checkout("submitting order with %d lines", len(req.Items))
	resp, err := m.creator.CreateOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		return Result{}, m.fail(&Error{Kind: KindTransport, Message: MsgFailed, Err: err})
	}
	if resp.OrderID.IsZero() {
		span.SetStatus(codes.Error, "missing order_id")
		return Result{}, m.fail(&Error{Kind: KindDataShape, Message: MsgFailed, Err: errors.New("no order_id returned")})
	}
	if resp.WhatsAppURL == "" {
		span.SetStatus(codes.Error, "missing whatsapp_url")
		return Result{}, m.fail(&Error{Kind: KindDataShape, Message: MsgFailed, Err: errors.New("no whatsapp_url returned")})
	}
	span.SetAttributes(attribute.String("order.id", resp.OrderID.String()))

	res := Result{OrderID: resp.OrderID, WhatsAppURL: resp.WhatsAppURL}
	persistErr := m.orders.Set(LastOrder{
		OrderID:     resp.OrderID,
		WhatsAppURL: resp.WhatsAppURL,
		CreatedAt:   m.now().UTC(),
	})
	// Pick up lines another process added while the order was in flight,
	// then drop only what was ordered.
	if !m.cart.Degraded() {
		m.cart.Reload()
	}
	if err := m.cart.RemoveOrdered(items); err != nil {
		persistErr = errors.Join(persistErr, err)
	}
	if persistErr != nil {
		// Remote order exists; local bookkeeping is incomplete.
		logging.CheckoutWarn("order %s created but local state not persisted: %v", resp.OrderID, persistErr)
		res.PersistErr = persistErr
	}

	m.mu.Lock()
	m.state = Succeeded
	m.mu.Unlock()
	logging.Checkout("order %s created", resp.OrderID)

	m.events.Publish(Event{Kind: CloseCart})
	m.events.Publish(Event{Kind: ShowOrder, OrderID: resp.OrderID, FromCheckout: true})
	return res, nil
}

// failLocked records err as the failure. Caller holds m.mu; it is released.
func (m *Machine) failLocked(err error) error {
	m.state = Failed
	m.lastErr = err
	m.mu.Unlock()
	logging.CheckoutWarn("checkout rejected: %v", err)
	return err
}

func (m *Machine) fail(err error) error {
	m.mu.Lock()
	return m.failLocked(err)
}
