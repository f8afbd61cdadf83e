// Package payment backs the payment and order-status views: it resolves
// which order is being paid, loads its details without ever blocking the
// bank-transfer flow, uploads proof of payment and builds the WhatsApp link.
package payment

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"medstore/internal/api"
	"medstore/internal/checkout"
	"medstore/internal/ident"
	"medstore/internal/latest"
	"medstore/internal/logging"
	"medstore/internal/whatsapp"
)

// Notices shown when the order detail cannot be loaded.
const (
	NoticePaymentDetail = "Could not load order details. Payment still works with bank info."
	NoticeStatusDetail  = "Could not load order details. This page still works using your saved WhatsApp link + bank details."
)

// DefaultProofNote is sent with an upload when the customer leaves no note.
const DefaultProofNote = "Bank transfer proof"

var (
	// ErrNoOrder means neither an explicit order id nor a last order exists.
	ErrNoOrder = errors.New("payment: no order selected")
	// ErrNoFile means an upload was attempted without a file.
	ErrNoFile = errors.New("payment: choose a file to upload")
	// ErrStale is returned when a newer load replaced this one.
	ErrStale = errors.New("payment: superseded by a newer request")
)

// Backend is the part of the Order API the views use.
type Backend interface {
	GetOrder(ctx context.Context, id ident.ID) (api.OrderDetail, error)
	UploadPaymentProof(ctx context.Context, id ident.ID, filename string, file io.Reader, note string) (api.ProofUpload, error)
}

// Bank holds the manual transfer details.
type Bank struct {
	BankName      string
	AccountName   string
	AccountNumber string
	Note          string
}

// Page is the loaded state of a payment or status view.
type Page struct {
	OrderID ident.ID
	Detail  *api.OrderDetail // nil when unavailable
	Notice  string           // set when Detail failed to load
	// WhatsApp is the deep link to open. Empty means no link is known.
	WhatsApp string
}

// Total returns the order total when the detail is loaded.
func (p Page) Total() *decimal.Decimal {
	if p.Detail == nil {
		return nil
	}
	t := p.Detail.TotalAmount.Decimal
	return &t
}

// Service serves the payment and status views.
type Service struct {
	backend     Backend
	orders      *checkout.LastOrderStore
	fallbackURL string
	bank        Bank

	guard latest.Guard
}

// NewService creates a Service. fallbackURL is the WhatsApp link used when
// neither the order nor the last order carries one.
func NewService(backend Backend, orders *checkout.LastOrderStore, fallbackURL string, bank Bank) *Service {
	return &Service{backend: backend, orders: orders, fallbackURL: fallbackURL, bank: bank}
}

// Bank returns the configured transfer details.
func (s *Service) Bank() Bank { return s.bank }

// ResolveOrderID picks the explicit id, else the last order's id.
func (s *Service) ResolveOrderID(explicit ident.ID) ident.ID {
	if !explicit.IsZero() {
		return explicit
	}
	if lo, ok := s.orders.Get(); ok {
		return lo.OrderID
	}
	return ident.None
}

// LoadPayment loads the payment view for explicit (or the last order).
// A detail failure is reported through Page.Notice, not as an error.
func (s *Service) LoadPayment(ctx context.Context, explicit ident.ID) (Page, error) {
	page := Page{OrderID: s.ResolveOrderID(explicit)}
	lo, hasLast := s.orders.Get()

	if !page.OrderID.IsZero() {
		detail, err := s.loadDetail(ctx, page.OrderID)
		if errors.Is(err, ErrStale) {
			return page, err
		}
		if err != nil {
			page.Notice = NoticePaymentDetail
		} else {
			page.Detail = detail
		}
	}

	switch {
	case page.Detail != nil && page.Detail.WhatsAppURL != "":
		page.WhatsApp = page.Detail.WhatsAppURL
	case hasLast && lo.WhatsAppURL != "":
		page.WhatsApp = lo.WhatsAppURL
	default:
		page.WhatsApp = s.fallbackURL
	}
	return page, nil
}

// LoadStatus loads the order status view for id.
func (s *Service) LoadStatus(ctx context.Context, id ident.ID) (Page, error) {
	page := Page{OrderID: id}
	if id.IsZero() {
		return page, ErrNoOrder
	}

	detail, err := s.loadDetail(ctx, id)
	if errors.Is(err, ErrStale) {
		return page, err
	}
	if err != nil {
		page.Notice = NoticeStatusDetail
	} else {
		page.Detail = detail
	}

	lo, hasLast := s.orders.Get()
	switch {
	case page.Detail != nil && page.Detail.WhatsAppURL != "":
		page.WhatsApp = page.Detail.WhatsAppURL
	case hasLast:
		// The saved link is used even for a different order: it still
		// reaches the shop.
		page.WhatsApp = lo.WhatsAppURL
	}
	return page, nil
}

// Invalidate discards any in-flight detail load, e.g. when the view closes.
func (s *Service) Invalidate() { s.guard.Invalidate() }

func (s *Service) loadDetail(ctx context.Context, id ident.ID) (*api.OrderDetail, error) {
	ticket := s.guard.Begin()
	detail, err := s.backend.GetOrder(ctx, id)
	if !s.guard.Current(ticket) {
		logging.Get(logging.CategoryPayment).Debug("discarding stale detail for order %s", id)
		return nil, ErrStale
	}
	if err != nil {
		logging.PaymentWarn("order %s detail unavailable: %v", id, err)
		return nil, err
	}
	return &detail, nil
}

// UploadProof uploads a proof file for the order and returns its URL
// (which may be empty if the backend did not return one).
func (s *Service) UploadProof(ctx context.Context, orderID ident.ID, filename string, file io.Reader, note string) (string, error) {
	if orderID.IsZero() {
		return "", ErrNoOrder
	}
	if file == nil || strings.TrimSpace(filename) == "" {
		return "", ErrNoFile
	}
	if strings.TrimSpace(note) == "" {
		note = DefaultProofNote
	}

	out, err := s.backend.UploadPaymentProof(ctx, orderID, filename, file, note)
	if err != nil {
		logging.PaymentWarn("proof upload for order %s failed: %v", orderID, err)
		return "", err
	}
	logging.Payment("proof uploaded for order %s", orderID)
	return out.FileURL, nil
}

// ProofLink builds the WhatsApp link carrying the proof-of-payment message.
func ProofLink(page Page, proofURL string) string {
	msg := whatsapp.ProofMessage(whatsapp.Proof{
		OrderID:   page.OrderID,
		Total:     page.Total(),
		ProofLink: proofURL,
	})
	return whatsapp.MergeText(page.WhatsApp, msg)
}
