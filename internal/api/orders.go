package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"medstore/internal/catalog"
	"medstore/internal/ident"
)

// OrderItem is one requested line of a new order.
type OrderItem struct {
	ProductID ident.ID `json:"product_id"`
	Quantity  int      `json:"quantity"`
}

// CreateOrderRequest is the body of POST /api/orders/.
type CreateOrderRequest struct {
	CustomerName string      `json:"customer_name"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address,omitempty"`
	Items        []OrderItem `json:"items"`
}

// CreateOrderResponse is the body returned on order creation. Both fields are
// required for a usable order; callers must check.
type CreateOrderResponse struct {
	OrderID     ident.ID `json:"order_id"`
	WhatsAppURL string   `json:"whatsapp_url"`
}

// OrderStatus is the backend's order state.
type OrderStatus string

const (
	StatusUnpaid    OrderStatus = "UNPAID"
	StatusProofSent OrderStatus = "PROOF_SENT"
	StatusPaid      OrderStatus = "PAID"
	StatusDelivered OrderStatus = "DELIVERED"
)

// OrderStatuses lists the statuses the backend accepts.
var OrderStatuses = []OrderStatus{StatusUnpaid, StatusProofSent, StatusPaid, StatusDelivered}

// Label returns the display label, or the raw value for unknown statuses.
func (s OrderStatus) Label() string {
	switch s {
	case StatusUnpaid:
		return "Unpaid"
	case StatusProofSent:
		return "Proof Sent"
	case StatusPaid:
		return "Paid"
	case StatusDelivered:
		return "Delivered"
	case "":
		return "—"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of OrderStatuses.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// OrderDetailItem is a line of an existing order.
type OrderDetailItem struct {
	ID          ident.ID      `json:"id"`
	ProductID   ident.ID      `json:"product_id"`
	ProductName string        `json:"product_name"`
	Quantity    int           `json:"quantity"`
	PriceAtTime catalog.Price `json:"price_at_time"`
}

// OrderDetail is GET /api/orders/{id}/.
type OrderDetail struct {
	ID           ident.ID          `json:"id"`
	CustomerName string            `json:"customer_name"`
	Phone        string            `json:"phone"`
	Address      string            `json:"address"`
	Status       OrderStatus       `json:"status"`
	CreatedAt    string            `json:"created_at"`
	Items        []OrderDetailItem `json:"items"`
	TotalAmount  catalog.Price     `json:"total_amount"`
	WhatsAppURL  string            `json:"whatsapp_url"`
}

// ProofUpload is the response of a payment-proof upload.
type ProofUpload struct {
	ID        ident.ID `json:"id"`
	FileURL   string   `json:"file_url"`
	Note      string   `json:"note"`
	CreatedAt string   `json:"created_at"`
}

func orderPath(id ident.ID, suffix string) string {
	return "/api/orders/" + url.PathEscape(id.String()) + "/" + suffix
}

// CreateOrder posts a new order.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderRequest) (CreateOrderResponse, error) {
	var out CreateOrderResponse
	err := c.sendJSON(ctx, http.MethodPost, "/api/orders/", in, &out)
	return out, err
}

// GetOrder fetches an order's detail record.
func (c *Client) GetOrder(ctx context.Context, id ident.ID) (OrderDetail, error) {
	var out OrderDetail
	if id.IsZero() {
		return out, fmt.Errorf("order id required")
	}
	err := c.getJSON(ctx, orderPath(id, ""), &out)
	return out, err
}

// UpdateOrderStatus sets an order's status (staff operation).
func (c *Client) UpdateOrderStatus(ctx context.Context, id ident.ID, status OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return c.sendJSON(ctx, http.MethodPatch, orderPath(id, "status/"),
		map[string]OrderStatus{"status": status}, nil)
}

// UploadPaymentProof sends a proof file as multipart form fields "file" and "note".
// The body is streamed, so file is read while the request is in flight.
func (c *Client) UploadPaymentProof(ctx context.Context, id ident.ID, filename string, file io.Reader, note string) (ProofUpload, error) {
	var out ProofUpload
	if id.IsZero() {
		return out, fmt.Errorf("order id required")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeProofForm(mw, filename, file, note)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, orderPath(id, "payment-proof/"), pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return out, err
	}
	err = c.do(req, &out)
	// Unblock the writer if the request ended before consuming the body.
	pr.CloseWithError(io.ErrClosedPipe)
	return out, err
}

func writeProofForm(mw *multipart.Writer, filename string, file io.Reader, note string) error {
	if err := mw.WriteField("note", note); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
