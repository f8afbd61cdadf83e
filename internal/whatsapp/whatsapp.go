// Package whatsapp builds wa.me deep links carrying prefilled message text.
package whatsapp

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"medstore/internal/catalog"
	"medstore/internal/ident"
)

// MergeText appends extra to the "text" query parameter of base, separated
// from any existing text by a blank line. When base is not an absolute URL
// the text is appended as a new query parameter instead. An empty base
// yields "".
func MergeText(base, extra string) string {
	if base == "" {
		return ""
	}

	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" {
		joiner := "?"
		if strings.Contains(base, "?") {
			joiner = "&"
		}
		return base + joiner + "text=" + encodeComponent(extra)
	}

	q := u.Query()
	merged := extra
	if existing := q.Get("text"); existing != "" {
		merged = existing + "\n\n" + extra
	}
	q.Set("text", merged)
	u.RawQuery = q.Encode()
	return u.String()
}

// Text returns the decoded "text" parameter of a link, or "".
func Text(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("text")
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Proof describes a completed bank transfer.
type Proof struct {
	OrderID   ident.ID
	Total     *decimal.Decimal // omitted from the message when nil
	ProofLink string           // uploaded proof URL, if any
}

// ProofMessage is the message a customer sends after paying.
func ProofMessage(p Proof) string {
	orderID := p.OrderID.String()
	if orderID == "" {
		orderID = "—"
	}

	lines := []string{
		"Hello, I have made the bank transfer ✅",
		"Order ID: " + orderID,
	}
	if p.Total != nil {
		lines = append(lines, "Total: "+catalog.Money(*p.Total))
	}
	lines = append(lines, "Proof of payment:")
	if p.ProofLink != "" {
		lines = append(lines, p.ProofLink)
	} else {
		lines = append(lines, "(Attached in WhatsApp)")
	}
	lines = append(lines, "Please confirm my order. Thank you.")
	return strings.Join(lines, "\n")
}
