package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is the naira sign.
const DefaultCurrencySymbol = "₦"

// Price is a non-negative decimal amount. It decodes leniently: a JSON number,
// a numeric string, null or anything unparseable (which becomes zero).
type Price struct {
	decimal.Decimal
}

// NewPrice returns a Price for an integer amount.
func NewPrice(amount int64) Price { return Price{decimal.NewFromInt(amount)} }

// ParsePrice parses s, returning zero for anything that is not a number.
func ParsePrice(s string) Price {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return Price{}
	}
	return Price{d}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*p = Price{}
			return nil
		}
		*p = ParsePrice(s)
		return nil
	}
	*p = ParsePrice(string(data))
	return nil
}

// MarshalJSON writes the price as a decimal string, the shape the API uses.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Decimal.StringFixed(2))
}

// Money formats an amount with the default currency symbol.
func Money(d decimal.Decimal) string {
	return FormatMoney(DefaultCurrencySymbol, d)
}

// FormatMoney formats an amount with thousands separators and at most two
// decimals, e.g. "₦12,500" or "₦1,250.5".
func FormatMoney(symbol string, d decimal.Decimal) string {
	return symbol + humanize.Commaf(d.Round(2).InexactFloat64())
}
