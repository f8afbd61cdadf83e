package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLenientDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`1000`, "1000"},
		{`"2500.50"`, "2500.5"},
		{`null`, "0"},
		{`"abc"`, "0"},
		{`""`, "0"},
		{`"-5"`, "0"},
		{`true`, "0"},
	}
	for _, tt := range tests {
		var p struct {
			Price Price `json:"price"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"price":`+tt.in+`}`), &p), tt.in)
		assert.Equal(t, tt.want, p.Price.String(), tt.in)
	}
}

func TestProductDecodeMissingPrice(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"Gauze","stock":2}`), &p))
	assert.True(t, p.Price.IsZero())
	assert.Equal(t, "3", p.ID.String())
	assert.Equal(t, "", p.CategoryName())
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "₦4,500", Money(decimal.NewFromInt(4500)))
	assert.Equal(t, "₦1,250.5", Money(decimal.RequireFromString("1250.50")))
	assert.Equal(t, "₦0", Money(decimal.Zero))
	assert.Equal(t, "$12", FormatMoney("$", decimal.NewFromInt(12)))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "GL", Product{Name: "gloves"}.Initials())
	assert.Equal(t, "P", Product{}.Initials())
	assert.Equal(t, "X", Product{Name: "x"}.Initials())
}
