// Package ident provides the opaque identifier used for products and orders.
//
// The store API is free to hand out numeric or string identifiers. An ID keeps
// the textual form and remembers nothing else, so equality is plain string
// equality and JSON round-trips keep numbers as numbers.
package ident

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque product or order identifier.
type ID string

// None is the zero ID.
const None ID = ""

// FromInt returns the ID for a numeric identifier.
func FromInt(n int64) ID { return ID(strconv.FormatInt(n, 10)) }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == None }

func (id ID) String() string { return string(id) }

// Int returns the numeric value of the ID when it is a base-10 integer.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON encodes numeric IDs as JSON numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if n, ok := id.Int(); ok && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = None
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ident: expected number or string, got %s", data)
	}
	*id = ID(n.String())
	return nil
}
