package checkout

import (
	"errors"
	"fmt"
)

// ErrorKind classifies checkout failures.
type ErrorKind int

const (
	// KindValidation: bad form input, no remote call was made.
	KindValidation ErrorKind = iota
	// KindTransport: the order request failed (network or HTTP status).
	KindTransport
	// KindDataShape: the backend answered without a usable order.
	KindDataShape
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindTransport:
		return "TRANSPORT"
	case KindDataShape:
		return "DATA_SHAPE"
	default:
		return "UNKNOWN"
	}
}

// User-facing messages.
const (
	MsgNameRequired  = "Enter your name."
	MsgPhoneRequired = "Enter your phone number."
	MsgCartEmpty     = "Your cart is empty."
	MsgFailed        = "Checkout failed. Check your connection and try again."
)

// ErrInProgress is returned when Submit is called during another submission.
var ErrInProgress = errors.New("checkout: submission already in progress")

// Error is a failed checkout attempt.
type Error struct {
	Kind    ErrorKind
	Field   string // form field for validation errors
	Message string // safe to show to the customer
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("checkout %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newValidation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// KindOf returns the kind of a checkout error and whether err is one.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
