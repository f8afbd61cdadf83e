// Package store provides the durable key/value port used for client session
// state (the cart and the last order) plus its backends.
//
// Values are opaque JSON documents. Reads of missing or corrupted values are
// never fatal for callers: use DecodeOr to fall back to a default.
package store

import (
	"encoding/json"
	"errors"

	"medstore/internal/logging"
)

// Well-known keys.
const (
	CartKey      = "medstore_cart"
	LastOrderKey = "medstore_last_order"
)

// ErrNotFound is returned by Read when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Storage is the durable storage port.
type Storage interface {
	// Read returns the raw value for key, or ErrNotFound.
	Read(key string) ([]byte, error)
	// Write replaces the value for key.
	Write(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// DecodeOr reads key and decodes it into a T. A missing key, a read error or
// malformed JSON all yield fallback.
func DecodeOr[T any](s Storage, key string, fallback T) T {
	data, err := s.Read(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.StoreWarn("read %s failed, using default: %v", key, err)
		}
		return fallback
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logging.StoreWarn("stored %s is malformed, using default: %v", key, err)
		return fallback
	}
	return v
}

// Encode marshals v and writes it under key.
func Encode(s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Write(key, data)
}
