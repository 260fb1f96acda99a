// Package store persists each attribute's last-known value so read
// fallbacks survive a bridge restart.
package store

import "errors"

// ErrNotFound is returned when a requested entry does not exist in the store.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface.
type Store interface {
	// SaveValue persists the raw characteristic value for one attribute.
	SaveValue(attribute string, value []byte) error

	// GetValue returns the persisted value, or ErrNotFound.
	GetValue(attribute string) ([]byte, error)

	// ListValues returns all persisted attribute values.
	ListValues() (map[string][]byte, error)

	// Close the store
	Close() error
}
