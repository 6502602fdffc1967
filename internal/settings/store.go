// Package settings persists the user-editable settings shared by the widget host and the CLI
package settings

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when a key has never been written
var ErrNotFound = errors.New("setting not found")

// Store is a string key-value store. Writes replace a key's value atomically.
type Store interface {
	// Get returns ErrNotFound if key is absent.
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	Close() error
}
