// Package cursorstore persists the sensor cursor between ticks.
package cursorstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Delete when no cursor is stored under the key.
var ErrNotFound = errors.New("cursor not found")

// Store keeps one opaque cursor string per sensor key.
type Store interface {
	// Load returns the stored cursor, or "" when none has been saved.
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, cursor string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
