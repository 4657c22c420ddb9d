// Package kvstore defines the key-value persistence abstraction and its backends.
package kvstore

import (
	"context"
	"fmt"
	"regexp"
)

// Provider is the interface for key-value persistence backends.
type Provider interface {
	// Get returns the value stored under key, or an error wrapping
	// apperr.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// Batcher is implemented by backends that can write several keys atomically.
type Batcher interface {
	PutMany(ctx context.Context, values map[string][]byte) error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidateKey rejects keys that are empty, too long, or could escape a
// file-system root.
func ValidateKey(key string) error {
	if !keyRe.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("kvstore: invalid key %q", key)
	}
	return nil
}
