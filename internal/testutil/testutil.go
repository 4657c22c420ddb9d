// Package testutil provides shared test helpers for building gardens on
// throwaway stores.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/starford/planthub/internal/garden"
	"github.com/starford/planthub/internal/kvstore"
	"github.com/starford/planthub/internal/persist"
)

// Epoch is the starting time of every test clock.
var Epoch = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock set to Epoch.
func NewClock() *Clock {
	return &Clock{t: Epoch}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Garden builds a garden over store with clock and sequential IDs
// ("id-1", "id-2", ...).
func Garden(t *testing.T, store kvstore.Provider, clock *Clock, opts ...garden.Option) *garden.Garden {
	t.Helper()
	logger := Logger()
	var (
		mu sync.Mutex
		n  int
	)
	opts = append([]garden.Option{
		garden.WithClock(clock.Now),
		garden.WithLogger(logger),
		garden.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}, opts...)
	return garden.New(context.Background(), persist.New(store, logger), opts...)
}

// FSStore creates a file store in a temporary directory.
func FSStore(t *testing.T) *kvstore.FS {
	t.Helper()
	store, err := kvstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}
