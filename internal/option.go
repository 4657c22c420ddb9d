package internal

import (
	"io"

	"github.com/starford/planthub/internal/kvstore"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  kvstore.Provider
	stdout io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore replaces the configured backend with an already open store.
// The caller keeps ownership and closes it.
func WithStore(store kvstore.Provider) Option {
	return func(a *application) {
		a.store = store
	}
}

// WithStdout redirects the log output of Run and Export.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}
