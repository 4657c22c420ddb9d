package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/models"
)

// DefaultCooldown is the minimum spacing between upstream searches.
const DefaultCooldown = time.Minute

// Result is a search answer and where it came from.
type Result struct {
	Source  string                `json:"source"`
	Entries []models.CatalogEntry `json:"entries"`
}

// Searcher fans a query out to upstream sources behind a rate gate and
// falls back to the built-in list. Entries it has returned can be resolved
// again by species ID.
type Searcher struct {
	sources []Source
	local   Local
	gate    *rate.Limiter
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]models.CatalogEntry
}

// NewSearcher creates a searcher. A non-positive cooldown disables the gate.
func NewSearcher(logger *slog.Logger, cooldown time.Duration, sources ...Source) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	return &Searcher{
		sources: sources,
		gate:    rate.NewLimiter(limit, 1),
		logger:  logger,
		seen:    make(map[string]models.CatalogEntry),
	}
}

// Search returns matching catalog entries. Upstream failures are logged and
// never surface; the built-in list answers instead.
func (s *Searcher) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fmt.Errorf("%w: search query is empty", apperr.ErrValidation)
	}

	if !s.gate.Allow() {
		s.logger.Info("catalog: rate limited, using local list", slog.String("query", query))
		return s.searchLocal(ctx, query), nil
	}

	for _, src := range s.sources {
		entries, err := src.Search(ctx, query)
		if err != nil {
			if !errors.Is(err, ErrNotConfigured) {
				s.logger.Warn("catalog: source failed",
					slog.String("source", src.Name()), slog.String("error", err.Error()))
			}
			continue
		}
		if len(entries) == 0 {
			continue
		}
		s.remember(entries)
		return Result{Source: src.Name(), Entries: entries}, nil
	}
	return s.searchLocal(ctx, query), nil
}

func (s *Searcher) searchLocal(ctx context.Context, query string) Result {
	entries, _ := s.local.Search(ctx, query)
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	return Result{Source: LocalSourceName, Entries: entries}
}

func (s *Searcher) remember(entries []models.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.seen[e.SpeciesID] = e
	}
}

// Lookup resolves a species ID from earlier search results or the built-in
// list.
func (s *Searcher) Lookup(speciesID string) (models.CatalogEntry, error) {
	s.mu.Lock()
	e, ok := s.seen[speciesID]
	s.mu.Unlock()
	if ok {
		return e, nil
	}
	for _, e := range Houseplants() {
		if e.SpeciesID == speciesID {
			return e, nil
		}
	}
	return models.CatalogEntry{}, fmt.Errorf("species %q: %w", speciesID, apperr.ErrNotFound)
}
