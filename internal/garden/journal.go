package garden

import (
	"fmt"
	"iter"
	"maps"
	"regexp"
	"slices"
	"time"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/models"
)

// MaxJourneyEntries caps the journey of a single plant; older entries are
// dropped first.
const MaxJourneyEntries = 50

// Journal is an append-only, per-plant log of care actions.
// It is not safe for concurrent use; Garden guards it.
type Journal struct {
	limit   int
	entries map[string][]models.JourneyEntry
}

// NewJournal builds a journal from previously persisted entries, trimming
// any plant history that exceeds the cap.
func NewJournal(seed map[string][]models.JourneyEntry) *Journal {
	j := &Journal{limit: MaxJourneyEntries, entries: make(map[string][]models.JourneyEntry, len(seed))}
	for id, es := range seed {
		j.entries[id] = j.trim(slices.Clone(es))
	}
	return j
}

// Append adds an entry to the end of a plant's journey.
func (j *Journal) Append(plantID string, e models.JourneyEntry) {
	j.entries[plantID] = j.trim(append(j.entries[plantID], e))
}

func (j *Journal) trim(es []models.JourneyEntry) []models.JourneyEntry {
	if len(es) <= j.limit {
		return es
	}
	return append([]models.JourneyEntry(nil), es[len(es)-j.limit:]...)
}

// Entries yields a plant's journey in insertion order.
func (j *Journal) Entries(plantID string) iter.Seq[models.JourneyEntry] {
	return func(yield func(models.JourneyEntry) bool) {
		for _, e := range j.entries[plantID] {
			if !yield(e) {
				return
			}
		}
	}
}

// Len reports how many entries a plant's journey holds.
func (j *Journal) Len(plantID string) int {
	return len(j.entries[plantID])
}

// Snapshot returns a copy of every journey.
func (j *Journal) Snapshot() map[string][]models.JourneyEntry {
	out := make(map[string][]models.JourneyEntry, len(j.entries))
	for id, es := range j.entries {
		cp := make([]models.JourneyEntry, len(es))
		for i, e := range es {
			cp[i] = e
			if e.Metadata != nil {
				cp[i].Metadata = maps.Clone(e.Metadata)
			}
		}
		out[id] = cp
	}
	return out
}

// Journey returns a plant's journey. The journey of a removed plant stays
// readable; an ID that never had a plant is not found.
func (g *Garden) Journey(plantID string) ([]models.JourneyEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.journal.Len(plantID) == 0 && g.plantIndexLocked(plantID) < 0 {
		return nil, fmt.Errorf("plant %q: %w", plantID, apperr.ErrNotFound)
	}
	out := slices.Collect(g.journal.Entries(plantID))
	if out == nil {
		out = []models.JourneyEntry{}
	}
	return out, nil
}

// ExportedPlant is the plant header of a journey export.
type ExportedPlant struct {
	Nickname       string    `json:"nickname"`
	Species        string    `json:"species"`
	ScientificName string    `json:"scientific_name"`
	AddedAt        time.Time `json:"added_at"`
}

// ExportedEntry is one journey line of an export.
type ExportedEntry struct {
	Action      models.JourneyAction `json:"action"`
	Description string               `json:"description"`
	Timestamp   time.Time            `json:"timestamp"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

// JourneyExport is the downloadable record of a plant's journey.
type JourneyExport struct {
	Plant   ExportedPlant   `json:"plant"`
	Journey []ExportedEntry `json:"journey"`
}

// Export builds the journey export of a plant still in the garden.
func (g *Garden) Export(plantID string) (JourneyExport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.plantIndexLocked(plantID)
	if i < 0 {
		return JourneyExport{}, fmt.Errorf("plant %q: %w", plantID, apperr.ErrNotFound)
	}
	p := g.plants[i]
	exp := JourneyExport{
		Plant: ExportedPlant{
			Nickname:       p.Nickname,
			Species:        p.Species,
			ScientificName: p.ScientificName,
			AddedAt:        p.AddedAt,
		},
		Journey: make([]ExportedEntry, 0, g.journal.Len(plantID)),
	}
	for e := range g.journal.Entries(plantID) {
		exp.Journey = append(exp.Journey, ExportedEntry{
			Action:      e.Action,
			Description: e.Description,
			Timestamp:   e.Timestamp,
			Metadata:    maps.Clone(e.Metadata),
		})
	}
	return exp, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFileName is the download name for a plant's journey export.
func ExportFileName(nickname string) string {
	return whitespaceRun.ReplaceAllString(nickname, "_") + "_journey.json"
}
