// Package catalog looks up plant species in external plant APIs and in a
// built-in list of common houseplants.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/starford/planthub/internal/models"
)

// MaxResults caps how many entries a single source returns.
const MaxResults = 8

// ErrNotConfigured is returned by a source that lacks credentials.
var ErrNotConfigured = errors.New("catalog: source not configured")

// Source is an upstream species directory.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.CatalogEntry, error)
}

// Care level labels.
const (
	CareEasy        = "Easy"
	CareModerate    = "Moderate"
	CareChallenging = "Challenging"
)

// EstimateWateringDays maps a free-text watering hint to an interval in days.
func EstimateWateringDays(watering string) int {
	w := strings.ToLower(watering)
	switch {
	case w == "":
		return 7
	case strings.Contains(w, "frequent"), strings.Contains(w, "often"):
		return 3
	case strings.Contains(w, "regular"), strings.Contains(w, "moderate"):
		return 7
	case strings.Contains(w, "minimal"), strings.Contains(w, "rare"):
		return 14
	case strings.Contains(w, "weekly"):
		return 7
	case strings.Contains(w, "daily"):
		return 1
	}
	return 7
}

// CareLevelFor derives a care level from a watering hint.
func CareLevelFor(watering string) string {
	w := strings.ToLower(watering)
	switch {
	case strings.Contains(w, "frequent"), strings.Contains(w, "daily"):
		return CareChallenging
	case strings.Contains(w, "minimal"), strings.Contains(w, "rare"):
		return CareEasy
	}
	return CareModerate
}

// careTips builds generic advice from whatever hints a source provides.
func careTips(watering, sunlight, humidity string, extra ...string) []string {
	var tips []string
	if watering != "" {
		tips = append(tips, "Water "+strings.ToLower(watering))
	}
	if sunlight != "" {
		tips = append(tips, "Provide "+strings.ToLower(sunlight))
	}
	if humidity != "" {
		tips = append(tips, "Maintain "+strings.ToLower(humidity)+" humidity")
	}
	tips = append(tips, extra...)
	return append(tips, "Monitor for pests regularly", "Rotate occasionally for even growth")
}

// flexStrings decodes either a JSON string or an array of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != "" {
			*f = flexStrings{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*f = many
	return nil
}

func (f flexStrings) first() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
