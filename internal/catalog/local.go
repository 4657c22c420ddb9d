package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/starford/planthub/internal/models"
)

// LocalSourceName tags entries served from the built-in list.
const LocalSourceName = "local"

var houseplants = []models.CatalogEntry{
	{
		SpeciesID:             "snake-plant",
		CommonName:            "Snake Plant",
		ScientificName:        "Sansevieria trifasciata",
		WateringFrequencyDays: 14,
		Watering:              "Minimal",
		Sunlight:              "Low to bright indirect light",
		CareLevel:             CareEasy,
		ImageURL:              "https://images.unsplash.com/photo-1632207691143-643e2a9a9361?w=300&h=200&fit=crop",
		CareTips: []string{
			"Water every 2-3 weeks",
			"Allow soil to dry completely between waterings",
			"Thrives in low light conditions",
			"Very drought tolerant",
		},
	},
	{
		SpeciesID:             "pothos",
		CommonName:            "Golden Pothos",
		ScientificName:        "Epipremnum aureum",
		WateringFrequencyDays: 7,
		Watering:              "Moderate",
		Sunlight:              "Bright indirect light",
		CareLevel:             CareEasy,
		ImageURL:              "https://images.unsplash.com/photo-1586093248204-3d6ddb5d9b1a?w=300&h=200&fit=crop",
		CareTips: []string{
			"Water when top inch of soil is dry",
			"Thrives in bright, indirect light",
			"Can tolerate lower light conditions",
			"Trim to encourage bushier growth",
		},
	},
	{
		SpeciesID:             "monstera",
		CommonName:            "Monstera Deliciosa",
		ScientificName:        "Monstera deliciosa",
		WateringFrequencyDays: 10,
		Watering:              "Moderate",
		Sunlight:              "Bright indirect light",
		CareLevel:             CareModerate,
		ImageURL:              "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=300&h=200&fit=crop",
		CareTips: []string{
			"Water when top 2 inches of soil are dry",
			"Provide support for climbing",
			"Clean leaves regularly for best appearance",
			"Increase humidity if possible",
		},
	},
	{
		SpeciesID:             "fiddle-leaf-fig",
		CommonName:            "Fiddle Leaf Fig",
		ScientificName:        "Ficus lyrata",
		WateringFrequencyDays: 7,
		Watering:              "Moderate",
		Sunlight:              "Bright indirect light",
		CareLevel:             CareChallenging,
		ImageURL:              "https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=300&h=200&fit=crop",
		CareTips: []string{
			"Consistent watering schedule",
			"Bright, indirect light near window",
			"Don't move it around once settled",
			"Wipe leaves weekly to prevent dust buildup",
		},
	},
	{
		SpeciesID:             "rubber-plant",
		CommonName:            "Rubber Plant",
		ScientificName:        "Ficus elastica",
		WateringFrequencyDays: 10,
		Watering:              "Moderate",
		Sunlight:              "Bright indirect light",
		CareLevel:             CareEasy,
		ImageURL:              "https://images.unsplash.com/photo-1597411646095-6e60f644c7f9?w=300&h=200&fit=crop",
		CareTips: []string{
			"Water when top inch is dry",
			"Bright light but not direct sun",
			"Clean glossy leaves regularly",
			"Prune to maintain shape",
		},
	},
	{
		SpeciesID:             "peace-lily",
		CommonName:            "Peace Lily",
		ScientificName:        "Spathiphyllum",
		WateringFrequencyDays: 5,
		Watering:              "Regular",
		Sunlight:              "Low to medium light",
		CareLevel:             CareEasy,
		ImageURL:              "https://images.unsplash.com/photo-1593691509543-c55fb32d8de5?w=300&h=200&fit=crop",
		CareTips: []string{
			"Keep soil consistently moist",
			"Droopy leaves indicate need for water",
			"Thrives in lower light",
			"Remove spent flowers",
		},
	},
}

// Local serves the built-in houseplant list. It never fails.
type Local struct{}

func (Local) Name() string { return LocalSourceName }

// Search matches query against common and scientific names. The word
// "houseplant" matches every entry.
func (Local) Search(_ context.Context, query string) ([]models.CatalogEntry, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.CatalogEntry
	for _, e := range houseplants {
		if containsFold(e.CommonName, q) || containsFold(e.ScientificName, q) || strings.Contains("houseplant", q) {
			out = append(out, localEntry(e))
		}
	}
	return out, nil
}

// Houseplants returns a copy of the built-in list.
func Houseplants() []models.CatalogEntry {
	out := make([]models.CatalogEntry, len(houseplants))
	for i, e := range houseplants {
		out[i] = localEntry(e)
	}
	return out
}

func localEntry(e models.CatalogEntry) models.CatalogEntry {
	e.CareTips = slices.Clone(e.CareTips)
	e.Source = LocalSourceName
	return e
}
