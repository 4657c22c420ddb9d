package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/planthub/internal/models"
)

// DefaultHousePlantsURL serves the backup plant list.
const DefaultHousePlantsURL = "https://garden-api-fzyw.onrender.com"

type housePlant struct {
	ID             string `json:"_id"`
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	Family         string `json:"family"`
	Watering       string `json:"watering"`
	Sunlight       string `json:"sunlight"`
	Humidity       string `json:"humidity"`
	CareLevel      string `json:"care_level"`
	Image          string `json:"image"`
}

// HousePlants queries a keyless garden API that serves its full list; the
// query is applied client-side.
type HousePlants struct {
	client *Client
}

// NewHousePlants creates the source. An empty baseURL disables it.
func NewHousePlants(baseURL string, timeout time.Duration) (*HousePlants, error) {
	if strings.TrimSpace(baseURL) == "" {
		return &HousePlants{}, nil
	}
	c, err := NewClient(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &HousePlants{client: c}, nil
}

func (h *HousePlants) Name() string { return "houseplants" }

func (h *HousePlants) Search(ctx context.Context, query string) ([]models.CatalogEntry, error) {
	if h.client == nil {
		return nil, ErrNotConfigured
	}
	var all []housePlant
	if err := h.client.GetJSON(ctx, "/plants", nil, &all); err != nil {
		return nil, fmt.Errorf("houseplants: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.CatalogEntry
	for _, p := range all {
		if len(out) == MaxResults {
			break
		}
		if containsFold(p.CommonName, q) || containsFold(p.ScientificName, q) || containsFold(p.Family, q) {
			out = append(out, p.entry())
		}
	}
	return out, nil
}

func (p housePlant) entry() models.CatalogEntry {
	name := p.CommonName
	if name == "" {
		name = "Unknown Plant"
	}
	watering := p.Watering
	if watering == "" {
		watering = "Moderate"
	}
	sunlight := p.Sunlight
	if sunlight == "" {
		sunlight = "Bright indirect light"
	}
	care := p.CareLevel
	if care == "" {
		care = CareModerate
	}
	id := p.ID
	if id == "" {
		id = "houseplant-" + strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}
	return models.CatalogEntry{
		SpeciesID:             id,
		CommonName:            name,
		ScientificName:        p.ScientificName,
		WateringFrequencyDays: EstimateWateringDays(p.Watering),
		Watering:              watering,
		Sunlight:              sunlight,
		CareLevel:             care,
		ImageURL:              p.Image,
		CareTips:              careTips(p.Watering, p.Sunlight, p.Humidity),
		Source:                "houseplants",
	}
}
