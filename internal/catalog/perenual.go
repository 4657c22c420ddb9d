package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/starford/planthub/internal/models"
)

// DefaultPerenualURL is the v2 API root.
const DefaultPerenualURL = "https://perenual.com/api/v2"

type perenualImage struct {
	RegularURL string `json:"regular_url"`
	MediumURL  string `json:"medium_url"`
}

type perenualSpecies struct {
	ID             int            `json:"id"`
	CommonName     string         `json:"common_name"`
	ScientificName flexStrings    `json:"scientific_name"`
	Cycle          string         `json:"cycle"`
	Watering       string         `json:"watering"`
	Sunlight       flexStrings    `json:"sunlight"`
	CareLevel      string         `json:"care_level"`
	Propagation    flexStrings    `json:"propagation"`
	DefaultImage   *perenualImage `json:"default_image"`
}

type perenualPage struct {
	Data []perenualSpecies `json:"data"`
}

// Perenual queries the Perenual species list.
type Perenual struct {
	client *Client
	key    string
}

// NewPerenual creates a Perenual source. An empty key yields a source that
// reports ErrNotConfigured.
func NewPerenual(baseURL, key string, timeout time.Duration) (*Perenual, error) {
	if baseURL == "" {
		baseURL = DefaultPerenualURL
	}
	c, err := NewClient(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Perenual{client: c, key: strings.TrimSpace(key)}, nil
}

func (p *Perenual) Name() string { return "perenual" }

func (p *Perenual) Search(ctx context.Context, query string) ([]models.CatalogEntry, error) {
	if p.key == "" {
		return nil, ErrNotConfigured
	}
	var page perenualPage
	q := url.Values{"key": {p.key}, "q": {query}, "page": {"1"}}
	if err := p.client.GetJSON(ctx, "/species-list", q, &page); err != nil {
		return nil, fmt.Errorf("perenual: %w", err)
	}

	out := make([]models.CatalogEntry, 0, min(len(page.Data), MaxResults))
	for _, s := range page.Data {
		if len(out) == MaxResults {
			break
		}
		out = append(out, s.entry())
	}
	return out, nil
}

func (s perenualSpecies) entry() models.CatalogEntry {
	name := s.CommonName
	if name == "" {
		name = "Unknown Plant"
	}
	watering := s.Watering
	if watering == "" {
		watering = "Moderate"
	}
	sunlight := s.Sunlight.first()
	if sunlight == "" {
		sunlight = "Bright indirect light"
	}
	care := s.CareLevel
	if care == "" {
		care = CareLevelFor(s.Watering)
	}

	var extra []string
	if s.Cycle != "" {
		extra = append(extra, "Growth cycle: "+s.Cycle)
	}
	if len(s.Propagation) > 0 {
		extra = append(extra, "Can be propagated by "+strings.Join(s.Propagation, ", "))
	}

	var image string
	if s.DefaultImage != nil {
		image = s.DefaultImage.RegularURL
		if image == "" {
			image = s.DefaultImage.MediumURL
		}
	}

	return models.CatalogEntry{
		SpeciesID:             fmt.Sprintf("perenual-%d", s.ID),
		CommonName:            name,
		ScientificName:        s.ScientificName.first(),
		WateringFrequencyDays: EstimateWateringDays(s.Watering),
		Watering:              watering,
		Sunlight:              sunlight,
		CareLevel:             care,
		ImageURL:              image,
		CareTips:              careTips(watering, sunlight, "", extra...),
		Source:                "perenual",
	}
}
