package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEstimateWateringDays(t *testing.T) {
	cases := map[string]int{
		"":                7,
		"Frequent":        3,
		"water often":     3,
		"Regular":         7,
		"Moderate":        7,
		"Minimal":         14,
		"rarely":          14,
		"weekly":          7,
		"daily misting":   1,
		"whenever it dry": 7,
	}
	for in, want := range cases {
		if got := EstimateWateringDays(in); got != want {
			t.Errorf("EstimateWateringDays(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestCareLevelFor(t *testing.T) {
	cases := map[string]string{
		"Frequent": CareChallenging,
		"daily":    CareChallenging,
		"Minimal":  CareEasy,
		"rare":     CareEasy,
		"Average":  CareModerate,
		"":         CareModerate,
	}
	for in, want := range cases {
		if got := CareLevelFor(in); got != want {
			t.Errorf("CareLevelFor(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFlexStrings(t *testing.T) {
	var v struct {
		A flexStrings `json:"a"`
		B flexStrings `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"full sun","b":["part shade","sun"]}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A.first() != "full sun" || len(v.B) != 2 || v.B.first() != "part shade" {
		t.Errorf("decoded = %+v", v)
	}
}

func TestLocalSearch(t *testing.T) {
	got, _ := Local{}.Search(context.Background(), "ficus")
	if len(got) != 2 {
		t.Fatalf("ficus matches = %d, want 2", len(got))
	}
	for _, e := range got {
		if e.Source != LocalSourceName {
			t.Errorf("source = %q", e.Source)
		}
	}
	if all, _ := (Local{}).Search(context.Background(), "houseplant"); len(all) != len(houseplants) {
		t.Errorf("houseplant matches = %d", len(all))
	}
	if none, _ := (Local{}).Search(context.Background(), "cactus"); len(none) != 0 {
		t.Errorf("cactus matches = %d", len(none))
	}
}

func TestHouseplantsReturnsCopy(t *testing.T) {
	list := Houseplants()
	list[0].CareTips[0] = "changed"
	if houseplants[0].CareTips[0] == "changed" {
		t.Error("built-in list was modified through the copy")
	}
}

func TestPerenualSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/species-list" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("key") != "secret" || q.Get("q") != "fern" || q.Get("page") != "1" {
			t.Errorf("query = %v", q)
		}
		var data []map[string]any
		for i := range 10 {
			data = append(data, map[string]any{
				"id":              i + 1,
				"common_name":     fmt.Sprintf("Fern %d", i),
				"scientific_name": []string{"Nephrolepis exaltata"},
				"watering":        "Frequent",
				"sunlight":        "part shade",
				"cycle":           "Perennial",
				"default_image":   map[string]any{"regular_url": "", "medium_url": "http://img/medium.jpg"},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)

	p, err := NewPerenual(srv.URL, "secret", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Search(context.Background(), "fern")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != MaxResults {
		t.Fatalf("results = %d, want %d", len(got), MaxResults)
	}
	e := got[0]
	if e.SpeciesID != "perenual-1" || e.ScientificName != "Nephrolepis exaltata" {
		t.Errorf("entry = %+v", e)
	}
	if e.WateringFrequencyDays != 3 || e.CareLevel != CareChallenging {
		t.Errorf("derived care = %d/%s", e.WateringFrequencyDays, e.CareLevel)
	}
	if e.ImageURL != "http://img/medium.jpg" {
		t.Errorf("image = %q", e.ImageURL)
	}
	if e.Sunlight != "part shade" || e.CareTips[0] != "Water frequent" || e.CareTips[2] != "Growth cycle: Perennial" {
		t.Errorf("tips = %v", e.CareTips)
	}
}

func TestPerenualWithoutKey(t *testing.T) {
	p, err := NewPerenual("", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Search(context.Background(), "fern"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPerenualHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	p, _ := NewPerenual(srv.URL, "wrong", time.Second)
	_, err := p.Search(context.Background(), "fern")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want HTTPError 401", err)
	}
}

func TestHousePlantsFiltersClientSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plants" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"_id": "a1", "common_name": "Boston Fern", "scientific_name": "Nephrolepis", "family": "Lomariopsidaceae", "watering": "Regular", "humidity": "High"},
			{"_id": "a2", "common_name": "Jade", "scientific_name": "Crassula ovata", "family": "Crassulaceae", "watering": "Minimal"},
			{"_id": "a3", "common_name": "Bird's Nest", "scientific_name": "Asplenium nidus", "family": "Aspleniaceae fern"},
		})
	}))
	t.Cleanup(srv.Close)

	h, err := NewHousePlants(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	got, err := h.Search(context.Background(), "FERN")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].SpeciesID != "a1" || got[1].SpeciesID != "a3" {
		t.Fatalf("results = %+v", got)
	}
	if got[0].WateringFrequencyDays != 7 || got[0].CareTips[1] != "Maintain high humidity" {
		t.Errorf("entry = %+v", got[0])
	}
	if got[1].Watering != "Moderate" || got[1].CareLevel != CareModerate {
		t.Errorf("defaults = %+v", got[1])
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("not a url", time.Second); err == nil {
		t.Error("expected error for invalid base url")
	}
}

type stubSource struct {
	name    string
	entries []models.CatalogEntry
	err     error
	calls   atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(context.Context, string) ([]models.CatalogEntry, error) {
	s.calls.Add(1)
	return s.entries, s.err
}

func TestSearcherUsesFirstSourceWithResults(t *testing.T) {
	broken := &stubSource{name: "broken", err: errors.New("boom")}
	empty := &stubSource{name: "empty"}
	good := &stubSource{name: "good", entries: []models.CatalogEntry{{SpeciesID: "g-1", CommonName: "Calathea"}}}
	s := NewSearcher(quietLogger(), 0, broken, empty, good)

	res, err := s.Search(context.Background(), "calathea")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != "good" || len(res.Entries) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if e, err := s.Lookup("g-1"); err != nil || e.CommonName != "Calathea" {
		t.Errorf("Lookup = %+v, %v", e, err)
	}
}

func TestSearcherFallsBackToLocal(t *testing.T) {
	broken := &stubSource{name: "broken", err: errors.New("boom")}
	s := NewSearcher(quietLogger(), 0, broken)

	res, err := s.Search(context.Background(), "pothos")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != LocalSourceName || len(res.Entries) != 1 || res.Entries[0].SpeciesID != "pothos" {
		t.Errorf("result = %+v", res)
	}
}

func TestSearcherRateGate(t *testing.T) {
	upstream := &stubSource{name: "up", entries: []models.CatalogEntry{{SpeciesID: "u-1", CommonName: "Snake Plant"}}}
	s := NewSearcher(quietLogger(), time.Hour, upstream)

	first, _ := s.Search(context.Background(), "snake")
	second, _ := s.Search(context.Background(), "snake")
	if first.Source != "up" {
		t.Errorf("first source = %s", first.Source)
	}
	if second.Source != LocalSourceName {
		t.Errorf("second source = %s, want local while gated", second.Source)
	}
	if n := upstream.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestSearcherEmptyQuery(t *testing.T) {
	s := NewSearcher(quietLogger(), 0)
	if _, err := s.Search(context.Background(), "  "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestLookupLocalAndUnknown(t *testing.T) {
	s := NewSearcher(quietLogger(), 0)
	if e, err := s.Lookup("peace-lily"); err != nil || e.WateringFrequencyDays != 5 {
		t.Errorf("Lookup(peace-lily) = %+v, %v", e, err)
	}
	if _, err := s.Lookup("triffid"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
