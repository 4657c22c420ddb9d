package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/catalog"
	"github.com/starford/planthub/internal/garden"
	"github.com/starford/planthub/internal/kvstore"
	"github.com/starford/planthub/internal/testutil"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     StoreConfig
		wantErr bool
	}{
		{"fs creates dir", StoreConfig{Driver: StoreDriverFS, Path: filepath.Join(dir, "data")}, false},
		{"sqlite", StoreConfig{Driver: StoreDriverSQLite, Path: filepath.Join(dir, "db", "garden.db")}, false},
		{"memory", StoreConfig{Driver: StoreDriverMemory}, false},
		{"unknown", StoreConfig{Driver: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStore(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.Close()
			if err := store.Put(ctx, "plants", []byte(`[]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := store.Get(ctx, "plants")
			if err != nil || string(got) != "[]" {
				t.Errorf("Get = %q, %v", got, err)
			}
		})
	}
}

func seededStore(t *testing.T) (kvstore.Provider, string) {
	t.Helper()
	store := kvstore.NewMemory()
	g := newGarden(context.Background(), NewDefaultConfig(), store, testutil.Logger())
	p, err := g.AddPlant(context.Background(), catalog.Houseplants()[1])
	if err != nil {
		t.Fatal(err)
	}
	return store, p.ID
}

func TestExportWritesFile(t *testing.T) {
	store, id := seededStore(t)
	out := filepath.Join(t.TempDir(), "journey.json")

	path, err := Export(context.Background(), id, out,
		WithConfig(NewDefaultConfig()), WithStore(store), WithStdout(io.Discard))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if path != out {
		t.Errorf("path = %q, want %q", path, out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var exp garden.JourneyExport
	if err := json.Unmarshal(data, &exp); err != nil {
		t.Fatal(err)
	}
	if exp.Plant.Nickname != "Golden Pothos" || len(exp.Journey) != 1 {
		t.Errorf("export = %+v", exp)
	}
}

func TestExportDefaultFileName(t *testing.T) {
	store, id := seededStore(t)
	t.Chdir(t.TempDir())

	path, err := Export(context.Background(), id, "",
		WithConfig(NewDefaultConfig()), WithStore(store), WithStdout(io.Discard))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if path != "Golden_Pothos_journey.json" {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat export: %v", err)
	}
}

func TestExportUnknownPlant(t *testing.T) {
	_, err := Export(context.Background(), "nope", filepath.Join(t.TempDir(), "x.json"),
		WithConfig(NewDefaultConfig()), WithStore(kvstore.NewMemory()), WithStdout(io.Discard))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestExportRequiresConfig(t *testing.T) {
	if _, err := Export(context.Background(), "id", ""); err == nil {
		t.Error("expected error without config")
	}
}

type downStore struct {
	*kvstore.Memory
}

func (downStore) Keys(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestReadyHandler(t *testing.T) {
	w := httptest.NewRecorder()
	readyHandler(kvstore.NewMemory())(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ready = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	readyHandler(downStore{Memory: kvstore.NewMemory()})(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with store down = %d, want 503", w.Code)
	}
}

func TestNewSearcherFallsBackToLocal(t *testing.T) {
	cfg := NewDefaultConfig().Catalog
	cfg.HousePlantsURL = ""
	s := newSearcher(cfg, testutil.Logger())

	res, err := s.Search(context.Background(), "monstera")
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != catalog.LocalSourceName || len(res.Entries) != 1 {
		t.Errorf("result = %+v", res)
	}
}
