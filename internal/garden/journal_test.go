package garden

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/models"
)

func TestJournalKeepsMostRecent(t *testing.T) {
	j := NewJournal(nil)
	for i := range 60 {
		j.Append("p", models.JourneyEntry{ID: fmt.Sprintf("e%d", i), Action: models.ActionNote})
	}

	got := slices.Collect(j.Entries("p"))
	if len(got) != MaxJourneyEntries {
		t.Fatalf("entries = %d, want %d", len(got), MaxJourneyEntries)
	}
	for i, e := range got {
		if want := fmt.Sprintf("e%d", i+10); e.ID != want {
			t.Fatalf("entry %d = %s, want %s", i, e.ID, want)
		}
	}
}

func TestJournalEntriesStopsEarly(t *testing.T) {
	j := NewJournal(nil)
	for i := range 5 {
		j.Append("p", models.JourneyEntry{ID: fmt.Sprintf("e%d", i)})
	}
	var seen []string
	for e := range j.Entries("p") {
		seen = append(seen, e.ID)
		if len(seen) == 2 {
			break
		}
	}
	if len(seen) != 2 || seen[1] != "e1" {
		t.Errorf("seen = %v", seen)
	}
}

func TestNewJournalTrimsSeed(t *testing.T) {
	seed := map[string][]models.JourneyEntry{}
	for i := range 70 {
		seed["p"] = append(seed["p"], models.JourneyEntry{ID: fmt.Sprintf("e%d", i)})
	}
	j := NewJournal(seed)
	if j.Len("p") != MaxJourneyEntries {
		t.Errorf("len = %d", j.Len("p"))
	}
	if first := slices.Collect(j.Entries("p"))[0].ID; first != "e20" {
		t.Errorf("first = %s, want e20", first)
	}
	if len(seed["p"]) != 70 {
		t.Error("seed must not be modified")
	}
}

func TestGardenJourneyCap(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	p := mustAdd(t, env.g, pothos())
	for i := range 60 {
		if _, err := env.g.AddNote(ctx, p.ID, fmt.Sprintf("note %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	journey, _ := env.g.Journey(p.ID)
	if len(journey) != MaxJourneyEntries {
		t.Fatalf("journey = %d entries", len(journey))
	}
	if journey[0].Description != "Added note: note 10" || journey[49].Description != "Added note: note 59" {
		t.Errorf("window = %q .. %q", journey[0].Description, journey[49].Description)
	}
	got, _ := env.g.Plant(p.ID)
	if len(got.Notes) != 60 {
		t.Errorf("notes are not capped: %d", len(got.Notes))
	}
}

func TestJourneyUnknownPlant(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.g.Journey("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	p := mustAdd(t, env.g, snakePlant())
	if _, err := env.g.RecordWater(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	before := env.store.saves

	exp, err := env.g.Export(p.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if env.store.saves != before {
		t.Error("export must not persist anything")
	}
	if exp.Plant.Nickname != "Snake Plant" || exp.Plant.ScientificName != "Sansevieria trifasciata" {
		t.Errorf("plant = %+v", exp.Plant)
	}
	if !exp.Plant.AddedAt.Equal(epoch) {
		t.Errorf("added_at = %v", exp.Plant.AddedAt)
	}
	if len(exp.Journey) != 2 || exp.Journey[0].Action != models.ActionAdded || exp.Journey[1].Action != models.ActionWatered {
		t.Errorf("journey = %+v", exp.Journey)
	}

	raw, err := json.Marshal(exp)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	if _, ok := doc["plant"].(map[string]any)["added_at"]; !ok {
		t.Errorf("export json = %s", raw)
	}

	if err := env.g.RemovePlant(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.g.Export(p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("export of removed plant err = %v", err)
	}
}

func TestExportFileName(t *testing.T) {
	cases := map[string]string{
		"Snake Plant":       "Snake_Plant_journey.json",
		"My  Big\tMonstera": "My_Big_Monstera_journey.json",
		"Fern":              "Fern_journey.json",
	}
	for in, want := range cases {
		if got := ExportFileName(in); got != want {
			t.Errorf("ExportFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
