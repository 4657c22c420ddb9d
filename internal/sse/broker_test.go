package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/planthub/internal/garden"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestNotifyDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(garden.Event{Kind: garden.EventPlantNoted, PlantID: "p1"})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: plant.noted") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"plant_id":"p1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestRemindersUpdatedThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(garden.Event{Kind: garden.EventPlantWatered, PlantID: "a"})
	b.Notify(garden.Event{Kind: garden.EventReminderCompleted, PlantID: "b"})
	// Notes never move reminders.
	b.Notify(garden.Event{Kind: garden.EventPlantNoted, PlantID: "c"})

	time.Sleep(50 * time.Millisecond)
	reminders, other := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "event: "+EventRemindersUpdated) {
			reminders++
		} else {
			other++
		}
	}
	if other != 3 {
		t.Errorf("garden events = %d, want 3", other)
	}
	if reminders != 1 {
		t.Errorf("reminders.updated = %d, want 1 (throttled)", reminders)
	}
}

func TestNoteDoesNotTriggerRemindersUpdated(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(garden.Event{Kind: garden.EventPlantNoted, PlantID: "c"})
	time.Sleep(50 * time.Millisecond)
	for _, s := range drain(ch) {
		if strings.Contains(s, EventRemindersUpdated) {
			t.Errorf("unexpected %q", s)
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: garden.EventGardenReloaded, Data: map[string]string{}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if body := w.Body.String(); !strings.Contains(body, "event: garden.reloaded") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Client buffer holds 64; the rest must be dropped without blocking.
	for range 70 {
		b.Notify(garden.Event{Kind: garden.EventPlantNoted})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "x"})
	b.Notify(garden.Event{Kind: garden.EventPlantAdded})
}
