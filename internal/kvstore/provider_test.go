package kvstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/planthub/internal/apperr"
)

// exerciseProvider runs the behaviour every backend must share.
func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	if _, err := p.Get(ctx, "plants"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	if err := p.Put(ctx, "plants", []byte(`[1]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := p.Put(ctx, "plants", []byte(`[1,2]`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := p.Get(ctx, "plants")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("value = %q, want [1,2]", got)
	}

	if err := p.Put(ctx, "reminders", []byte(`[]`)); err != nil {
		t.Fatalf("Put second key: %v", err)
	}
	keys, err := p.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "plants" || keys[1] != "reminders" {
		t.Errorf("keys = %v, want [plants reminders]", keys)
	}

	if err := p.Delete(ctx, "plants"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := p.Delete(ctx, "plants"); err != nil {
		t.Errorf("Delete missing should be a no-op, got %v", err)
	}
	if _, err := p.Get(ctx, "plants"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	if b, ok := p.(Batcher); ok {
		err := b.PutMany(ctx, map[string][]byte{
			"plants":   []byte(`["a"]`),
			"journeys": []byte(`{}`),
		})
		if err != nil {
			t.Fatalf("PutMany: %v", err)
		}
		got, _ := p.Get(ctx, "journeys")
		if string(got) != `{}` {
			t.Errorf("journeys = %q after PutMany", got)
		}
		if err := b.PutMany(ctx, map[string][]byte{"../x": nil}); err == nil {
			t.Error("PutMany accepted an invalid key")
		}
	}
}

func TestValidateKey(t *testing.T) {
	good := []string{"plants", "reminders", "schema.v1", "a_b-c"}
	for _, k := range good {
		if err := ValidateKey(k); err != nil {
			t.Errorf("ValidateKey(%q) = %v", k, err)
		}
	}
	bad := []string{"", ".", "..", "../etc/passwd", "a/b", "/abs", ".hidden"}
	for _, k := range bad {
		if err := ValidateKey(k); err == nil {
			t.Errorf("ValidateKey(%q) accepted", k)
		}
	}
}

func TestMemoryProvider(t *testing.T) {
	exerciseProvider(t, NewMemory())
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Put(ctx, "k", []byte("abc"))
	v, _ := m.Get(ctx, "k")
	v[0] = 'z'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through Get: %q", again)
	}
}

func TestSQLiteProvider(t *testing.T) {
	f, err := os.CreateTemp("", "planthub-kv-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	exerciseProvider(t, s)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := t.TempDir() + "/kv.db"
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Put(ctx, "plants", []byte(`["fern"]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "plants")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `["fern"]` {
		t.Errorf("value = %q", got)
	}
}

func TestPostgresProvider(t *testing.T) {
	dsn := os.Getenv("PLANTHUB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PLANTHUB_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	for _, k := range []string{"plants", "reminders", "journeys"} {
		_ = p.Delete(ctx, k)
	}
	exerciseProvider(t, p)
}
