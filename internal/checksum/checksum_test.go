package checksum

import "testing"

func TestSumStable(t *testing.T) {
	a := Sum([]byte("monstera"))
	b := Sum([]byte("monstera"))
	if a != b {
		t.Fatalf("Sum not stable: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestMatches(t *testing.T) {
	data := []byte(`{"version":1}`)
	if !Matches(data, Sum(data)) {
		t.Error("expected match for own checksum")
	}
	if Matches(data, Sum([]byte("other"))) {
		t.Error("expected mismatch for different content")
	}
	if Matches(data, "") {
		t.Error("empty sum must never match")
	}
}
