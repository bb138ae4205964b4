package uuid7

import (
	"testing"
	"time"
)

func TestNew_IsVersion7(t *testing.T) {
	id := New()
	if !id.IsV7() {
		t.Fatalf("expected version 7, got version %d", id.UUID.Version())
	}
	if id.IsZero() {
		t.Fatal("expected non-zero id")
	}
}

func TestDerive_Deterministic(t *testing.T) {
	src := []byte{0xde, 0xad, 0xbe, 0xef}
	ts := time.UnixMilli(1_700_000_000_000).UTC()

	a := Derive(src, ts)
	b := Derive(src, ts)

	if a.String() != b.String() {
		t.Fatalf("derivation not deterministic: %s != %s", a, b)
	}
	if !a.IsV7() {
		t.Fatalf("derived id is not version 7")
	}
	if got := a.Time().UnixMilli(); got != ts.UnixMilli() {
		t.Errorf("expected embedded time %d, got %d", ts.UnixMilli(), got)
	}
}

func TestDerive_DifferentSourceDifferentID(t *testing.T) {
	ts := time.Now()
	a := Derive([]byte("trace-a"), ts)
	b := Derive([]byte("trace-b"), ts)
	if a.String() == b.String() {
		t.Fatal("expected different ids for different source bytes")
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.String() != id.String() {
		t.Errorf("round trip mismatch: %s != %s", parsed, id)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error for invalid uuid")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	id := New()
	data, err := id.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out UUID
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != id.String() {
		t.Errorf("json round trip mismatch: %s != %s", out, id)
	}
}

func TestIsZero(t *testing.T) {
	var zero UUID
	if !zero.IsZero() {
		t.Fatal("expected zero-value UUID to report IsZero")
	}
	if New().IsZero() {
		t.Fatal("expected fresh UUID to not report IsZero")
	}
}
