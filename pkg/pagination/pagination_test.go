package pagination

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 30, 0, 123, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: at, ID: "ORD-1"})

	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if got == nil || !got.CreatedAt.Equal(at) || got.ID != "ORD-1" {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	got, err := ParseCursor("  ")
	if err != nil || got != nil {
		t.Fatalf("expected nil cursor, got %+v err %v", got, err)
	}
	for _, raw := range []string{"%%%", EncodeCursor(Cursor{ID: ""})[:4]} {
		if _, err := ParseCursor(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 5: 5, 1000: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d want %d", in, got, want)
		}
	}
}

func TestCursorAfter(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := Cursor{CreatedAt: at, ID: "ORD-b"}
	if c.After(at, "ORD-a") {
		t.Fatalf("earlier id at same time must not be after")
	}
	if !c.After(at, "ORD-c") {
		t.Fatalf("later id at same time must be after")
	}
	if !c.After(at.Add(time.Second), "ORD-a") {
		t.Fatalf("later time must be after")
	}
}
