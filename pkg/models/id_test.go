package models

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 40 {
			t.Fatalf("id length = %d, want 40", len(id))
		}
		if strings.ToLower(id) != id {
			t.Errorf("id %q is not lowercase", id)
		}
		for _, c := range id {
			if !strings.ContainsRune("0123456789abcdef", c) {
				t.Fatalf("id %q contains non-hex character %q", id, c)
			}
		}
		if seen[id] {
			t.Fatalf("id %q generated twice", id)
		}
		seen[id] = true
	}
}

func TestShortID(t *testing.T) {
	id := "0123456789abcdef0123456789abcdef01234567"
	if got := ShortID(id); got != "1234567" {
		t.Errorf("ShortID(%q) = %q, want the final 7 characters %q", id, got, "1234567")
	}

	if got := ShortID("short"); got != "short" {
		t.Errorf("ShortID of a short input = %q, want it unchanged", got)
	}

	generated := NewID()
	if got := ShortID(generated); got != generated[33:40] {
		t.Errorf("ShortID(%q) = %q, want %q", generated, got, generated[33:40])
	}
}
