package core

import (
	"testing"
)

func TestKeyFromContent(t *testing.T) {
	key1 := KeyFromContent("some content")
	key2 := KeyFromContent("some content")

	if key1 != key2 {
		t.Fatalf("Expected identical keys for identical content, got %s and %s", key1, key2)
	}
	if len(key1) != 16 {
		t.Fatalf("Expected 16 hex chars, got %d (%s)", len(key1), key1)
	}
}

func TestKeyFromContent_Different(t *testing.T) {
	key1 := KeyFromContent("content a")
	key2 := KeyFromContent("content b")

	if key1 == key2 {
		t.Fatalf("Expected different keys for different content, both %s", key1)
	}
}

func TestVocabularyKey_PerUser(t *testing.T) {
	// Same item under two users must not collide.
	keyA := VocabularyKey("user-a", "invoice")
	keyB := VocabularyKey("user-b", "invoice")
	if keyA == keyB {
		t.Fatalf("Expected distinct keys for distinct users, both %s", keyA)
	}

	// Same (user, item) always derives the same key.
	if VocabularyKey("user-a", "invoice") != keyA {
		t.Fatal("Expected deterministic key derivation")
	}
}

func TestStringSet(t *testing.T) {
	s := NewStringSet("b", "a", "b", "c")

	if len(s) != 3 {
		t.Fatalf("Expected 3 unique elements, got %d", len(s))
	}
	if !s.Has("a") || !s.Has("b") || !s.Has("c") {
		t.Fatal("Expected all inserted elements present")
	}
	if s.Has("d") {
		t.Fatal("Did not expect element d")
	}

	s.Add("d")
	if !s.Has("d") {
		t.Fatal("Expected element d after Add")
	}

	elems := s.Elems()
	want := []string{"a", "b", "c", "d"}
	if len(elems) != len(want) {
		t.Fatalf("Expected %d elements, got %d", len(want), len(elems))
	}
	for i := range want {
		if elems[i] != want[i] {
			t.Fatalf("Expected sorted elements %v, got %v", want, elems)
		}
	}
}

func TestLevelRoundTrip(t *testing.T) {
	for _, level := range []Level{LevelBasic, LevelIntermediate, LevelAdvanced, LevelExpert} {
		parsed, err := ParseLevel(level.String())
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", level.String(), err)
		}
		if parsed != level {
			t.Fatalf("Expected %v, got %v", level, parsed)
		}
	}
}

func TestParseLevel_Invalid(t *testing.T) {
	if _, err := ParseLevel("fluent"); err == nil {
		t.Fatal("Expected error for unknown level name")
	}
}
