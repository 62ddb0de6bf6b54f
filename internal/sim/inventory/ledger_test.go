package inventory

import (
	"errors"
	"testing"
)

func TestAddRemove(t *testing.T) {
	l := New()
	l.Add("Wood", 3)
	l.Add("Wood", 2)
	l.Add("", 5)
	l.Add("Lint", 0)
	if got := l.Count("Wood"); got != 5 {
		t.Fatalf("expected Wood=5, got %d", got)
	}
	if l.Len() != 1 {
		t.Fatalf("expected only Wood entry, got %#v", l.Items())
	}

	if err := l.Remove("Wood", 4); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := l.Remove("Wood", 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected Wood removed at zero, got %#v", l.Items())
	}
}

func TestRemoveInsufficient(t *testing.T) {
	l := FromMap(map[string]int{"Raw Cod": 1})
	err := l.Remove("Raw Cod", 2)
	if !errors.Is(err, ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	if l.Count("Raw Cod") != 1 {
		t.Fatalf("failed remove must not change the ledger")
	}
	if err := l.Remove("Raw Cod", 0); err == nil {
		t.Fatalf("expected error for zero quantity")
	}
}

func TestNamesAreCaseSensitive(t *testing.T) {
	l := New()
	l.Add("wood", 1)
	l.Add("Wood", 1)
	if l.Len() != 2 {
		t.Fatalf("expected two distinct entries, got %#v", l.Items())
	}
}

func TestMapIsCopy(t *testing.T) {
	l := FromMap(map[string]int{"Stick": 2, "Bad": -1})
	m := l.Map()
	m["Stick"] = 99
	if l.Count("Stick") != 2 {
		t.Fatalf("Map must return a copy")
	}
	if l.Count("Bad") != 0 {
		t.Fatalf("negative counts must be dropped")
	}
}

func TestClosest(t *testing.T) {
	l := FromMap(map[string]int{"Raw Cod": 1, "Wood": 4, "Lint": 2})

	if got, ok := l.Closest("raw cod"); !ok || got != "Raw Cod" {
		t.Fatalf("expected case-insensitive hit Raw Cod, got %q %v", got, ok)
	}
	if got, ok := l.Closest("Wod"); !ok || got != "Wood" {
		t.Fatalf("expected Wood, got %q %v", got, ok)
	}
	if _, ok := l.Closest("Iron Ingot"); ok {
		t.Fatalf("expected no suggestion for unrelated name")
	}
	if _, ok := New().Closest("Wood"); ok {
		t.Fatalf("expected no suggestion from empty ledger")
	}
}
