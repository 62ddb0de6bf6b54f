package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var ErrInsufficient = errors.New("insufficient quantity")

// Item is one ledger entry. Names are case-sensitive.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Ledger maps item name to quantity. Entries never hold a zero quantity.
type Ledger struct {
	items map[string]int
}

func New() *Ledger {
	return &Ledger{items: map[string]int{}}
}

// FromMap builds a ledger from persisted counts, dropping empty names and non-positive counts.
func FromMap(m map[string]int) *Ledger {
	l := New()
	for name, n := range m {
		l.Add(name, n)
	}
	return l
}

func (l *Ledger) Count(name string) int {
	if l == nil {
		return 0
	}
	return l.items[name]
}

func (l *Ledger) Has(name string, n int) bool {
	return n > 0 && l.Count(name) >= n
}

func (l *Ledger) Add(name string, n int) {
	if l == nil || name == "" || n <= 0 {
		return
	}
	if l.items == nil {
		l.items = map[string]int{}
	}
	l.items[name] += n
}

// Remove takes n units of name, deleting the entry when it reaches zero.
func (l *Ledger) Remove(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("remove %q: non-positive quantity %d", name, n)
	}
	have := l.Count(name)
	if have < n {
		return fmt.Errorf("remove %d %q (have %d): %w", n, name, have, ErrInsufficient)
	}
	if have == n {
		delete(l.items, name)
		return nil
	}
	l.items[name] = have - n
	return nil
}

// Items returns entries sorted by name.
func (l *Ledger) Items() []Item {
	if l == nil {
		return nil
	}
	out := make([]Item, 0, len(l.items))
	for name, n := range l.items {
		out = append(out, Item{Name: name, Quantity: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Map returns a copy of the counts, suitable for persistence.
func (l *Ledger) Map() map[string]int {
	out := make(map[string]int, l.Len())
	if l == nil {
		return out
	}
	for name, n := range l.items {
		out[name] = n
	}
	return out
}

// Closest returns the held item whose name is nearest to name, for "did you mean" hints.
// Case differences count as a near miss before edit distance is considered.
func (l *Ledger) Closest(name string) (string, bool) {
	if l.Len() == 0 || name == "" {
		return "", false
	}
	lower := strings.ToLower(name)
	best := ""
	bestDist := -1
	for _, it := range l.Items() {
		if it.Name == name {
			continue
		}
		if strings.ToLower(it.Name) == lower {
			return it.Name, true
		}
		d := levenshtein.ComputeDistance(lower, strings.ToLower(it.Name))
		if d > distanceLimit(len(it.Name)) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = it.Name, d
		}
	}
	return best, bestDist >= 0
}

func distanceLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}
