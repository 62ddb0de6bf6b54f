// Package fuel models stokeable fire sources (campfire, torch).
// A Source is lit exactly while it has burn time left; burn time is always
// stokes * SecondsPerStoke.
package fuel

import (
	"errors"
	"fmt"
	"math"
)

// burnEpsilon absorbs float residue from fractional fuel values (0.1 * 30 != 3 exactly).
const burnEpsilon = 1e-9

var (
	ErrMaxStokesReached     = errors.New("max stokes reached")
	ErrNotFuel              = errors.New("not fuel")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Ledger is the slice of the inventory a Source consumes from.
type Ledger interface {
	Count(name string) int
	Remove(name string, n int) error
}

// State is the full mutable state of a Source. It is also the persisted shape.
type State struct {
	Lit         bool
	BurnTime    float64
	Stokes      float64
	LightRadius float64
	Scale       float64
	OriginY     float64
}

// Change describes one mutation so presentation code can react without polling.
type Change struct {
	Source       string
	Before       State
	After        State
	Ignited      bool
	Extinguished bool
}

func (c Change) Changed() bool { return c.Before != c.After }

type Source struct {
	id string
	p  Params
	st State
}

// New returns an unlit source at the fresh (never burned) baseline.
func New(id string, p Params) *Source {
	return &Source{id: id, p: p, st: State{Scale: p.BaseScale, OriginY: p.BaseOrigin}}
}

// FromState rebuilds a source from persisted state. Unlit state is kept as-is apart from
// clearing fuel; lit state keeps its visuals and re-derives stokes from burn time.
func FromState(id string, p Params, st State) *Source {
	s := &Source{id: id, p: p}
	if !st.Lit || !(st.BurnTime > burnEpsilon) {
		st.Lit = false
		st.BurnTime = 0
		st.Stokes = 0
		st.LightRadius = 0
		s.st = st
		return s
	}
	if st.BurnTime > p.MaxBurnTime() {
		st.BurnTime = p.MaxBurnTime()
	}
	st.Stokes = st.BurnTime / p.SecondsPerStoke
	s.st = st
	return s
}

func (s *Source) ID() string        { return s.id }
func (s *Source) Params() Params    { return s.p }
func (s *Source) State() State      { return s.st }
func (s *Source) Lit() bool         { return s.st.Lit }
func (s *Source) BurnTime() float64 { return s.st.BurnTime }
func (s *Source) Stokes() float64   { return s.st.Stokes }

// Embers reports whether the source is unlit after having burned.
func (s *Source) Embers() bool {
	return !s.st.Lit && s.st.Scale == s.p.EmberScale && s.st.OriginY == s.p.EmberOrigin
}

// Stoke feeds quantity units of item into the source, consuming them from ledger.
func (s *Source) Stoke(ledger Ledger, item string, quantity int) (Change, error) {
	if s.st.Stokes >= s.p.MaxStokes {
		return Change{}, fmt.Errorf("stoke %s: %w", s.id, ErrMaxStokesReached)
	}
	value := s.p.Value(item)
	if value <= 0 {
		return Change{}, fmt.Errorf("stoke %s with %q: %w", s.id, item, ErrNotFuel)
	}
	if quantity < 1 || ledger == nil || ledger.Count(item) < quantity {
		return Change{}, fmt.Errorf("stoke %s with %d %q: %w", s.id, quantity, item, ErrInsufficientQuantity)
	}
	if err := ledger.Remove(item, quantity); err != nil {
		return Change{}, fmt.Errorf("stoke %s: %w: %v", s.id, ErrInsufficientQuantity, err)
	}

	ch := Change{Source: s.id, Before: s.st}
	if !s.st.Lit {
		s.st = State{
			Lit:         true,
			LightRadius: s.p.BaseLightRadius,
			Scale:       s.p.BaseScale,
			OriginY:     s.p.BaseOrigin,
		}
		ch.Ignited = true
	}
	s.st.Stokes = math.Min(s.p.MaxStokes, s.st.Stokes+value*float64(quantity))
	s.derive()
	ch.After = s.st
	return ch, nil
}

// Tick burns whole seconds of fuel and extinguishes the source when none is left.
func (s *Source) Tick(deltaSeconds float64) Change {
	ch := Change{Source: s.id, Before: s.st, After: s.st}
	if !s.st.Lit {
		return ch
	}
	whole := math.Floor(deltaSeconds)
	if whole <= 0 {
		return ch
	}
	s.st.BurnTime -= whole
	if s.st.BurnTime <= burnEpsilon {
		return s.extinguish(ch.Before)
	}
	s.st.Stokes = s.st.BurnTime / s.p.SecondsPerStoke
	ch.After = s.st
	return ch
}

// Extinguish puts the source out and leaves it at the embers baseline. Calling it on an
// unlit source after the first time changes nothing.
func (s *Source) Extinguish() Change {
	return s.extinguish(s.st)
}

func (s *Source) extinguish(before State) Change {
	wasLit := before.Lit
	s.st = State{Scale: s.p.EmberScale, OriginY: s.p.EmberOrigin}
	return Change{Source: s.id, Before: before, After: s.st, Extinguished: wasLit}
}

// derive recomputes burn time and visuals from the stoke count.
func (s *Source) derive() {
	s.st.BurnTime = s.st.Stokes * s.p.SecondsPerStoke
	s.st.LightRadius, s.st.Scale, s.st.OriginY = s.p.LitVisuals(s.st.Stokes)
}

// LitVisuals returns light radius, scale and origin for a lit source holding stokes.
func (p Params) LitVisuals(stokes float64) (radius, scale, originY float64) {
	frac := 0.0
	if p.MaxStokes > 0 {
		frac = stokes / p.MaxStokes
	}
	return lerp(p.BaseLightRadius, p.MaxLightRadius, frac),
		lerp(p.BaseScale, p.MaxScale, frac),
		lerp(p.BaseOrigin, p.MaxOrigin, frac)
}

func lerp(a, b, t float64) float64 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a + (b-a)*t
}
