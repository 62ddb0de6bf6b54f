// Package view turns simulation state into what the rendering and UI
// collaborators draw. Nothing here mutates state.
package view

import (
	"errors"
	"math"

	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/inventory"
)

type Texture string

const (
	TextureFire   Texture = "fire"
	TextureEmbers Texture = "embers"
	TextureUnlit  Texture = "unlit"
)

type SourceView struct {
	ID          string  `json:"id"`
	Lit         bool    `json:"lit"`
	BurnTime    float64 `json:"burn_time"`
	Stokes      float64 `json:"stokes"`
	MaxStokes   float64 `json:"max_stokes"`
	LightRadius float64 `json:"light_radius"`
	Scale       float64 `json:"scale"`
	OriginY     float64 `json:"origin_y"`
	Texture     Texture `json:"texture"`
}

func Source(s *fuel.Source) SourceView {
	st := s.State()
	tex := TextureUnlit
	switch {
	case st.Lit:
		tex = TextureFire
	case s.Embers():
		tex = TextureEmbers
	}
	return SourceView{
		ID:          s.ID(),
		Lit:         st.Lit,
		BurnTime:    st.BurnTime,
		Stokes:      round2(st.Stokes),
		MaxStokes:   s.Params().MaxStokes,
		LightRadius: st.LightRadius,
		Scale:       st.Scale,
		OriginY:     st.OriginY,
		Texture:     tex,
	}
}

type CookingView struct {
	Source    string  `json:"source"`
	State     string  `json:"state"`
	Progress  float64 `json:"progress"`
	Remaining float64 `json:"remaining"`
	Dish      string  `json:"dish,omitempty"`
	Claimable bool    `json:"claimable"`
}

func Cooking(t *cooking.Task) CookingView {
	v := CookingView{
		State:     string(t.Phase()),
		Progress:  t.Progress(),
		Claimable: t.Phase() == cooking.PhaseComplete,
	}
	if t.Fire() != nil {
		v.Source = t.Fire().ID()
	}
	if res, ok := t.Result(); ok {
		v.Dish = res.Name
	}
	if t.Phase() == cooking.PhaseCooking {
		v.Remaining = math.Max(0, t.Params().DurationSeconds-t.Elapsed())
	}
	return v
}

// Frame is everything a client needs to redraw one scene.
type Frame struct {
	Scene     string           `json:"scene,omitempty"`
	Sources   []SourceView     `json:"sources"`
	Cooking   *CookingView     `json:"cooking,omitempty"`
	Inventory []inventory.Item `json:"inventory"`
}

func NewFrame(scene string, sources []*fuel.Source, task *cooking.Task, l *inventory.Ledger) Frame {
	f := Frame{Scene: scene, Sources: []SourceView{}, Inventory: []inventory.Item{}}
	for _, s := range sources {
		f.Sources = append(f.Sources, Source(s))
	}
	if task != nil {
		cv := Cooking(task)
		f.Cooking = &cv
	}
	if l != nil {
		f.Inventory = l.Items()
	}
	return f
}

const (
	MsgMaxStokes    = "Max stokes reached"
	MsgNotFuel      = "That won't burn"
	MsgNotEnough    = "You don't have enough of that"
	MsgFireNotLit   = "The fire isn't lit"
	MsgBusy         = "Something is already cooking"
	MsgNotCookable  = "You can't cook that"
	MsgNotReady     = "It isn't ready yet"
	MsgFireWentOut  = "The fire went out"
	MsgDishReady    = "Your food is ready"
	MsgFireLit      = "The fire crackles to life"
	MsgUnknownError = "That didn't work"
)

// Message is the user-visible text for a rejected operation.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fuel.ErrMaxStokesReached):
		return MsgMaxStokes
	case errors.Is(err, fuel.ErrNotFuel):
		return MsgNotFuel
	case errors.Is(err, fuel.ErrInsufficientQuantity), errors.Is(err, cooking.ErrInsufficientQuantity):
		return MsgNotEnough
	case errors.Is(err, cooking.ErrFireNotLit):
		return MsgFireNotLit
	case errors.Is(err, cooking.ErrAlreadyCooking):
		return MsgBusy
	case errors.Is(err, cooking.ErrNotCookable):
		return MsgNotCookable
	case errors.Is(err, cooking.ErrNotReady):
		return MsgNotReady
	default:
		return MsgUnknownError
	}
}

// WithSuggestion appends a "did you mean" hint to msg.
func WithSuggestion(msg, suggestion string) string {
	if suggestion == "" {
		return msg
	}
	return msg + ". Did you mean " + suggestion + "?"
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
