package view

import (
	"fmt"
	"testing"
	"time"

	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/inventory"
)

func TestSourceTextures(t *testing.T) {
	p := fuel.DefaultParams()
	src := fuel.New("campfire", p)
	if got := Source(src).Texture; got != TextureUnlit {
		t.Fatalf("fresh source: %s", got)
	}

	ledger := inventory.FromMap(map[string]int{"Lint": 1})
	if _, err := src.Stoke(ledger, "Lint", 1); err != nil {
		t.Fatalf("stoke: %v", err)
	}
	v := Source(src)
	if v.Texture != TextureFire || !v.Lit || v.MaxStokes != 7 || v.Stokes != 0.1 {
		t.Fatalf("lit view: %+v", v)
	}
	src.Extinguish()
	v = Source(src)
	if v.Texture != TextureEmbers || v.LightRadius != 0 || v.Scale != p.EmberScale {
		t.Fatalf("embers view: %+v", v)
	}
}

func TestCookingView(t *testing.T) {
	src := fuel.New("campfire", fuel.DefaultParams())
	ledger := inventory.FromMap(map[string]int{"Wood": 1, "Raw Meat": 1})
	if _, err := src.Stoke(ledger, "Wood", 1); err != nil {
		t.Fatalf("stoke: %v", err)
	}
	task := cooking.New(src, cooking.DefaultParams())
	if err := task.Start(ledger, "Raw Meat", time.Unix(0, 0)); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 12; i++ {
		task.Tick(1)
	}
	v := Cooking(task)
	if v.State != "COOKING" || v.Progress != 0.4 || v.Remaining != 18 || v.Claimable || v.Dish != "Cooked Raw Meat" {
		t.Fatalf("cooking view: %+v", v)
	}
	for i := 0; i < 18; i++ {
		task.Tick(1)
	}
	v = Cooking(task)
	if !v.Claimable || v.Progress != 1 || v.Remaining != 0 {
		t.Fatalf("complete view: %+v", v)
	}

	f := NewFrame("camp", []*fuel.Source{src}, task, ledger)
	if f.Scene != "camp" || len(f.Sources) != 1 || f.Cooking == nil || len(f.Inventory) != 0 {
		t.Fatalf("frame: %+v", f)
	}
}

func TestMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("stoke campfire: %w", fuel.ErrMaxStokesReached), MsgMaxStokes},
		{fuel.ErrNotFuel, MsgNotFuel},
		{fuel.ErrInsufficientQuantity, MsgNotEnough},
		{cooking.ErrInsufficientQuantity, MsgNotEnough},
		{cooking.ErrFireNotLit, MsgFireNotLit},
		{cooking.ErrAlreadyCooking, MsgBusy},
		{cooking.ErrNotCookable, MsgNotCookable},
		{cooking.ErrNotReady, MsgNotReady},
		{fmt.Errorf("disk full"), MsgUnknownError},
	}
	for _, c := range cases {
		if got := Message(c.err); got != c.want {
			t.Fatalf("Message(%v) = %q, want %q", c.err, got, c.want)
		}
	}
	if got := WithSuggestion(MsgNotEnough, "Wood"); got != "You don't have enough of that. Did you mean Wood?" {
		t.Fatalf("suggestion: %q", got)
	}
	if got := WithSuggestion(MsgNotEnough, ""); got != MsgNotEnough {
		t.Fatalf("empty suggestion: %q", got)
	}
}
