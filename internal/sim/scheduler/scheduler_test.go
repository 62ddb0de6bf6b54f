package scheduler

import (
	"testing"
	"time"

	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/inventory"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func litCampfire(t *testing.T, inv *inventory.Ledger, item string, qty int) *fuel.Source {
	t.Helper()
	src := fuel.New("campfire", fuel.DefaultParams())
	if _, err := src.Stoke(inv, item, qty); err != nil {
		t.Fatalf("Stoke: %v", err)
	}
	return src
}

func TestStepCooksToCompletion(t *testing.T) {
	inv := inventory.FromMap(map[string]int{"Wood": 1, "Raw Cod": 1})
	src := litCampfire(t, inv, "Wood", 1)
	task := cooking.New(src, cooking.DefaultParams())
	if err := task.Start(inv, "Raw Cod", t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s := New(time.Second, Binding{Source: src, Task: task})

	var completed int
	for i := 0; i < 30; i++ {
		r := s.Step()
		completed += len(r.Completed)
	}
	if completed != 1 || task.Phase() != cooking.PhaseComplete {
		t.Fatalf("expected one completion, got %d phase=%s", completed, task.Phase())
	}
	if src.BurnTime() != 60 {
		t.Fatalf("expected 60s of fuel left, got %v", src.BurnTime())
	}
	item, err := task.Claim(inv)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if item.Name != "Cooked Raw Cod" || inv.Count("Cooked Raw Cod") != 1 {
		t.Fatalf("unexpected claim: %+v ledger=%#v", item, inv.Items())
	}
}

func TestStepFireOutCancelsBeforeProgress(t *testing.T) {
	inv := inventory.FromMap(map[string]int{"Lint": 1, "Raw Cod": 1})
	src := litCampfire(t, inv, "Lint", 1) // 3 seconds of fire
	task := cooking.New(src, cooking.DefaultParams())
	if err := task.Start(inv, "Raw Cod", t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s := New(time.Second, Binding{Source: src, Task: task})

	s.Step()
	s.Step()
	if task.Elapsed() != 2 {
		t.Fatalf("expected 2s cooked, got %v", task.Elapsed())
	}
	r := s.Step()
	if len(r.Extinguished) != 1 || len(r.Cancelled) != 1 {
		t.Fatalf("expected extinguish+cancel in same step, got %+v", r)
	}
	if len(r.Cooking) != 0 || len(r.Completed) != 0 {
		t.Fatalf("cancelled task must not progress, got %+v", r)
	}
	if task.Phase() != cooking.PhaseIdle || task.Elapsed() != 0 {
		t.Fatalf("expected idle reset, got %+v", task.State())
	}
	if inv.Count("Cooked Raw Cod") != 0 {
		t.Fatalf("no dish expected")
	}
}

func TestStepTenTicksThenBurnOut(t *testing.T) {
	inv := inventory.FromMap(map[string]int{"Wood": 1, "Raw Cod": 1})
	src := litCampfire(t, inv, "Wood", 1)
	task := cooking.New(src, cooking.DefaultParams())
	if err := task.Start(inv, "Raw Cod", t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s := New(time.Second, Binding{Source: src, Task: task})
	for i := 0; i < 10; i++ {
		s.Step()
	}
	// Burn the rest of the fuel in one go, then let the scheduler observe it.
	src.Tick(src.BurnTime() - 1)
	r := s.Step()
	if len(r.Cancelled) != 1 {
		t.Fatalf("expected cancellation, got %+v", r)
	}
	if task.Phase() != cooking.PhaseIdle || task.Elapsed() != 0 {
		t.Fatalf("expected idle, got %+v", task.State())
	}
	if inv.Len() != 0 {
		t.Fatalf("no inventory credit expected, got %#v", inv.Items())
	}
}

func TestStepSourcesWithoutTasks(t *testing.T) {
	inv := inventory.FromMap(map[string]int{"Stick": 1})
	torch := fuel.New("torch", fuel.DefaultParams())
	if _, err := torch.Stoke(inv, "Stick", 1); err != nil {
		t.Fatalf("Stoke: %v", err)
	}
	unlit := fuel.New("lantern", fuel.DefaultParams())
	s := New(time.Second, Binding{Source: torch}, Binding{Source: unlit}, Binding{})
	if len(s.Bindings()) != 2 {
		t.Fatalf("nil sources must be dropped, got %d", len(s.Bindings()))
	}
	var extinguished int
	for i := 0; i < 90; i++ {
		r := s.Step()
		extinguished += len(r.Extinguished)
		if len(r.Fuel) > 1 {
			t.Fatalf("unlit source must not report changes")
		}
	}
	if extinguished != 1 || torch.Lit() {
		t.Fatalf("expected torch out after 90 steps, got %d lit=%v", extinguished, torch.Lit())
	}
	if r := s.Step(); !r.Empty() {
		t.Fatalf("expected empty report once everything is out, got %+v", r)
	}
}

func TestStopPreventsFurtherSteps(t *testing.T) {
	inv := inventory.FromMap(map[string]int{"Wood": 1})
	src := litCampfire(t, inv, "Wood", 1)
	s := New(time.Second, Binding{Source: src})

	s.Start()
	if !s.Running() || s.C() == nil {
		t.Fatalf("expected running ticker")
	}
	s.Stop()
	if s.Running() || s.C() != nil || !s.Stopped() {
		t.Fatalf("expected stopped scheduler with nil channel")
	}
	if r := s.Step(); r.Step != 0 {
		t.Fatalf("stopped scheduler stepped: %+v", r)
	}
	if src.BurnTime() != 90 {
		t.Fatalf("stopped scheduler changed fuel: %v", src.BurnTime())
	}
	s.Start()
	if s.Running() {
		t.Fatalf("start after stop must be a no-op")
	}
}

func TestDefaultPeriod(t *testing.T) {
	if New(0).Period() != DefaultPeriod {
		t.Fatalf("expected default period")
	}
}
