package cooking

import (
	"errors"
	"testing"
	"time"

	"campfire.ai/internal/sim/inventory"
)

type stubFire struct{ lit bool }

func (f *stubFire) ID() string { return "campfire" }
func (f *stubFire) Lit() bool  { return f.lit }

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestCookRawCodToCompletion(t *testing.T) {
	fire := &stubFire{lit: true}
	inv := inventory.FromMap(map[string]int{"Raw Cod": 2})
	task := New(fire, DefaultParams())

	if err := task.Start(inv, "Raw Cod", t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if inv.Count("Raw Cod") != 1 {
		t.Fatalf("expected one Raw Cod consumed, got %d", inv.Count("Raw Cod"))
	}
	if task.Phase() != PhaseCooking || !task.StartedAt().Equal(t0) {
		t.Fatalf("unexpected state after start: %+v", task.State())
	}

	completedAt := 0
	for i := 1; i <= 30; i++ {
		if task.Tick(1) {
			completedAt = i
		}
	}
	if completedAt != 30 || task.Phase() != PhaseComplete {
		t.Fatalf("expected completion on tick 30, got %d phase=%s", completedAt, task.Phase())
	}
	if task.Tick(1) || task.Elapsed() != 30 {
		t.Fatalf("complete task must stop consuming ticks, elapsed=%v", task.Elapsed())
	}

	got, err := task.Claim(inv)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if got.Name != "Cooked Raw Cod" || got.Quantity != 1 {
		t.Fatalf("unexpected claim result: %+v", got)
	}
	if inv.Count("Cooked Raw Cod") != 1 {
		t.Fatalf("expected ledger credit, got %#v", inv.Items())
	}
	if task.Phase() != PhaseIdle || task.Elapsed() != 0 {
		t.Fatalf("expected idle after claim, got %+v", task.State())
	}
}

func TestStartRejections(t *testing.T) {
	cases := []struct {
		name  string
		lit   bool
		phase Phase
		inv   map[string]int
		item  string
		want  error
	}{
		{name: "fire not lit", lit: false, inv: map[string]int{"Raw Cod": 1}, item: "Raw Cod", want: ErrFireNotLit},
		{name: "not cookable", lit: true, inv: map[string]int{"Wood": 1}, item: "Wood", want: ErrNotCookable},
		{name: "missing item", lit: true, inv: map[string]int{}, item: "Raw Meat", want: ErrInsufficientQuantity},
		{name: "already cooking", lit: true, phase: PhaseCooking, inv: map[string]int{"Fish": 1}, item: "Fish", want: ErrAlreadyCooking},
		{name: "complete awaiting claim", lit: true, phase: PhaseComplete, inv: map[string]int{"Fish": 1}, item: "Fish", want: ErrAlreadyCooking},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fire := &stubFire{lit: tc.lit}
			task := New(fire, DefaultParams())
			if tc.phase != "" {
				task = FromState(fire, DefaultParams(), State{
					Phase:   tc.phase,
					Elapsed: 5,
					Result:  &inventory.Item{Name: "Cooked Cod", Quantity: 1},
				})
			}
			inv := inventory.FromMap(tc.inv)
			before := inv.Map()
			if err := task.Start(inv, tc.item, t0); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			for k, v := range before {
				if inv.Count(k) != v {
					t.Fatalf("rejected start consumed %s", k)
				}
			}
		})
	}
}

func TestCookable(t *testing.T) {
	p := DefaultParams()
	for _, name := range []string{"Raw Cod", "COD", "Salted Fish", "meat", "Dog Food", "raw egg"} {
		if !p.Cookable(name) {
			t.Fatalf("expected %q cookable", name)
		}
	}
	for _, name := range []string{"Wood", "Lint", "", "Iron Ingot"} {
		if p.Cookable(name) {
			t.Fatalf("expected %q not cookable", name)
		}
	}
}

func TestFireOutCancelsCooking(t *testing.T) {
	fire := &stubFire{lit: true}
	inv := inventory.FromMap(map[string]int{"Raw Cod": 1})
	task := New(fire, DefaultParams())
	if err := task.Start(inv, "Raw Cod", t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10; i++ {
		task.Tick(1)
	}
	fire.lit = false
	if task.Tick(1) {
		t.Fatalf("tick must not advance with fire out")
	}
	if task.Elapsed() != 10 {
		t.Fatalf("expected elapsed frozen at 10, got %v", task.Elapsed())
	}
	if !task.OnFuelExtinguished() {
		t.Fatalf("expected cancel")
	}
	if task.Phase() != PhaseIdle || task.Elapsed() != 0 {
		t.Fatalf("expected idle reset, got %+v", task.State())
	}
	if _, ok := task.Result(); ok {
		t.Fatalf("result must be discarded")
	}
	if _, err := task.Claim(inv); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if inv.Len() != 0 {
		t.Fatalf("no credit expected, got %#v", inv.Items())
	}
}

func TestFireOutKeepsFinishedDish(t *testing.T) {
	fire := &stubFire{lit: true}
	task := FromState(fire, DefaultParams(), State{
		Phase:   PhaseComplete,
		Elapsed: 30,
		Result:  &inventory.Item{Name: "Cooked Fish", Quantity: 1},
	})
	fire.lit = false
	if task.OnFuelExtinguished() {
		t.Fatalf("complete dish must not be cancelled")
	}
	if task.Phase() != PhaseComplete {
		t.Fatalf("expected complete, got %s", task.Phase())
	}
	if New(fire, DefaultParams()).OnFuelExtinguished() {
		t.Fatalf("idle task has nothing to cancel")
	}
}

func TestClaimNotReady(t *testing.T) {
	task := New(&stubFire{lit: true}, DefaultParams())
	if _, err := task.Claim(inventory.New()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestFromStateRepairsInvariant(t *testing.T) {
	fire := &stubFire{lit: true}
	p := DefaultParams()

	done := FromState(fire, p, State{Phase: PhaseCooking, Elapsed: 31, Result: &inventory.Item{Name: "Cooked Meat"}})
	if done.Phase() != PhaseComplete {
		t.Fatalf("elapsed >= duration must be complete, got %s", done.Phase())
	}
	if res, _ := done.Result(); res.Quantity != 1 {
		t.Fatalf("expected quantity defaulted to 1, got %d", res.Quantity)
	}

	early := FromState(fire, p, State{Phase: PhaseComplete, Elapsed: 3, Result: &inventory.Item{Name: "Cooked Meat", Quantity: 1}})
	if early.Elapsed() != p.DurationSeconds {
		t.Fatalf("complete must carry full elapsed, got %v", early.Elapsed())
	}

	orphan := FromState(fire, p, State{Phase: PhaseCooking, Elapsed: 3})
	if orphan.Phase() != PhaseIdle {
		t.Fatalf("cooking without result must be idle, got %s", orphan.Phase())
	}
}

func TestProgress(t *testing.T) {
	fire := &stubFire{lit: true}
	inv := inventory.FromMap(map[string]int{"Fish": 1})
	task := New(fire, DefaultParams())
	if task.Progress() != 0 {
		t.Fatalf("idle progress must be 0")
	}
	if err := task.Start(inv, "Fish", t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 15; i++ {
		task.Tick(1)
	}
	if got := task.Progress(); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
}
