// Package cooking runs one dish at a time over a fire source.
//
// Idle --Start--> Cooking --duration--> Complete --Claim--> Idle
// Cooking --fire out--> Idle (dish lost)
package cooking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"campfire.ai/internal/sim/inventory"
)

var (
	ErrFireNotLit           = errors.New("fire not lit")
	ErrAlreadyCooking       = errors.New("already cooking")
	ErrNotCookable          = errors.New("not cookable")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrNotReady             = errors.New("not ready")
)

type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseCooking  Phase = "COOKING"
	PhaseComplete Phase = "COMPLETE"
)

type Params struct {
	DurationSeconds float64
	Keywords        []string
	ResultPrefix    string
}

func DefaultParams() Params {
	return Params{
		DurationSeconds: 30,
		Keywords:        []string{"cod", "fish", "meat", "food", "raw"},
		ResultPrefix:    "Cooked ",
	}
}

// Cookable matches item against the keyword set, ignoring case.
func (p Params) Cookable(item string) bool {
	name := strings.ToLower(item)
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, k := range p.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func (p Params) ResultName(item string) string { return p.ResultPrefix + item }

func (p Params) Validate() error {
	if p.DurationSeconds <= 0 {
		return fmt.Errorf("cooking duration must be > 0, got %v", p.DurationSeconds)
	}
	if len(p.Keywords) == 0 {
		return fmt.Errorf("cooking keywords must not be empty")
	}
	return nil
}

// Fire is what a task needs to know about the source it is bound to.
type Fire interface {
	ID() string
	Lit() bool
}

type Ledger interface {
	Count(name string) int
	Remove(name string, n int) error
	Add(name string, n int)
}

// State is the persisted shape of a task.
type State struct {
	Phase     Phase
	Elapsed   float64
	Result    *inventory.Item
	StartedAt time.Time
}

type Task struct {
	fire Fire
	p    Params
	st   State
}

func New(fire Fire, p Params) *Task {
	return &Task{fire: fire, p: p, st: State{Phase: PhaseIdle}}
}

// FromState rebuilds a task, repairing states that break Complete <=> elapsed >= duration.
// A cooking or complete state without a result has nothing to produce and becomes idle.
func FromState(fire Fire, p Params, st State) *Task {
	t := &Task{fire: fire, p: p}
	switch st.Phase {
	case PhaseCooking, PhaseComplete:
		if st.Result == nil || st.Result.Name == "" {
			t.st = State{Phase: PhaseIdle}
			return t
		}
		res := *st.Result
		if res.Quantity <= 0 {
			res.Quantity = 1
		}
		st.Result = &res
		if st.Phase == PhaseComplete && st.Elapsed < p.DurationSeconds {
			st.Elapsed = p.DurationSeconds
		}
		if st.Phase == PhaseCooking && st.Elapsed >= p.DurationSeconds {
			st.Phase = PhaseComplete
		}
		if st.Elapsed < 0 {
			st.Elapsed = 0
		}
		t.st = st
	default:
		t.st = State{Phase: PhaseIdle}
	}
	return t
}

func (t *Task) Fire() Fire           { return t.fire }
func (t *Task) Params() Params       { return t.p }
func (t *Task) Phase() Phase         { return t.st.Phase }
func (t *Task) Elapsed() float64     { return t.st.Elapsed }
func (t *Task) StartedAt() time.Time { return t.st.StartedAt }

func (t *Task) State() State {
	st := t.st
	if st.Result != nil {
		res := *st.Result
		st.Result = &res
	}
	return st
}

// Result is the pending dish while cooking or complete.
func (t *Task) Result() (inventory.Item, bool) {
	if t.st.Result == nil {
		return inventory.Item{}, false
	}
	return *t.st.Result, true
}

// Progress is elapsed/duration clamped to [0,1].
func (t *Task) Progress() float64 {
	if t.p.DurationSeconds <= 0 {
		return 0
	}
	f := t.st.Elapsed / t.p.DurationSeconds
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Start consumes one unit of item and begins cooking it.
func (t *Task) Start(ledger Ledger, item string, now time.Time) error {
	if t.fire == nil || !t.fire.Lit() {
		return fmt.Errorf("cook %q: %w", item, ErrFireNotLit)
	}
	if t.st.Phase != PhaseIdle {
		return fmt.Errorf("cook %q (%s): %w", item, t.st.Phase, ErrAlreadyCooking)
	}
	if !t.p.Cookable(item) {
		return fmt.Errorf("cook %q: %w", item, ErrNotCookable)
	}
	if ledger == nil || ledger.Count(item) < 1 {
		return fmt.Errorf("cook %q: %w", item, ErrInsufficientQuantity)
	}
	if err := ledger.Remove(item, 1); err != nil {
		return fmt.Errorf("cook %q: %w: %v", item, ErrInsufficientQuantity, err)
	}
	t.st = State{
		Phase:     PhaseCooking,
		Result:    &inventory.Item{Name: t.p.ResultName(item), Quantity: 1},
		StartedAt: now,
	}
	return nil
}

// Tick advances a cooking task while its fire is lit. It reports whether the dish
// completed on this tick.
func (t *Task) Tick(deltaSeconds float64) bool {
	if t.st.Phase != PhaseCooking || t.fire == nil || !t.fire.Lit() || deltaSeconds <= 0 {
		return false
	}
	t.st.Elapsed += deltaSeconds
	if t.st.Elapsed >= t.p.DurationSeconds {
		t.st.Phase = PhaseComplete
		return true
	}
	return false
}

// OnFuelExtinguished drops an in-progress dish. A finished dish survives the fire going out.
func (t *Task) OnFuelExtinguished() bool {
	if t.st.Phase != PhaseCooking {
		return false
	}
	t.st = State{Phase: PhaseIdle}
	return true
}

// Claim moves the finished dish into ledger.
func (t *Task) Claim(ledger Ledger) (inventory.Item, error) {
	if t.st.Phase != PhaseComplete || t.st.Result == nil {
		return inventory.Item{}, fmt.Errorf("claim (%s): %w", t.st.Phase, ErrNotReady)
	}
	item := *t.st.Result
	if ledger != nil {
		ledger.Add(item.Name, item.Quantity)
	}
	t.st = State{Phase: PhaseIdle}
	return item, nil
}
