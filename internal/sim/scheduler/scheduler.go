// Package scheduler drives fuel decay and cooking progress on a fixed period.
package scheduler

import (
	"time"

	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
)

const DefaultPeriod = time.Second

// Binding pairs a fuel source with the cooking task that depends on it (nil if none).
type Binding struct {
	Source *fuel.Source
	Task   *cooking.Task
}

// Report lists what a single step changed, in evaluation order.
type Report struct {
	Step         uint64
	Fuel         []fuel.Change
	Extinguished []string
	Cancelled    []string
	Completed    []string
	Cooking      []string
}

func (r Report) Empty() bool {
	return len(r.Fuel) == 0 && len(r.Cancelled) == 0 && len(r.Completed) == 0 && len(r.Cooking) == 0
}

type Scheduler struct {
	period   time.Duration
	bindings []Binding

	ticker  *time.Ticker
	stopped bool
	steps   uint64
}

func New(period time.Duration, bindings ...Binding) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	bs := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if b.Source == nil {
			continue
		}
		bs = append(bs, b)
	}
	return &Scheduler{period: period, bindings: bs}
}

func (s *Scheduler) Period() time.Duration { return s.period }
func (s *Scheduler) Steps() uint64         { return s.steps }
func (s *Scheduler) Bindings() []Binding   { return s.bindings }

// Start arms the periodic ticker. It is a no-op once the scheduler has been stopped.
func (s *Scheduler) Start() {
	if s.stopped || s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.period)
}

// Stop disarms the ticker for good. After Stop, C returns nil and Step does nothing.
func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.stopped = true
}

func (s *Scheduler) Stopped() bool { return s.stopped }
func (s *Scheduler) Running() bool { return s.ticker != nil }

// C is the tick channel to select on; nil (blocks forever) when not running.
func (s *Scheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// Step runs one period: fuel first, then cancellation of tasks whose fire went out,
// then cooking progress. A task never advances past its source going out.
func (s *Scheduler) Step() Report {
	if s.stopped {
		return Report{}
	}
	s.steps++
	r := Report{Step: s.steps}
	delta := s.period.Seconds()

	for _, b := range s.bindings {
		ch := b.Source.Tick(delta)
		if ch.Changed() {
			r.Fuel = append(r.Fuel, ch)
		}
		if !ch.Extinguished {
			continue
		}
		r.Extinguished = append(r.Extinguished, b.Source.ID())
		if b.Task != nil && b.Task.OnFuelExtinguished() {
			r.Cancelled = append(r.Cancelled, b.Source.ID())
		}
	}

	for _, b := range s.bindings {
		if b.Task == nil || b.Task.Phase() != cooking.PhaseCooking {
			continue
		}
		if b.Task.Tick(delta) {
			r.Completed = append(r.Completed, b.Source.ID())
		} else if b.Source.Lit() {
			r.Cooking = append(r.Cooking, b.Source.ID())
		}
	}
	return r
}
