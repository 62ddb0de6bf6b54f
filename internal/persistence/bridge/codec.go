package bridge

import (
	"math"
	"strings"
	"time"

	"campfire.ai/internal/clock"
	"campfire.ai/internal/persistence/snapshot"
	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/tuning"
)

const (
	EntryInventory = "inventory"

	cookingSuffix = "/cooking"
)

// CookingEntry is the entry name of the cooking task bound to a source.
func CookingEntry(sourceID string) string { return sourceID + cookingSuffix }

// IsCookingEntry reports whether entry names a cooking task and returns its source id.
func IsCookingEntry(entry string) (string, bool) {
	if !strings.HasSuffix(entry, cookingSuffix) {
		return "", false
	}
	return strings.TrimSuffix(entry, cookingSuffix), true
}

// Outcome tells the caller what restoring a cooking task did to it.
type Outcome int

const (
	// OutcomeIdle: nothing was cooking.
	OutcomeIdle Outcome = iota
	// OutcomeResumed: an in-progress dish continues on a lit fire.
	OutcomeResumed
	// OutcomeCompleted: the dish finished while the scene was inactive.
	OutcomeCompleted
	// OutcomeReady: the dish was already complete when saved and awaits a claim.
	OutcomeReady
	// OutcomeCancelled: the fire was out on restore; the dish is discarded.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResumed:
		return "resumed"
	case OutcomeCompleted:
		return "completed"
	case OutcomeReady:
		return "ready"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

func EncodeSource(st fuel.State, now time.Time) snapshot.FuelSourceV1 {
	return snapshot.FuelSourceV1{
		IsFireLit:       snapshot.Bool(st.Lit),
		BurnTime:        snapshot.Float(st.BurnTime),
		CurrentStokes:   snapshot.Float(st.Stokes),
		LightRadius:     snapshot.Float(st.LightRadius),
		CampfireScale:   snapshot.Float(st.Scale),
		CampfireOriginY: snapshot.Float(st.OriginY),
		SavedAt:         clock.EpochMillis(now),
	}
}

// DecodeSource rebuilds a source. Missing fields take the fresh unlit baseline, and a
// lit document without burn time restores unlit. A lit document missing its visual
// fields gets the visuals its burn time implies.
func DecodeSource(id string, p fuel.Params, doc snapshot.FuelSourceV1, policy tuning.RestorePolicy, now time.Time) *fuel.Source {
	lit := snapshot.BoolOr(doc.IsFireLit, false)
	burn := snapshot.FloatOr(doc.BurnTime, 0)
	radius, scale, origin := 0.0, p.BaseScale, p.BaseOrigin
	if lit && burn > 0 && p.SecondsPerStoke > 0 {
		radius, scale, origin = p.LitVisuals(math.Min(burn, p.MaxBurnTime()) / p.SecondsPerStoke)
	}
	st := fuel.State{
		Lit:         lit,
		BurnTime:    burn,
		Stokes:      snapshot.FloatOr(doc.CurrentStokes, 0),
		LightRadius: snapshot.FloatOr(doc.LightRadius, radius),
		Scale:       snapshot.FloatOr(doc.CampfireScale, scale),
		OriginY:     snapshot.FloatOr(doc.CampfireOriginY, origin),
	}
	if st.Lit && policy == tuning.RestoreAdvance && doc.SavedAt > 0 {
		away := wholeSeconds(now.Sub(clock.FromEpochMillis(doc.SavedAt)))
		st.BurnTime -= away
		if st.BurnTime <= 0 {
			// Burned out while nobody was watching.
			return FromExtinguished(id, p)
		}
	}
	return fuel.FromState(id, p, st)
}

// FromExtinguished returns a source sitting at the embers baseline.
func FromExtinguished(id string, p fuel.Params) *fuel.Source {
	return fuel.FromState(id, p, fuel.State{Scale: p.EmberScale, OriginY: p.EmberOrigin})
}

func EncodeCooking(st cooking.State, now time.Time) snapshot.CookingV1 {
	doc := snapshot.CookingV1{
		IsCooking:       snapshot.Bool(st.Phase == cooking.PhaseCooking),
		CookingTime:     snapshot.Float(st.Elapsed),
		CookingComplete: snapshot.Bool(st.Phase == cooking.PhaseComplete),
		SavedAt:         clock.EpochMillis(now),
	}
	if st.Result != nil {
		doc.CookedFoodItem = &snapshot.ItemV1{Name: st.Result.Name, Quantity: st.Result.Quantity}
	}
	if !st.StartedAt.IsZero() {
		doc.CookingStartTime = snapshot.Int64(clock.EpochMillis(st.StartedAt))
	}
	return doc
}

// DecodeCooking rebuilds the task bound to fire, reconciling wall-clock time for a dish
// that was cooking when saved.
func DecodeCooking(fire cooking.Fire, p cooking.Params, doc snapshot.CookingV1, now time.Time) (*cooking.Task, Outcome) {
	var result *inventory.Item
	if doc.CookedFoodItem != nil {
		result = &inventory.Item{Name: doc.CookedFoodItem.Name, Quantity: doc.CookedFoodItem.Quantity}
	}
	elapsed := snapshot.FloatOr(doc.CookingTime, 0)
	startedAt := clock.FromEpochMillis(snapshot.Int64Or(doc.CookingStartTime, 0))

	switch {
	case snapshot.BoolOr(doc.IsCooking, false):
		if result == nil {
			return cooking.New(fire, p), OutcomeCancelled
		}
		var wall float64
		if !startedAt.IsZero() {
			wall = wholeSeconds(now.Sub(startedAt))
		}
		adjusted := elapsed + wall
		if adjusted >= p.DurationSeconds {
			t := cooking.FromState(fire, p, cooking.State{
				Phase:     cooking.PhaseComplete,
				Elapsed:   adjusted,
				Result:    result,
				StartedAt: startedAt,
			})
			return t, OutcomeCompleted
		}
		if fire == nil || !fire.Lit() {
			return cooking.New(fire, p), OutcomeCancelled
		}
		t := cooking.FromState(fire, p, cooking.State{
			Phase:     cooking.PhaseCooking,
			Elapsed:   adjusted,
			Result:    result,
			StartedAt: startedAt,
		})
		return t, OutcomeResumed
	case snapshot.BoolOr(doc.CookingComplete, false):
		t := cooking.FromState(fire, p, cooking.State{
			Phase:     cooking.PhaseComplete,
			Elapsed:   elapsed,
			Result:    result,
			StartedAt: startedAt,
		})
		if t.Phase() != cooking.PhaseComplete {
			return t, OutcomeIdle
		}
		return t, OutcomeReady
	default:
		return cooking.New(fire, p), OutcomeIdle
	}
}

func EncodeInventory(l *inventory.Ledger, now time.Time) snapshot.InventoryV1 {
	return snapshot.InventoryV1{Items: l.Map(), SavedAt: clock.EpochMillis(now)}
}

func DecodeInventory(doc snapshot.InventoryV1) *inventory.Ledger {
	return inventory.FromMap(doc.Items)
}

// wholeSeconds floors d to whole seconds; negative durations (clock skew) count as zero.
func wholeSeconds(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Floor(d.Seconds())
}
