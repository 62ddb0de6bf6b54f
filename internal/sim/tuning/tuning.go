package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"campfire.ai/internal/protocol"
	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
)

// RestorePolicy decides what happens to a lit fire's burn time while its scene is inactive.
type RestorePolicy string

const (
	// RestorePause keeps burn time frozen while nobody is in the scene.
	RestorePause RestorePolicy = "pause"
	// RestoreAdvance burns whole seconds elapsed since the state was saved.
	RestoreAdvance RestorePolicy = "advance"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickPeriodMs  int           `yaml:"tick_period_ms"`
	RestorePolicy RestorePolicy `yaml:"restore_policy"`

	Fuel    Fuel    `yaml:"fuel"`
	Cooking Cooking `yaml:"cooking"`

	// Items granted to a brand-new session.
	StarterItems map[string]int `yaml:"starter_items"`
}

type Fuel struct {
	MaxStokes       float64 `yaml:"max_stokes"`
	SecondsPerStoke float64 `yaml:"seconds_per_stoke"`

	BaseLightRadius float64 `yaml:"base_light_radius"`
	MaxLightRadius  float64 `yaml:"max_light_radius"`

	BaseScale   float64 `yaml:"base_scale"`
	MaxScale    float64 `yaml:"max_scale"`
	EmberScale  float64 `yaml:"ember_scale"`
	BaseOrigin  float64 `yaml:"base_origin_y"`
	MaxOrigin   float64 `yaml:"max_origin_y"`
	EmberOrigin float64 `yaml:"ember_origin_y"`

	Values []fuel.Rule `yaml:"values"`
}

type Cooking struct {
	DurationSeconds float64  `yaml:"duration_seconds"`
	Keywords        []string `yaml:"keywords"`
	ResultPrefix    string   `yaml:"result_prefix"`
}

func Defaults() Tuning {
	fp := fuel.DefaultParams()
	cp := cooking.DefaultParams()
	return Tuning{
		ProtocolVersion: protocol.Version,
		TickPeriodMs:    1000,
		RestorePolicy:   RestorePause,
		Fuel: Fuel{
			MaxStokes:       fp.MaxStokes,
			SecondsPerStoke: fp.SecondsPerStoke,
			BaseLightRadius: fp.BaseLightRadius,
			MaxLightRadius:  fp.MaxLightRadius,
			BaseScale:       fp.BaseScale,
			MaxScale:        fp.MaxScale,
			EmberScale:      fp.EmberScale,
			BaseOrigin:      fp.BaseOrigin,
			MaxOrigin:       fp.MaxOrigin,
			EmberOrigin:     fp.EmberOrigin,
			Values:          fp.Rules,
		},
		Cooking: Cooking{
			DurationSeconds: cp.DurationSeconds,
			Keywords:        cp.Keywords,
			ResultPrefix:    cp.ResultPrefix,
		},
		StarterItems: map[string]int{
			"Wood":    3,
			"Stick":   2,
			"Lint":    5,
			"Raw Cod": 2,
		},
	}
}

// Load reads a tuning file. Keys missing from the file keep their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	// yaml.v3 merges into non-nil maps; starter items from the file replace the defaults.
	starter := t.StarterItems
	t.StarterItems = nil
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.StarterItems == nil {
		t.StarterItems = starter
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.ProtocolVersion != protocol.Version {
		return fmt.Errorf("protocol_version %q is not supported (want %q)", t.ProtocolVersion, protocol.Version)
	}
	// Fuel burns whole seconds per tick and cooking adds the raw delta, so the
	// period must be whole seconds for both to advance together.
	if t.TickPeriodMs <= 0 || t.TickPeriodMs%1000 != 0 {
		return fmt.Errorf("tick_period_ms must be a positive multiple of 1000, got %d", t.TickPeriodMs)
	}
	switch t.RestorePolicy {
	case RestorePause, RestoreAdvance:
	default:
		return fmt.Errorf("restore_policy must be %q or %q, got %q", RestorePause, RestoreAdvance, t.RestorePolicy)
	}
	if err := t.FuelParams().Validate(); err != nil {
		return fmt.Errorf("fuel: %w", err)
	}
	if err := t.CookingParams().Validate(); err != nil {
		return fmt.Errorf("cooking: %w", err)
	}
	for name, n := range t.StarterItems {
		if name == "" || n < 0 {
			return fmt.Errorf("starter_items: bad entry %q=%d", name, n)
		}
	}
	return nil
}

func (t Tuning) TickPeriod() time.Duration {
	return time.Duration(t.TickPeriodMs) * time.Millisecond
}

func (t Tuning) FuelParams() fuel.Params {
	return fuel.Params{
		MaxStokes:       t.Fuel.MaxStokes,
		SecondsPerStoke: t.Fuel.SecondsPerStoke,
		BaseLightRadius: t.Fuel.BaseLightRadius,
		MaxLightRadius:  t.Fuel.MaxLightRadius,
		BaseScale:       t.Fuel.BaseScale,
		MaxScale:        t.Fuel.MaxScale,
		EmberScale:      t.Fuel.EmberScale,
		BaseOrigin:      t.Fuel.BaseOrigin,
		MaxOrigin:       t.Fuel.MaxOrigin,
		EmberOrigin:     t.Fuel.EmberOrigin,
		Rules:           append([]fuel.Rule(nil), t.Fuel.Values...),
	}
}

func (t Tuning) CookingParams() cooking.Params {
	return cooking.Params{
		DurationSeconds: t.Cooking.DurationSeconds,
		Keywords:        append([]string(nil), t.Cooking.Keywords...),
		ResultPrefix:    t.Cooking.ResultPrefix,
	}
}
