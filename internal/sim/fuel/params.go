package fuel

import (
	"fmt"
	"strings"
)

// Rule assigns a fuel value to item names. Exact rules match the whole (lower-cased) name,
// others match when the keyword appears anywhere in it.
type Rule struct {
	Keyword       string  `json:"keyword" yaml:"keyword"`
	Exact         bool    `json:"exact,omitempty" yaml:"exact,omitempty"`
	StokesPerUnit float64 `json:"stokes_per_unit" yaml:"stokes_per_unit"`
}

type Params struct {
	MaxStokes       float64
	SecondsPerStoke float64

	BaseLightRadius float64
	MaxLightRadius  float64

	// Lit intensity ranges. Ember values are the spent-fuel baseline and sit below the base.
	BaseScale   float64
	MaxScale    float64
	EmberScale  float64
	BaseOrigin  float64
	MaxOrigin   float64
	EmberOrigin float64

	Rules []Rule
}

func DefaultParams() Params {
	return Params{
		MaxStokes:       7,
		SecondsPerStoke: 30,
		BaseLightRadius: 150,
		MaxLightRadius:  400,
		BaseScale:       1.0,
		MaxScale:        1.6,
		EmberScale:      0.7,
		BaseOrigin:      0.5,
		MaxOrigin:       0.65,
		EmberOrigin:     0.35,
		Rules:           DefaultRules(),
	}
}

func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "wood", StokesPerUnit: 3},
		{Keyword: "stick", StokesPerUnit: 3},
		{Keyword: "lint", Exact: true, StokesPerUnit: 0.1},
		{Keyword: "trash", Exact: true, StokesPerUnit: 0.1},
	}
}

// Value returns stokes per unit for item, or 0 when it is not fuel.
// Exact rules win over keyword rules; among keyword rules the first match wins.
func (p Params) Value(item string) float64 {
	name := strings.ToLower(strings.TrimSpace(item))
	if name == "" {
		return 0
	}
	for _, r := range p.Rules {
		if r.Exact && name == strings.ToLower(r.Keyword) {
			return r.StokesPerUnit
		}
	}
	for _, r := range p.Rules {
		if !r.Exact && r.Keyword != "" && strings.Contains(name, strings.ToLower(r.Keyword)) {
			return r.StokesPerUnit
		}
	}
	return 0
}

func (p Params) MaxBurnTime() float64 { return p.MaxStokes * p.SecondsPerStoke }

func (p Params) Validate() error {
	if p.MaxStokes <= 0 {
		return fmt.Errorf("max_stokes must be > 0, got %v", p.MaxStokes)
	}
	if p.SecondsPerStoke <= 0 {
		return fmt.Errorf("seconds_per_stoke must be > 0, got %v", p.SecondsPerStoke)
	}
	if p.BaseLightRadius < 0 || p.MaxLightRadius < p.BaseLightRadius {
		return fmt.Errorf("light radius range [%v,%v] invalid", p.BaseLightRadius, p.MaxLightRadius)
	}
	if p.MaxScale < p.BaseScale || p.EmberScale >= p.BaseScale {
		return fmt.Errorf("scale range invalid: ember=%v base=%v max=%v", p.EmberScale, p.BaseScale, p.MaxScale)
	}
	if p.MaxOrigin < p.BaseOrigin || p.EmberOrigin >= p.BaseOrigin {
		return fmt.Errorf("origin range invalid: ember=%v base=%v max=%v", p.EmberOrigin, p.BaseOrigin, p.MaxOrigin)
	}
	for i, r := range p.Rules {
		if strings.TrimSpace(r.Keyword) == "" {
			return fmt.Errorf("fuel rule %d: empty keyword", i)
		}
		if r.StokesPerUnit < 0 {
			return fmt.Errorf("fuel rule %q: negative stokes_per_unit", r.Keyword)
		}
	}
	return nil
}
