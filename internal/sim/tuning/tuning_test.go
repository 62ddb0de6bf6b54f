package tuning

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestDefaultsValid(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if d.TickPeriod() != time.Second {
		t.Fatalf("expected 1s tick, got %v", d.TickPeriod())
	}
	fp := d.FuelParams()
	if fp.MaxStokes != 7 || fp.SecondsPerStoke != 30 || fp.BaseLightRadius != 150 || fp.MaxLightRadius != 400 {
		t.Fatalf("unexpected fuel defaults: %+v", fp)
	}
	if d.CookingParams().DurationSeconds != 30 {
		t.Fatalf("unexpected cook duration")
	}
}

func TestLoadRepoConfigMatchesDefaults(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, Defaults()) {
		t.Fatalf("configs/tuning.yaml drifted from Defaults():\n got=%+v\nwant=%+v", got, Defaults())
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	p := writeFile(t, "restore_policy: advance\ncooking:\n  duration_seconds: 45\n")
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RestorePolicy != RestoreAdvance {
		t.Fatalf("expected advance policy, got %q", got.RestorePolicy)
	}
	if got.Cooking.DurationSeconds != 45 {
		t.Fatalf("expected 45s, got %v", got.Cooking.DurationSeconds)
	}
	if len(got.Cooking.Keywords) != 5 || got.Fuel.MaxStokes != 7 {
		t.Fatalf("unset keys must keep defaults: %+v", got)
	}
	if got.StarterItems["Wood"] != 3 {
		t.Fatalf("expected default starter items, got %#v", got.StarterItems)
	}
}

func TestLoadStarterItemsReplaceDefaults(t *testing.T) {
	p := writeFile(t, "starter_items:\n  Raw Meat: 4\n")
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.StarterItems, map[string]int{"Raw Meat": 4}) {
		t.Fatalf("expected file starter items only, got %#v", got.StarterItems)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []string{
		"restore_policy: sometimes\n",
		"tick_period_ms: 0\n",
		"tick_period_ms: 500\n",
		"tick_period_ms: 1500\n",
		"protocol_version: \"2.0\"\n",
		"fuel:\n  max_stokes: -1\n",
		"cooking:\n  keywords: []\n",
		"fuel: [not, a, map]\n",
	}
	for _, body := range cases {
		if _, err := Load(writeFile(t, body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestValidateTickPeriod(t *testing.T) {
	for _, tc := range []struct {
		ms int
		ok bool
	}{
		{1000, true},
		{2000, true},
		{0, false},
		{-1000, false},
		{500, false},
		{999, false},
		{1500, false},
	} {
		tune := Defaults()
		tune.TickPeriodMs = tc.ms
		err := tune.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("tick_period_ms=%d: ok=%v err=%v", tc.ms, tc.ok, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
