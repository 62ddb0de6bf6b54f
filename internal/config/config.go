// Package config reads the server's runtime settings from the environment.
// Command-line flags in cmd/server override what is read here.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Runtime struct {
	Addr       string `env:"CAMPFIRE_ADDR" envDefault:":8080"`
	DataDir    string `env:"CAMPFIRE_DATA_DIR" envDefault:"./data"`
	TuningPath string `env:"CAMPFIRE_TUNING" envDefault:"./configs/tuning.yaml"`

	// Store selects where session documents live: memory or sqlite.
	Store      string `env:"CAMPFIRE_STORE" envDefault:"sqlite"`
	SQLitePath string `env:"CAMPFIRE_SQLITE_PATH"`

	DisableEventLog bool `env:"CAMPFIRE_DISABLE_EVENT_LOG"`
	// SnapshotOnExit writes every session to <data>/snapshots on shutdown.
	SnapshotOnExit  bool `env:"CAMPFIRE_SNAPSHOT_ON_EXIT" envDefault:"true"`
}

// ParseEnv populates target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the runtime settings.
func Load() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return rt, err
	}
	rt.Normalize()
	return rt, rt.Validate()
}

func (rt *Runtime) Normalize() {
	rt.Store = strings.ToLower(strings.TrimSpace(rt.Store))
	if rt.Store == "" {
		rt.Store = StoreSQLite
	}
	rt.Addr = strings.TrimSpace(rt.Addr)
}

func (rt Runtime) Validate() error {
	switch rt.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("CAMPFIRE_STORE must be %q or %q, got %q", StoreMemory, StoreSQLite, rt.Store)
	}
	if rt.Addr == "" {
		return fmt.Errorf("CAMPFIRE_ADDR is empty")
	}
	if rt.DataDir == "" {
		return fmt.Errorf("CAMPFIRE_DATA_DIR is empty")
	}
	return nil
}

// SQLiteFile is the database path, defaulting to <data>/index/campfire.sqlite.
func (rt Runtime) SQLiteFile() string {
	if rt.SQLitePath != "" {
		return rt.SQLitePath
	}
	return strings.TrimRight(rt.DataDir, "/") + "/index/campfire.sqlite"
}
