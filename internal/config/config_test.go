package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	rt, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rt.Addr != ":8080" || rt.Store != StoreSQLite || rt.DataDir != "./data" {
		t.Fatalf("defaults: %+v", rt)
	}
	if !rt.SnapshotOnExit || rt.DisableEventLog {
		t.Fatalf("bool defaults: %+v", rt)
	}
	if got := rt.SQLiteFile(); got != "./data/index/campfire.sqlite" {
		t.Fatalf("sqlite file: %s", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CAMPFIRE_ADDR", "127.0.0.1:9000")
	t.Setenv("CAMPFIRE_STORE", " Memory ")
	t.Setenv("CAMPFIRE_DATA_DIR", "/var/campfire/")
	t.Setenv("CAMPFIRE_DISABLE_EVENT_LOG", "true")
	rt, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rt.Addr != "127.0.0.1:9000" || rt.Store != StoreMemory || !rt.DisableEventLog {
		t.Fatalf("env: %+v", rt)
	}
	if got := rt.SQLiteFile(); got != "/var/campfire/index/campfire.sqlite" {
		t.Fatalf("sqlite file: %s", got)
	}
}

func TestLoadRejects(t *testing.T) {
	t.Setenv("CAMPFIRE_STORE", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestParseEnvBadBool(t *testing.T) {
	t.Setenv("CAMPFIRE_DISABLE_EVENT_LOG", "sometimes")
	var rt Runtime
	if err := ParseEnv(&rt); err == nil {
		t.Fatalf("expected parse error")
	}
}
