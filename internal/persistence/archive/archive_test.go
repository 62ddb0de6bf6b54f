package archive

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"campfire.ai/internal/persistence/snapshot"
)

func TestArchiveSnapshot_CopiesPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snapshots", "s1.snap.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir snapshots: %v", err)
	}
	snap := snapshot.SessionV1{
		Header:  snapshot.Header{Version: snapshot.Version, SessionID: "s1", SavedAt: 1_700_000_000_000},
		Sources: map[string]snapshot.FuelSourceV1{},
		Cooking: map[string]snapshot.CookingV1{},
	}
	if err := snapshot.WriteSnapshot(src, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	archivedPath, ok, err := ArchiveSnapshot(dir, src)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok {
		t.Fatalf("expected archived=true")
	}
	if want := filepath.Join(dir, "archives", "s1", "1700000000000.snap.zst"); archivedPath != want {
		t.Fatalf("path=%s want %s", archivedPath, want)
	}

	want, _ := os.ReadFile(src)
	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("archived content mismatch")
	}

	raw, err := os.ReadFile(filepath.Join(filepath.Dir(archivedPath), "meta.json"))
	if err != nil {
		t.Fatalf("expected meta.json to exist: %v", err)
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.SessionID != "s1" || meta.SavedAt != snap.Header.SavedAt {
		t.Fatalf("meta=%+v", meta)
	}
}

func TestArchiveSnapshot_MissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := ArchiveSnapshot(dir, filepath.Join(dir, "snapshots", "nope.snap.zst"))
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}
