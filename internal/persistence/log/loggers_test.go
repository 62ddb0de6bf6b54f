package log

import (
	"path/filepath"
	"testing"
	"time"

	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/scene"
)

func TestEventLogger_RotatesHourlyAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	now := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return now }

	evs := []scene.Event{
		{Seq: 1, Session: "s1", Scene: scene.Camp, Kind: scene.EventIgnited, Source: "campfire"},
		{Seq: 2, Session: "s1", Scene: scene.Camp, Kind: scene.EventStoked, Source: "campfire", Item: &inventory.Item{Name: "Wood", Quantity: 1}},
	}
	for _, ev := range evs[:1] {
		if err := l.WriteEvent(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	now = now.Add(2 * time.Minute)
	if err := l.WriteEvent(evs[1]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(filepath.Join(dir, "events"), "events")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", files)
	}
	if filepath.Base(files[0]) != "events-2024-05-01-10.jsonl.zst" {
		t.Fatalf("unexpected name %s", files[0])
	}

	var got []scene.Event
	for _, f := range files {
		if err := ReadEvents(f, func(ev scene.Event) error {
			got = append(got, ev)
			return nil
		}); err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	if len(got) != 2 || got[1].Kind != scene.EventStoked || got[1].Item == nil || got[1].Item.Name != "Wood" {
		t.Fatalf("read back %+v", got)
	}
}
