package main

import (
	"bytes"
	"strings"
	"testing"

	"campfire.ai/internal/persistence/snapshot"
	"campfire.ai/internal/sim/scene"
)

func TestTimelineCountsAndGaps(t *testing.T) {
	tl := newTimeline("")
	for _, ev := range []scene.Event{
		{Session: "a", Seq: 1, Kind: scene.EventSceneEntered},
		{Session: "a", Seq: 2, Kind: scene.EventStoked},
		{Session: "b", Seq: 1, Kind: scene.EventSceneEntered},
		{Session: "a", Seq: 4, Kind: scene.EventExtinguished},
	} {
		if !tl.add(ev) {
			t.Fatalf("unfiltered timeline dropped %+v", ev)
		}
	}
	if tl.total != 4 || tl.gaps != 1 || len(tl.lastSeq) != 2 {
		t.Fatalf("timeline: total=%d gaps=%d sessions=%d", tl.total, tl.gaps, len(tl.lastSeq))
	}
	if tl.kinds[scene.EventSceneEntered] != 2 {
		t.Fatalf("kinds: %v", tl.kinds)
	}

	var buf bytes.Buffer
	tl.summary(&buf)
	if !strings.HasPrefix(buf.String(), "events=4 sessions=2 gaps=1\n") {
		t.Fatalf("summary:\n%s", buf.String())
	}
}

func TestTimelineFilter(t *testing.T) {
	tl := newTimeline("b")
	if tl.add(scene.Event{Session: "a", Seq: 1}) {
		t.Fatalf("other session passed the filter")
	}
	if !tl.add(scene.Event{Session: "b", Seq: 7}) {
		t.Fatalf("filtered session dropped")
	}
	if tl.total != 1 || tl.gaps != 0 {
		t.Fatalf("total=%d gaps=%d", tl.total, tl.gaps)
	}
}

func TestPrintSnapshot(t *testing.T) {
	snap := snapshot.SessionV1{
		Header: snapshot.Header{Version: snapshot.Version, SessionID: "s1"},
		Sources: map[string]snapshot.FuelSourceV1{
			"campfire": {IsFireLit: snapshot.Bool(true), BurnTime: snapshot.Float(80), CurrentStokes: snapshot.Float(2.67)},
		},
		Cooking: map[string]snapshot.CookingV1{
			"campfire/cooking": {IsCooking: snapshot.Bool(true), CookingTime: snapshot.Float(12)},
		},
		Inventory: &snapshot.InventoryV1{Items: map[string]int{"Wood": 1, "Lint": 5}},
	}
	var buf bytes.Buffer
	printSnapshot(&buf, snap)
	out := buf.String()
	for _, want := range []string{"session=s1", "lit=true burn=80s", "cooking=true", "inventory Lint=5 Wood=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
