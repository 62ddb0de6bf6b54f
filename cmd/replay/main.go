package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	persistlog "campfire.ai/internal/persistence/log"
	"campfire.ai/internal/persistence/snapshot"
	"campfire.ai/internal/sim/scene"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst (optional)")
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst (optional)")
		session   = flag.String("session", "", "only show events of this session")
		quiet     = flag.Bool("q", false, "print only the summary, not every event")
	)
	flag.Parse()

	if *snapPath == "" && *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "need -snapshot and/or -events")
		os.Exit(2)
	}

	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		printSnapshot(os.Stdout, snap)
		if *session == "" {
			*session = snap.Header.SessionID
		}
	}

	if *eventsDir == "" {
		return
	}
	files, err := persistlog.ListFiles(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	tl := newTimeline(*session)
	for _, path := range files {
		err := persistlog.ReadEvents(path, func(ev scene.Event) error {
			if tl.add(ev) && !*quiet {
				printEvent(os.Stdout, ev)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	tl.summary(os.Stdout)
	if tl.gaps > 0 {
		os.Exit(1)
	}
}

func printSnapshot(w io.Writer, snap snapshot.SessionV1) {
	fmt.Fprintf(w, "snapshot v%d session=%s saved=%s sources=%d cooking=%d\n",
		snap.Header.Version, snap.Header.SessionID,
		time.UnixMilli(snap.Header.SavedAt).UTC().Format(time.RFC3339), len(snap.Sources), len(snap.Cooking))

	ids := make([]string, 0, len(snap.Sources))
	for id := range snap.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := snap.Sources[id]
		fmt.Fprintf(w, "  source %-10s lit=%v burn=%.0fs stokes=%.2f\n",
			id, snapshot.BoolOr(s.IsFireLit, false), snapshot.FloatOr(s.BurnTime, 0), snapshot.FloatOr(s.CurrentStokes, 0))
	}
	ids = ids[:0]
	for id := range snap.Cooking {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c := snap.Cooking[id]
		dish := "-"
		if c.CookedFoodItem != nil {
			dish = c.CookedFoodItem.Name
		}
		fmt.Fprintf(w, "  %-17s cooking=%v complete=%v elapsed=%.0fs dish=%s\n",
			id, snapshot.BoolOr(c.IsCooking, false), snapshot.BoolOr(c.CookingComplete, false), snapshot.FloatOr(c.CookingTime, 0), dish)
	}
	if snap.Inventory != nil {
		names := make([]string, 0, len(snap.Inventory.Items))
		for name := range snap.Inventory.Items {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, snap.Inventory.Items[name]))
		}
		fmt.Fprintf(w, "  inventory %s\n", strings.Join(parts, " "))
	}
}

func printEvent(w io.Writer, ev scene.Event) {
	line := fmt.Sprintf("%s %s #%d %-14s %s", time.UnixMilli(ev.At).UTC().Format("15:04:05.000"), ev.Session, ev.Seq, ev.Kind, ev.Scene)
	if ev.Source != "" {
		line += " " + ev.Source
	}
	if ev.Item != nil {
		line += fmt.Sprintf(" %dx%s", ev.Item.Quantity, ev.Item.Name)
	}
	if ev.Code != "" {
		line += " " + ev.Code
	}
	if ev.Message != "" {
		line += fmt.Sprintf(" %q", ev.Message)
	}
	fmt.Fprintln(w, line)
}

// timeline counts events per kind and checks that each session's sequence
// numbers have no holes.
type timeline struct {
	session string
	kinds   map[scene.EventKind]int
	lastSeq map[string]uint64
	total   int
	gaps    int
}

func newTimeline(session string) *timeline {
	return &timeline{
		session: session,
		kinds:   map[scene.EventKind]int{},
		lastSeq: map[string]uint64{},
	}
}

// add records ev and reports whether it passed the session filter.
func (t *timeline) add(ev scene.Event) bool {
	if t.session != "" && ev.Session != t.session {
		return false
	}
	if last, ok := t.lastSeq[ev.Session]; ok && ev.Seq != last+1 {
		t.gaps++
	}
	t.lastSeq[ev.Session] = ev.Seq
	t.kinds[ev.Kind]++
	t.total++
	return true
}

func (t *timeline) summary(w io.Writer) {
	kinds := make([]string, 0, len(t.kinds))
	for k := range t.kinds {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "events=%d sessions=%d gaps=%d\n", t.total, len(t.lastSeq), t.gaps)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-14s %d\n", k, t.kinds[scene.EventKind(k)])
	}
}
