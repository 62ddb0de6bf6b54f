// Package scene owns the live simulation objects of one zone and the session
// that moves a player between zones.
package scene

import (
	"sort"

	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/scheduler"
)

type ID string

const (
	Camp     ID = "camp"
	Dungeon  ID = "dungeon"
	Workshop ID = "workshop"
	Village  ID = "village"
)

const (
	SourceCampfire = "campfire"
	SourceTorch    = "torch"
)

// Def lists which fuel sources a scene has and which of them can cook.
type Def struct {
	ID            ID
	Title         string
	Sources       []string
	CookingSource string
}

var defs = map[ID]Def{
	Camp:     {ID: Camp, Title: "Camp", Sources: []string{SourceCampfire}, CookingSource: SourceCampfire},
	Dungeon:  {ID: Dungeon, Title: "Dungeon", Sources: []string{SourceTorch}},
	Workshop: {ID: Workshop, Title: "Artisan Workshop"},
	Village:  {ID: Village, Title: "Village"},
}

func Lookup(id ID) (Def, bool) {
	d, ok := defs[id]
	return d, ok
}

func IDs() []ID {
	out := make([]ID, 0, len(defs))
	for id := range defs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Scene is one active zone. It is created by Session.Enter and discarded by Leave;
// nothing else holds on to its sources or task.
type Scene struct {
	def     Def
	sources []*fuel.Source
	task    *cooking.Task
	sched   *scheduler.Scheduler
}

func (sc *Scene) Def() Def                        { return sc.def }
func (sc *Scene) Sources() []*fuel.Source         { return sc.sources }
func (sc *Scene) Task() *cooking.Task             { return sc.task }
func (sc *Scene) Scheduler() *scheduler.Scheduler { return sc.sched }

func (sc *Scene) Source(id string) (*fuel.Source, bool) {
	for _, s := range sc.sources {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

func (sc *Scene) tasks() []*cooking.Task {
	if sc.task == nil {
		return nil
	}
	return []*cooking.Task{sc.task}
}
