package scene

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"campfire.ai/internal/clock"
	"campfire.ai/internal/persistence/bridge"
	"campfire.ai/internal/protocol"
	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/scheduler"
	"campfire.ai/internal/sim/tuning"
	"campfire.ai/internal/sim/view"
)

var (
	ErrNoScene       = errors.New("no active scene")
	ErrUnknownScene  = errors.New("unknown scene")
	ErrUnknownSource = errors.New("unknown fuel source")
	ErrNoCooking     = errors.New("scene has no cooking")
	ErrClosed        = errors.New("session closed")
)

type Config struct {
	ID     string
	Tuning tuning.Tuning
	Bridge *bridge.Bridge
	Clock  clock.Clock
	Logger *log.Logger

	// AutoTick arms the scene scheduler on Enter. Without it the owner calls Tick.
	AutoTick  bool
	InboxSize int
}

// FrameObserver receives a full redraw after every handled request and tick.
type FrameObserver func(step uint64, f view.Frame)

// Session is the session-lifetime context: it owns the inventory, the bridge and
// at most one active scene. Its methods are not safe for concurrent use; Run
// serializes Submit calls onto one goroutine.
type Session struct {
	cfg    Config
	clk    clock.Clock
	logger *log.Logger
	fuelP  fuel.Params
	cookP  cooking.Params

	ledger *inventory.Ledger
	active *Scene
	seq    uint64

	obsMu     sync.Mutex
	nextObs   int
	observers map[int]Observer
	frames    map[int]FrameObserver

	inbox chan Request
	done  chan struct{}
}

func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.ID == "" {
		return nil, errors.New("session: empty id")
	}
	if cfg.Bridge == nil {
		return nil, errors.New("session: nil bridge")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[session] ", log.LstdFlags|log.Lmicroseconds)
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}
	s := &Session{
		cfg:       cfg,
		clk:       cfg.Clock,
		logger:    cfg.Logger,
		fuelP:     cfg.Tuning.FuelParams(),
		cookP:     cfg.Tuning.CookingParams(),
		observers: map[int]Observer{},
		frames:    map[int]FrameObserver{},
		inbox:     make(chan Request, cfg.InboxSize),
		done:      make(chan struct{}),
	}

	ledger, found, err := cfg.Bridge.RestoreInventory(ctx, cfg.ID)
	if err != nil {
		s.logger.Printf("session %s: restore inventory: %v", cfg.ID, err)
	}
	if !found {
		ledger = inventory.FromMap(cfg.Tuning.StarterItems)
	}
	s.ledger = ledger
	if !found {
		s.saveInventory(ctx)
	}
	return s, nil
}

func (s *Session) ID() string                { return s.cfg.ID }
func (s *Session) Ledger() *inventory.Ledger { return s.ledger }
func (s *Session) Active() *Scene            { return s.active }
func (s *Session) Done() <-chan struct{}     { return s.done }

// Subscribe registers an event observer and returns a function that removes it.
func (s *Session) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Session) SubscribeFrames(fn FrameObserver) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.frames[id] = fn
	return func() {
		s.obsMu.Lock()
		delete(s.frames, id)
		s.obsMu.Unlock()
	}
}

// Enter restores the given scene from the bridge, leaving the current one first.
func (s *Session) Enter(ctx context.Context, id ID) error {
	def, ok := Lookup(id)
	if !ok {
		return s.reject(fmt.Errorf("enter %q: %w", id, ErrUnknownScene), "")
	}
	if prev := s.active; prev != nil {
		if err := s.Leave(ctx); err != nil {
			s.logger.Printf("session %s: leave %s: %v", s.cfg.ID, prev.def.ID, err)
		}
	}

	sc := &Scene{def: def}
	bindings := make([]scheduler.Binding, 0, len(def.Sources))
	outcome := bridge.OutcomeIdle
	for _, sid := range def.Sources {
		src, err := s.cfg.Bridge.RestoreSource(ctx, s.cfg.ID, sid)
		if err != nil {
			s.logger.Printf("session %s: restore %s: %v (starting fresh)", s.cfg.ID, sid, err)
		}
		sc.sources = append(sc.sources, src)
		b := scheduler.Binding{Source: src}
		if sid == def.CookingSource {
			task, o, err := s.cfg.Bridge.RestoreCooking(ctx, s.cfg.ID, src)
			if err != nil {
				s.logger.Printf("session %s: restore %s: %v (starting idle)", s.cfg.ID, bridge.CookingEntry(sid), err)
			}
			sc.task, b.Task, outcome = task, task, o
		}
		bindings = append(bindings, b)
	}
	sc.sched = scheduler.New(s.cfg.Tuning.TickPeriod(), bindings...)
	s.active = sc

	s.emit(Event{Kind: EventSceneEntered})
	switch outcome {
	case bridge.OutcomeCompleted:
		ev := Event{Kind: EventCookCompleted, Source: def.CookingSource, Message: view.MsgDishReady}
		if res, ok := sc.task.Result(); ok {
			ev.Item = &res
		}
		s.emit(ev)
	case bridge.OutcomeCancelled:
		s.emit(Event{Kind: EventCookCancelled, Source: def.CookingSource, Message: view.MsgFireWentOut})
	}
	s.saveScene(ctx, sc)

	if s.cfg.AutoTick {
		sc.sched.Start()
	}
	return nil
}

// Leave stops the scene scheduler, snapshots the scene and drops it.
func (s *Session) Leave(ctx context.Context) error {
	sc := s.active
	if sc == nil {
		return s.reject(fmt.Errorf("leave: %w", ErrNoScene), "")
	}
	sc.sched.Stop()
	err := s.cfg.Bridge.Snapshot(ctx, s.cfg.ID, sc.sources, sc.tasks(), s.ledger)
	s.active = nil
	s.emit(Event{Kind: EventSceneLeft, Scene: sc.def.ID})
	return err
}

// Stoke feeds quantity units of item into target. An empty target means the
// scene's only source.
func (s *Session) Stoke(ctx context.Context, target, item string, quantity int) error {
	sc := s.active
	if sc == nil {
		return s.reject(fmt.Errorf("stoke: %w", ErrNoScene), "")
	}
	if target == "" && len(sc.sources) == 1 {
		target = sc.sources[0].ID()
	}
	src, ok := sc.Source(target)
	if !ok {
		return s.reject(fmt.Errorf("stoke %q: %w", target, ErrUnknownSource), "")
	}
	ch, err := src.Stoke(s.ledger, item, quantity)
	if err != nil {
		return s.reject(err, item)
	}
	if ch.Ignited {
		s.emit(Event{Kind: EventIgnited, Source: src.ID(), Message: view.MsgFireLit})
	}
	s.emit(Event{Kind: EventStoked, Source: src.ID(), Item: &inventory.Item{Name: item, Quantity: quantity}})
	s.saveSource(ctx, src)
	s.saveInventory(ctx)
	return nil
}

func (s *Session) Cook(ctx context.Context, item string) error {
	sc := s.active
	if sc == nil {
		return s.reject(fmt.Errorf("cook: %w", ErrNoScene), "")
	}
	if sc.task == nil {
		return s.reject(fmt.Errorf("cook in %s: %w", sc.def.ID, ErrNoCooking), "")
	}
	if err := sc.task.Start(s.ledger, item, s.clk.Now()); err != nil {
		return s.reject(err, item)
	}
	ev := Event{Kind: EventCookStarted, Source: sc.def.CookingSource}
	if res, ok := sc.task.Result(); ok {
		ev.Item = &res
	}
	s.emit(ev)
	s.saveTask(ctx, sc.task)
	s.saveInventory(ctx)
	return nil
}

func (s *Session) Claim(ctx context.Context) (inventory.Item, error) {
	sc := s.active
	if sc == nil {
		return inventory.Item{}, s.reject(fmt.Errorf("claim: %w", ErrNoScene), "")
	}
	if sc.task == nil {
		return inventory.Item{}, s.reject(fmt.Errorf("claim in %s: %w", sc.def.ID, ErrNoCooking), "")
	}
	item, err := sc.task.Claim(s.ledger)
	if err != nil {
		return inventory.Item{}, s.reject(err, "")
	}
	s.emit(Event{Kind: EventClaimed, Source: sc.def.CookingSource, Item: &item})
	s.saveTask(ctx, sc.task)
	s.saveInventory(ctx)
	return item, nil
}

// Give and Take are the ledger surface for screens outside the fire/cooking core.
func (s *Session) Give(ctx context.Context, name string, n int) {
	s.ledger.Add(name, n)
	s.saveInventory(ctx)
}

func (s *Session) Take(ctx context.Context, name string, n int) error {
	if err := s.ledger.Remove(name, n); err != nil {
		return err
	}
	s.saveInventory(ctx)
	return nil
}

// Tick runs one scheduler step of the active scene and reports what changed.
func (s *Session) Tick(ctx context.Context) scheduler.Report {
	sc := s.active
	if sc == nil {
		return scheduler.Report{}
	}
	r := sc.sched.Step()
	for _, id := range r.Extinguished {
		s.emit(Event{Kind: EventExtinguished, Source: id, Message: view.MsgFireWentOut})
	}
	for _, id := range r.Cancelled {
		s.emit(Event{Kind: EventCookCancelled, Source: id, Message: view.MsgFireWentOut})
	}
	for _, id := range r.Completed {
		ev := Event{Kind: EventCookCompleted, Source: id, Message: view.MsgDishReady}
		if res, ok := sc.task.Result(); ok {
			ev.Item = &res
		}
		s.emit(ev)
	}

	for _, ch := range r.Fuel {
		if src, ok := sc.Source(ch.Source); ok {
			s.saveSource(ctx, src)
		}
	}
	if sc.task != nil && (len(r.Cancelled) > 0 || len(r.Completed) > 0 || len(r.Cooking) > 0) {
		s.saveTask(ctx, sc.task)
	}
	return r
}

// View renders the active scene, or just the inventory when between scenes.
func (s *Session) View() view.Frame {
	sc := s.active
	if sc == nil {
		return view.NewFrame("", nil, nil, s.ledger)
	}
	return view.NewFrame(string(sc.def.ID), sc.sources, sc.task, s.ledger)
}

func (s *Session) reject(err error, item string) error {
	msg := MessageFor(err)
	if item != "" && (errors.Is(err, fuel.ErrInsufficientQuantity) || errors.Is(err, cooking.ErrInsufficientQuantity)) {
		if alt, ok := s.ledger.Closest(item); ok {
			msg = view.WithSuggestion(msg, alt)
		}
	}
	s.emit(Event{Kind: EventRejected, Code: CodeFor(err), Message: msg})
	return err
}

// CodeFor extends protocol.CodeFor with the session's own errors.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrNoScene):
		return protocol.ErrNoScene
	case errors.Is(err, ErrUnknownScene):
		return protocol.ErrUnknownScene
	case errors.Is(err, ErrUnknownSource):
		return protocol.ErrUnknownSource
	case errors.Is(err, ErrNoCooking):
		return protocol.ErrNoCooking
	default:
		return protocol.CodeFor(err)
	}
}

// MessageFor is the user-visible text for err, including the session's own errors.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, ErrNoScene):
		return "You need to be somewhere first"
	case errors.Is(err, ErrUnknownScene):
		return "There is no such place"
	case errors.Is(err, ErrUnknownSource):
		return "There is nothing to stoke there"
	case errors.Is(err, ErrNoCooking):
		return "There is nowhere to cook here"
	default:
		return view.Message(err)
	}
}

func (s *Session) emit(ev Event) {
	s.seq++
	ev.Seq = s.seq
	ev.At = clock.EpochMillis(s.clk.Now())
	ev.Session = s.cfg.ID
	if ev.Scene == "" && s.active != nil {
		ev.Scene = s.active.def.ID
	}
	s.obsMu.Lock()
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range obs {
		fn(ev)
	}
}

func (s *Session) publishFrame() {
	s.obsMu.Lock()
	fns := make([]FrameObserver, 0, len(s.frames))
	for _, fn := range s.frames {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	if len(fns) == 0 {
		return
	}
	var step uint64
	if s.active != nil {
		step = s.active.sched.Steps()
	}
	f := s.View()
	for _, fn := range fns {
		fn(step, f)
	}
}

// Persistence failures are logged and never roll back simulation state.

func (s *Session) saveScene(ctx context.Context, sc *Scene) {
	if err := s.cfg.Bridge.Snapshot(ctx, s.cfg.ID, sc.sources, sc.tasks(), s.ledger); err != nil {
		s.logger.Printf("session %s: snapshot %s: %v", s.cfg.ID, sc.def.ID, err)
	}
}

func (s *Session) saveSource(ctx context.Context, src *fuel.Source) {
	if err := s.cfg.Bridge.SaveSource(ctx, s.cfg.ID, src); err != nil {
		s.logger.Printf("session %s: save %s: %v", s.cfg.ID, src.ID(), err)
	}
}

func (s *Session) saveTask(ctx context.Context, t *cooking.Task) {
	if err := s.cfg.Bridge.SaveCooking(ctx, s.cfg.ID, t); err != nil {
		s.logger.Printf("session %s: save cooking: %v", s.cfg.ID, err)
	}
}

func (s *Session) saveInventory(ctx context.Context) {
	if err := s.cfg.Bridge.SaveInventory(ctx, s.cfg.ID, s.ledger); err != nil {
		s.logger.Printf("session %s: save inventory: %v", s.cfg.ID, err)
	}
}
