package ws

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"campfire.ai/internal/sim/scene"
)

// SessionFactory builds a session for id. The hub runs and owns it.
type SessionFactory func(ctx context.Context, id string) (*scene.Session, error)

type hubEntry struct {
	token     string
	sess      *scene.Session
	cancel    context.CancelFunc
	attached  bool
	lastScene scene.ID
}

// Hub keeps every running session keyed by resume token so a client can
// reconnect to the same inventory and fires.
type Hub struct {
	ctx     context.Context
	factory SessionFactory
	sinks   []scene.Observer
	log     *log.Logger

	mu      sync.Mutex
	byToken map[string]*hubEntry
	closed  bool
	wg      sync.WaitGroup
}

var ErrHubClosed = errors.New("hub closed")

// NewHub runs sessions under ctx; cancelling ctx stops them all. Every sink
// receives every event of every session.
func NewHub(ctx context.Context, factory SessionFactory, logger *log.Logger, sinks ...scene.Observer) *Hub {
	return &Hub{
		ctx:     ctx,
		factory: factory,
		sinks:   sinks,
		log:     logger,
		byToken: map[string]*hubEntry{},
	}
}

// Acquire resumes the session behind token, or starts a new one. A token that is
// unknown or already attached to a live connection yields a new session.
func (h *Hub) Acquire(token string) (e *hubEntry, resumed bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false, ErrHubClosed
	}
	if token != "" {
		if e, ok := h.byToken[token]; ok && !e.attached {
			e.attached = true
			return e, true, nil
		}
	}

	id := uuid.NewString()
	sess, err := h.factory(h.ctx, id)
	if err != nil {
		return nil, false, err
	}
	for _, sink := range h.sinks {
		sess.Subscribe(sink)
	}
	ctx, cancel := context.WithCancel(h.ctx)
	e = &hubEntry{token: uuid.NewString(), sess: sess, cancel: cancel, attached: true}
	h.byToken[e.token] = e
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			h.log.Printf("session %s stopped: %v", id, err)
		}
	}()
	return e, false, nil
}

func (h *Hub) Release(e *hubEntry, lastScene scene.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e.attached = false
	if lastScene != "" {
		e.lastScene = lastScene
	}
}

func (h *Hub) LastScene(e *hubEntry) scene.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return e.lastScene
}

// SessionIDs lists the ids of every session the hub has started.
func (h *Hub) SessionIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.byToken))
	for _, e := range h.byToken {
		out = append(out, e.sess.ID())
	}
	sort.Strings(out)
	return out
}

// Close stops every session and waits for their final saves.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	entries := make([]*hubEntry, 0, len(h.byToken))
	for _, e := range h.byToken {
		entries = append(entries, e)
	}
	h.mu.Unlock()
	for _, e := range entries {
		e.cancel()
	}
	h.wg.Wait()
}
