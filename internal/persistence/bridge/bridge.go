// Package bridge moves simulation state between live scene objects and the
// process-wide document store. Scenes never share live references; everything
// that outlives a scene goes through a Bridge.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"campfire.ai/internal/clock"
	"campfire.ai/internal/persistence/snapshot"
	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/tuning"
)

// ErrInvalidDocument marks a stored document that failed schema validation or decoding.
var ErrInvalidDocument = errors.New("invalid persisted document")

type Options struct {
	Fuel    fuel.Params
	Cooking cooking.Params
	Policy  tuning.RestorePolicy
	Clock   clock.Clock
	Logger  *log.Logger
}

type Bridge struct {
	store  Store
	opts   Options
	schema *snapshot.Validator
}

func New(store Store, opts Options) (*Bridge, error) {
	if store == nil {
		return nil, errors.New("bridge: nil store")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Policy == "" {
		opts.Policy = tuning.RestorePause
	}
	v, err := snapshot.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Bridge{store: store, opts: opts, schema: v}, nil
}

func (b *Bridge) Store() Store                 { return b.store }
func (b *Bridge) Policy() tuning.RestorePolicy { return b.opts.Policy }

func (b *Bridge) SaveSource(ctx context.Context, session string, src *fuel.Source) error {
	doc := EncodeSource(src.State(), b.opts.Clock.Now())
	return b.put(ctx, Key{Session: session, Entry: src.ID()}, doc)
}

func (b *Bridge) SaveCooking(ctx context.Context, session string, t *cooking.Task) error {
	if t.Fire() == nil {
		return errors.New("bridge: cooking task without a fire")
	}
	doc := EncodeCooking(t.State(), b.opts.Clock.Now())
	return b.put(ctx, Key{Session: session, Entry: CookingEntry(t.Fire().ID())}, doc)
}

func (b *Bridge) SaveInventory(ctx context.Context, session string, l *inventory.Ledger) error {
	return b.put(ctx, Key{Session: session, Entry: EntryInventory}, EncodeInventory(l, b.opts.Clock.Now()))
}

// Snapshot writes every given object. It keeps going after a failed write and
// returns all failures joined.
func (b *Bridge) Snapshot(ctx context.Context, session string, sources []*fuel.Source, tasks []*cooking.Task, l *inventory.Ledger) error {
	var errs []error
	for _, s := range sources {
		if s == nil {
			continue
		}
		if err := b.SaveSource(ctx, session, s); err != nil {
			errs = append(errs, err)
		}
	}
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if err := b.SaveCooking(ctx, session, t); err != nil {
			errs = append(errs, err)
		}
	}
	if l != nil {
		if err := b.SaveInventory(ctx, session, l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RestoreSource returns the persisted source, or a fresh unlit one when there is no
// usable document. The returned source is never nil, even alongside an error.
func (b *Bridge) RestoreSource(ctx context.Context, session, id string) (*fuel.Source, error) {
	var doc snapshot.FuelSourceV1
	ok, err := b.get(ctx, Key{Session: session, Entry: id}, snapshot.SchemaFuelSource, &doc)
	if err != nil || !ok {
		return fuel.New(id, b.opts.Fuel), err
	}
	return DecodeSource(id, b.opts.Fuel, doc, b.opts.Policy, b.opts.Clock.Now()), nil
}

// RestoreCooking returns the task bound to src. The returned task is never nil.
func (b *Bridge) RestoreCooking(ctx context.Context, session string, src *fuel.Source) (*cooking.Task, Outcome, error) {
	var doc snapshot.CookingV1
	ok, err := b.get(ctx, Key{Session: session, Entry: CookingEntry(src.ID())}, snapshot.SchemaCooking, &doc)
	if err != nil || !ok {
		return cooking.New(src, b.opts.Cooking), OutcomeIdle, err
	}
	t, outcome := DecodeCooking(src, b.opts.Cooking, doc, b.opts.Clock.Now())
	if b.opts.Logger != nil && outcome != OutcomeIdle {
		b.opts.Logger.Printf("restore %s/%s: cooking %s", session, src.ID(), outcome)
	}
	return t, outcome, nil
}

// RestoreInventory returns the persisted ledger and whether one existed.
func (b *Bridge) RestoreInventory(ctx context.Context, session string) (*inventory.Ledger, bool, error) {
	var doc snapshot.InventoryV1
	ok, err := b.get(ctx, Key{Session: session, Entry: EntryInventory}, snapshot.SchemaInventory, &doc)
	if err != nil || !ok {
		return inventory.New(), false, err
	}
	return DecodeInventory(doc), true, nil
}

// Export collects every document stored for session into one snapshot.
func (b *Bridge) Export(ctx context.Context, session string) (snapshot.SessionV1, error) {
	now := b.opts.Clock.Now()
	out := snapshot.SessionV1{
		Header:  snapshot.Header{Version: snapshot.Version, SessionID: session, SavedAt: clock.EpochMillis(now)},
		Sources: map[string]snapshot.FuelSourceV1{},
		Cooking: map[string]snapshot.CookingV1{},
	}
	keys, err := b.store.Keys(ctx, session)
	if err != nil {
		return out, err
	}
	for _, k := range keys {
		switch {
		case k.Entry == EntryInventory:
			var doc snapshot.InventoryV1
			if _, err := b.get(ctx, k, snapshot.SchemaInventory, &doc); err != nil {
				return out, err
			}
			out.Inventory = &doc
		default:
			if _, ok := IsCookingEntry(k.Entry); ok {
				var doc snapshot.CookingV1
				if _, err := b.get(ctx, k, snapshot.SchemaCooking, &doc); err != nil {
					return out, err
				}
				out.Cooking[k.Entry] = doc
				continue
			}
			var doc snapshot.FuelSourceV1
			if _, err := b.get(ctx, k, snapshot.SchemaFuelSource, &doc); err != nil {
				return out, err
			}
			out.Sources[k.Entry] = doc
		}
	}
	return out, nil
}

// Import writes every document of snap back into the store under its session id.
func (b *Bridge) Import(ctx context.Context, snap snapshot.SessionV1) error {
	if snap.Header.SessionID == "" {
		return errors.New("bridge: snapshot without session id")
	}
	session := snap.Header.SessionID
	ids := make([]string, 0, len(snap.Sources))
	for id := range snap.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := b.put(ctx, Key{Session: session, Entry: id}, snap.Sources[id]); err != nil {
			return err
		}
	}
	for entry, doc := range snap.Cooking {
		if _, ok := IsCookingEntry(entry); !ok {
			return fmt.Errorf("bridge: bad cooking entry %q", entry)
		}
		if err := b.put(ctx, Key{Session: session, Entry: entry}, doc); err != nil {
			return err
		}
	}
	if snap.Inventory != nil {
		if err := b.put(ctx, Key{Session: session, Entry: EntryInventory}, *snap.Inventory); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) put(ctx context.Context, k Key, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	if err := b.store.Put(ctx, k, raw); err != nil {
		return fmt.Errorf("store %s: %w", k, err)
	}
	return nil
}

func (b *Bridge) get(ctx context.Context, k Key, schema string, dst any) (bool, error) {
	raw, ok, err := b.store.Get(ctx, k)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", k, err)
	}
	if !ok {
		return false, nil
	}
	if err := b.schema.Validate(schema, raw); err != nil {
		return false, fmt.Errorf("%s: %w: %v", k, ErrInvalidDocument, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%s: %w: %v", k, ErrInvalidDocument, err)
	}
	return true, nil
}
