package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"campfire.ai/internal/persistence/bridge"
	"campfire.ai/internal/persistence/snapshot"
	"campfire.ai/internal/sim/scene"
	"campfire.ai/internal/sim/tuning"
)

// SQLiteStore is the durable bridge.Store. Documents are written synchronously;
// events and export records go through a buffered writer goroutine.
type SQLiteStore struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu makes the closed check and the send on ch one step against Close.
	mu     sync.RWMutex
	closed bool

	dropEvents    atomic.Uint64
	dropSnapshots atomic.Uint64
}

var _ bridge.Store = (*SQLiteStore)(nil)

type reqKind int

const (
	reqEvent reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	event    scene.Event
	snapshot snapshotRow
}

type snapshotRow struct {
	Path    string
	Session string
	SavedAt int64
	Sources int
	Cooking int
	Items   int
}

type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropEventTotal    uint64 `json:"drop_event_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			session TEXT NOT NULL,
			entry TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (session, entry)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			scene TEXT NOT NULL,
			kind TEXT NOT NULL,
			source TEXT,
			code TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session, id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind, at_ms);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			path TEXT PRIMARY KEY,
			session TEXT NOT NULL,
			saved_at INTEGER NOT NULL,
			sources INTEGER NOT NULL,
			cooking INTEGER NOT NULL,
			items INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tunings (
			digest TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, k bridge.Key) ([]byte, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT json FROM entries WHERE session=? AND entry=?`, k.Session, k.Entry).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, k bridge.Key, doc []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries(session,entry,json,updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(session,entry) DO UPDATE SET json=excluded.json, updated_at=excluded.updated_at`,
		k.Session, k.Entry, string(doc), now)
	return err
}

func (s *SQLiteStore) Keys(ctx context.Context, session string) ([]bridge.Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry FROM entries WHERE session=? ORDER BY entry`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []bridge.Key
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		out = append(out, bridge.Key{Session: session, Entry: entry})
	}
	return out, rows.Err()
}

// Sessions lists every session id that has at least one stored document.
func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT session FROM entries ORDER BY session`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// WriteEvent queues ev for the events table. It never blocks the caller; a full
// queue drops the event (the JSONL event log remains the source of truth).
func (s *SQLiteStore) WriteEvent(ev scene.Event) {
	if s == nil {
		return
	}
	if !s.enqueue(req{kind: reqEvent, event: ev}) {
		s.dropEvents.Add(1)
	}
}

func (s *SQLiteStore) RecordSnapshot(path string, snap snapshot.SessionV1) {
	if s == nil {
		return
	}
	r := snapshotRow{
		Path:    path,
		Session: snap.Header.SessionID,
		SavedAt: snap.Header.SavedAt,
		Sources: len(snap.Sources),
		Cooking: len(snap.Cooking),
	}
	if snap.Inventory != nil {
		r.Items = len(snap.Inventory.Items)
	}
	if !s.enqueue(req{kind: reqSnapshot, snapshot: r}) {
		s.dropSnapshots.Add(1)
	}
}

// enqueue hands r to the writer without blocking. It reports false when the
// queue is full; after Close it silently discards r.
func (s *SQLiteStore) enqueue(r req) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- r:
		return true
	default:
		return false
	}
}

// RecordTuning stores the tuning values actually applied, keyed by digest.
func (s *SQLiteStore) RecordTuning(ctx context.Context, t tuning.Tuning) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	digest := hex.EncodeToString(sum[:])
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tunings(digest,json,recorded_at) VALUES(?,?,?)`, digest, string(b), now); err != nil {
		return "", err
	}
	return digest, nil
}

// Events returns up to limit indexed events of session, oldest first.
func (s *SQLiteStore) Events(ctx context.Context, session string, limit int) ([]scene.Event, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_json FROM events WHERE session=? ORDER BY id LIMIT ?`, session, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []scene.Event
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ev scene.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropEventTotal:    s.dropEvents.Load(),
		DropSnapshotTotal: s.dropSnapshots.Load(),
	}
}

func (s *SQLiteStore) loop() {
	ctx := context.Background()

	insertEvent, _ := s.db.Prepare(`INSERT INTO events(session,seq,at_ms,scene,kind,source,code,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(path,session,saved_at,sources,cooking,items) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertEvent != nil {
			_ = insertEvent.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 500
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqEvent:
			ev := r.event
			raw, _ := json.Marshal(ev)
			if insertEvent != nil {
				if _, err := tx.Stmt(insertEvent).Exec(
					ev.Session,
					int64(ev.Seq),
					ev.At,
					string(ev.Scene),
					string(ev.Kind),
					ev.Source,
					ev.Code,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					sn.Path,
					sn.Session,
					sn.SavedAt,
					sn.Sources,
					sn.Cooking,
					sn.Items,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		// The store shares its single connection with synchronous document writes,
		// so the batch is committed as soon as the queue drains.
		if opCount >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
