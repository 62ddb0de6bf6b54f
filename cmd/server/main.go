package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"campfire.ai/internal/config"
	"campfire.ai/internal/persistence/archive"
	"campfire.ai/internal/persistence/bridge"
	"campfire.ai/internal/persistence/indexdb"
	persistlog "campfire.ai/internal/persistence/log"
	"campfire.ai/internal/persistence/snapshot"
	"campfire.ai/internal/protocol"
	"campfire.ai/internal/sim/scene"
	"campfire.ai/internal/sim/tuning"
	"campfire.ai/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	rt, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var (
		addr       = flag.String("addr", rt.Addr, "http listen address")
		dataDir    = flag.String("data", rt.DataDir, "runtime data directory")
		tuningPath = flag.String("tuning", rt.TuningPath, "path to tuning.yaml")
		store      = flag.String("store", rt.Store, "session store: memory|sqlite")
		noEvents   = flag.Bool("disable_event_log", rt.DisableEventLog, "do not write events to <data>/events")
		snapOnExit = flag.Bool("snapshot_on_exit", rt.SnapshotOnExit, "write every session to <data>/snapshots on shutdown")
	)
	flag.Parse()
	rt.Addr, rt.DataDir, rt.TuningPath, rt.Store = *addr, *dataDir, *tuningPath, *store
	rt.DisableEventLog, rt.SnapshotOnExit = *noEvents, *snapOnExit
	rt.Normalize()
	if err := rt.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}
	_ = os.MkdirAll(rt.DataDir, 0o755)

	tune := tuning.Defaults()
	if tp := strings.TrimSpace(rt.TuningPath); tp != "" {
		t, err := tuning.Load(tp)
		switch {
		case err == nil:
			tune = t
		case os.IsNotExist(err):
			logger.Printf("tuning %s not found, using defaults", tp)
		default:
			logger.Fatalf("load tuning: %v", err)
		}
	}

	docs, idx, err := openStore(rt, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if digest, err := idx.RecordTuning(context.Background(), tune); err != nil {
			logger.Printf("record tuning: %v", err)
		} else {
			logger.Printf("tuning digest %s", digest[:12])
		}
	}

	b, err := bridge.New(docs, bridge.Options{
		Fuel:    tune.FuelParams(),
		Cooking: tune.CookingParams(),
		Policy:  tune.RestorePolicy,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatalf("bridge: %v", err)
	}

	var sinks []scene.Observer
	if !rt.DisableEventLog {
		evLog := persistlog.NewEventLogger(rt.DataDir)
		defer evLog.Close()
		sinks = append(sinks, func(ev scene.Event) {
			if err := evLog.WriteEvent(ev); err != nil {
				logger.Printf("event log: %v", err)
			}
		})
	}
	if idx != nil {
		sinks = append(sinks, idx.WriteEvent)
	}

	ctx, cancel := signalContext()
	defer cancel()

	sessionLog := log.New(os.Stdout, "[session] ", log.LstdFlags|log.Lmicroseconds)
	factory := func(ctx context.Context, id string) (*scene.Session, error) {
		return scene.NewSession(ctx, scene.Config{
			ID:       id,
			Tuning:   tune,
			Bridge:   b,
			Logger:   sessionLog,
			AutoTick: true,
		})
	}
	hub := ws.NewHub(ctx, factory, logger, sinks...)

	wsSrv, err := ws.NewServer(hub, protocol.SessionParams{
		TickPeriodMs:    tune.TickPeriodMs,
		MaxStokes:       tune.Fuel.MaxStokes,
		SecondsPerStoke: tune.Fuel.SecondsPerStoke,
		CookSeconds:     tune.Cooking.DurationSeconds,
		RestorePolicy:   string(tune.RestorePolicy),
	}, logger)
	if err != nil {
		logger.Fatalf("ws: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, hub, idx, tune)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              rt.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (tick=%dms restore=%s)", rt.Addr, tune.TickPeriodMs, tune.RestorePolicy)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// Sessions leave their scenes and save before the process exits.
	hub.Close()
	if rt.SnapshotOnExit {
		writeSnapshots(b, idx, hub.SessionIDs(), rt.DataDir, logger)
	}
	logger.Printf("stopped")
}

// writeSnapshots exports each session to <data>/snapshots, archiving the
// session's previous snapshot first.
func writeSnapshots(b *bridge.Bridge, idx *indexdb.SQLiteStore, ids []string, dataDir string, logger *log.Logger) {
	if len(ids) == 0 {
		return
	}
	dir := filepath.Join(dataDir, "snapshots")
	_ = os.MkdirAll(dir, 0o755)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, id := range ids {
		snap, err := b.Export(ctx, id)
		if err != nil {
			logger.Printf("export %s: %v", id, err)
			continue
		}
		path := filepath.Join(dir, id+".snap.zst")
		if _, _, err := archive.ArchiveSnapshot(dataDir, path); err != nil {
			logger.Printf("archive %s: %v", path, err)
		}
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot %s: %v", id, err)
			continue
		}
		if idx != nil {
			idx.RecordSnapshot(path, snap)
		}
		logger.Printf("snapshot %s", path)
	}
}

func writeMetrics(rw http.ResponseWriter, hub *ws.Hub, idx *indexdb.SQLiteStore, tune tuning.Tuning) {
	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP campfire_sessions Sessions started since boot.\n")
	fmt.Fprintf(rw, "# TYPE campfire_sessions gauge\n")
	fmt.Fprintf(rw, "campfire_sessions %d\n", len(hub.SessionIDs()))

	fmt.Fprintf(rw, "# HELP campfire_tick_period_ms Decay scheduler period.\n")
	fmt.Fprintf(rw, "# TYPE campfire_tick_period_ms gauge\n")
	fmt.Fprintf(rw, "campfire_tick_period_ms %d\n", tune.TickPeriodMs)

	if idx == nil {
		return
	}
	st := idx.Stats()
	fmt.Fprintf(rw, "# HELP campfire_index_queue_depth Index write queue backlog.\n")
	fmt.Fprintf(rw, "# TYPE campfire_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "campfire_index_queue_depth %d\n", st.QueueDepth)
	fmt.Fprintf(rw, "campfire_index_queue_capacity %d\n", st.QueueCapacity)

	fmt.Fprintf(rw, "# HELP campfire_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE campfire_index_dropped_total counter\n")
	fmt.Fprintf(rw, "campfire_index_dropped_total{kind=%q} %d\n", "event", st.DropEventTotal)
	fmt.Fprintf(rw, "campfire_index_dropped_total{kind=%q} %d\n", "snapshot", st.DropSnapshotTotal)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
