package main

import (
	"fmt"
	"log"

	"campfire.ai/internal/config"
	"campfire.ai/internal/persistence/bridge"
	"campfire.ai/internal/persistence/indexdb"
)

// openStore picks the document store for session state. The sqlite backend also
// indexes events and snapshot metadata; the memory backend returns a nil index.
func openStore(rt config.Runtime, logger *log.Logger) (bridge.Store, *indexdb.SQLiteStore, error) {
	switch rt.Store {
	case config.StoreMemory:
		logger.Printf("store: memory (state is lost on exit)")
		return bridge.NewMemoryStore(), nil, nil
	case config.StoreSQLite:
		path := rt.SQLiteFile()
		idx, err := indexdb.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		logger.Printf("store: sqlite %s", path)
		return idx, idx, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store: %s", rt.Store)
	}
}
