package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"campfire.ai/internal/persistence/snapshot"
)

type Meta struct {
	SessionID string `json:"session_id"`
	SavedAt   int64  `json:"saved_at"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// ArchiveSnapshot copies an existing session snapshot into
// `dataDir/archives/<session>/<saved_at>.snap.zst` before it is overwritten.
// It returns archived=false when there is nothing at snapshotPath.
func ArchiveSnapshot(dataDir, snapshotPath string) (archivedPath string, archived bool, err error) {
	hdr, err := snapshot.ReadHeader(snapshotPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if hdr.SessionID == "" {
		return "", false, fmt.Errorf("archive %s: snapshot has no session id", snapshotPath)
	}

	archiveDir := filepath.Join(dataDir, "archives", hdr.SessionID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, fmt.Sprintf("%d.snap.zst", hdr.SavedAt))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := Meta{
		SessionID: hdr.SessionID,
		SavedAt:   hdr.SavedAt,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
