package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

// FuelSourceV1 is the persisted layout of one fuel source. Pointer fields distinguish
// "absent" from zero so a partial document restores to the unlit baseline.
type FuelSourceV1 struct {
	IsFireLit       *bool    `json:"isFireLit,omitempty"`
	BurnTime        *float64 `json:"burnTime,omitempty"`
	CurrentStokes   *float64 `json:"currentStokes,omitempty"`
	LightRadius     *float64 `json:"lightRadius,omitempty"`
	CampfireScale   *float64 `json:"campfireScale,omitempty"`
	CampfireOriginY *float64 `json:"campfireOriginY,omitempty"`

	// Epoch ms of the write; only consulted by the "advance" restore policy.
	SavedAt int64 `json:"savedAt,omitempty"`
}

type ItemV1 struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CookingV1 is the persisted layout of the cooking task bound to a source.
type CookingV1 struct {
	IsCooking        *bool    `json:"isCooking,omitempty"`
	CookingTime      *float64 `json:"cookingTime,omitempty"`
	CookingComplete  *bool    `json:"cookingComplete,omitempty"`
	CookedFoodItem   *ItemV1  `json:"cookedFoodItem"`
	CookingStartTime *int64   `json:"cookingStartTime,omitempty"`

	SavedAt int64 `json:"savedAt,omitempty"`
}

type InventoryV1 struct {
	Items   map[string]int `json:"items"`
	SavedAt int64          `json:"savedAt,omitempty"`
}

type Header struct {
	Version   int    `json:"version"`
	SessionID string `json:"session_id"`
	SavedAt   int64  `json:"saved_at"`
}

// SessionV1 is a whole-session export: every persisted entry under one session id.
type SessionV1 struct {
	Header Header `json:"header"`

	Scene     string                  `json:"scene,omitempty"`
	Sources   map[string]FuelSourceV1 `json:"sources"`
	Cooking   map[string]CookingV1    `json:"cooking"`
	Inventory *InventoryV1            `json:"inventory,omitempty"`
}

func Bool(v bool) *bool        { return &v }
func Float(v float64) *float64 { return &v }
func Int64(v int64) *int64     { return &v }

func BoolOr(p *bool, d bool) bool {
	if p == nil {
		return d
	}
	return *p
}

func FloatOr(p *float64, d float64) float64 {
	if p == nil {
		return d
	}
	return *p
}

func Int64Or(p *int64, d int64) int64 {
	if p == nil {
		return d
	}
	return *p
}

// WriteSnapshot writes a header line followed by the JSON body, zstd-compressed.
func WriteSnapshot(path string, snap SessionV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(w io.Writer, snap SessionV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SessionV1, error) {
	var snap SessionV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The header line is for tools that only peek; the body repeats it.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader returns only the first line of a snapshot file.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
