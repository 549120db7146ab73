// Package snapshot persists session state as a flat snapshot document.
//
// The snapshot is one pretty-printed JSON file per session so an operator
// can inspect or diff it by hand. Loading is deliberately forgiving: a
// missing or corrupt file falls back to a fresh session instead of keeping
// the table from opening.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/louisbranch/mesa.live/internal/table/state"
)

// Load reads the snapshot at path. A missing file starts a fresh session; an
// unreadable or unparsable one is logged and discarded the same way. Loaded
// documents are normalized, so a fog grid with the wrong shape is replaced
// by a freshly hidden one.
func Load(path string) state.Document {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("snapshot: read %s: %v, starting fresh", path, err)
		}
		return state.DefaultDocument()
	}

	var doc state.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("snapshot: parse %s: %v, starting fresh", path, err)
		return state.DefaultDocument()
	}
	if doc.Normalize() {
		log.Printf("snapshot: fog grid in %s had the wrong shape, regenerated", path)
	}
	return doc
}

// Save serializes the document to path, replacing any previous snapshot. The
// write goes through a temp file and rename so a crash mid-write never
// leaves a truncated snapshot behind.
func Save(path string, doc state.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
