package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/louisbranch/mesa.live/internal/table/fog"
	"github.com/louisbranch/mesa.live/internal/table/state"
)

func snapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	doc := Load(snapshotPath(t))

	if len(doc.Entities) != 0 {
		t.Fatalf("expected empty entities, got %d", len(doc.Entities))
	}
	if !fog.Valid(doc.FogGrid) {
		t.Fatal("expected valid default fog grid")
	}
	if doc.GlobalBrightness != state.DefaultBrightness {
		t.Fatalf("expected default brightness, got %v", doc.GlobalBrightness)
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	path := snapshotPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}

	doc := Load(path)
	if !fog.Valid(doc.FogGrid) {
		t.Fatal("expected default fog grid after corrupt load")
	}
	if len(doc.ChatHistory) != 0 {
		t.Fatal("expected empty chat history after corrupt load")
	}
}

func TestLoadShortFogGridIsRegenerated(t *testing.T) {
	path := snapshotPath(t)
	raw := map[string]any{
		"entities":         []any{},
		"fogGrid":          [][]bool{{true, true}, {true, false}},
		"currentMap":       "/maps/caverna.jpg",
		"initiativeList":   []any{},
		"activeTurnId":     "",
		"chatHistory":      []any{},
		"customMonsters":   []any{},
		"globalBrightness": 0.5,
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	doc := Load(path)
	if len(doc.FogGrid) != fog.Rows {
		t.Fatalf("expected regenerated grid with %d rows, got %d", fog.Rows, len(doc.FogGrid))
	}
	if doc.FogGrid.At(0, 0) {
		t.Fatal("expected regenerated grid fully hidden")
	}
	if doc.CurrentMap != "/maps/caverna.jpg" {
		t.Fatal("expected other fields to survive the fog repair")
	}
	if doc.GlobalBrightness != 0.5 {
		t.Fatalf("expected explicit brightness preserved, got %v", doc.GlobalBrightness)
	}
}

func TestLoadBackFillsNewerFields(t *testing.T) {
	path := snapshotPath(t)
	// A snapshot written before custom monsters and brightness existed.
	raw := map[string]any{
		"entities":       []any{map[string]any{"id": "7", "name": "Aria", "type": "player"}},
		"fogGrid":        fog.NewGrid(),
		"currentMap":     "/maps/taverna.jpg",
		"initiativeList": []any{},
		"activeTurnId":   "",
		"chatHistory":    []any{},
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	doc := Load(path)
	if doc.CustomMonsters == nil || len(doc.CustomMonsters) != 0 {
		t.Fatal("expected custom monsters back-filled to empty")
	}
	if doc.GlobalBrightness != state.DefaultBrightness {
		t.Fatalf("expected brightness back-filled to %v, got %v", state.DefaultBrightness, doc.GlobalBrightness)
	}
	if len(doc.Entities) != 1 || doc.Entities[0].Name != "Aria" {
		t.Fatalf("expected entities preserved, got %+v", doc.Entities)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := snapshotPath(t)

	doc := state.DefaultDocument()
	doc.Entities = []state.Entity{{
		ID: "7", Name: "Aria", HP: 9, MaxHP: 12, ArmorClass: 15,
		X: 3, Y: 4, Rotation: 90, Mirrored: true,
		Conditions: []string{"poisoned"}, Color: "#aa33ff",
		Type: state.EntityTypePlayer, Portrait: "/portraits/aria.png",
		SizeMultiplier: 1.5, XP: 300, Level: 3,
	}}
	doc.FogGrid.Set(10, 20, true)
	doc.CurrentMap = "/maps/caverna.jpg"
	doc.InitiativeList = []state.InitiativeEntry{{ID: "7", Name: "Aria", Value: 17}}
	doc.ActiveTurnID = "7"
	doc.ChatHistory = []state.ChatMessage{{ID: "m1", Author: "Aria", Body: "hello", SentAt: "2026-09-01T10:00:00Z"}}
	doc.CustomMonsters = []state.Monster{{ID: "g1", Name: "Goblin", HP: 7, MaxHP: 7, ArmorClass: 13}}
	doc.GlobalBrightness = 0.25

	if err := Save(path, doc); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded := Load(path)
	if !reflect.DeepEqual(loaded, doc) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, doc)
	}
}

func TestSavedSnapshotIsPrettyPrinted(t *testing.T) {
	path := snapshotPath(t)
	if err := Save(path, state.DefaultDocument()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if data[0] != '{' || data[len(data)-1] != '\n' {
		t.Fatal("expected a JSON object with trailing newline")
	}
	if !strings.Contains(string(data), "\n  \"entities\": []") {
		t.Fatalf("expected indented entities field, got:\n%s", data)
	}
}
