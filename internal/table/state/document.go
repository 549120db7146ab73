package state

import (
	"encoding/json"

	"github.com/louisbranch/mesa.live/internal/table/fog"
)

// ChatLimit caps the chat log; older entries are evicted first.
const ChatLimit = 50

// DefaultBrightness is the ambient light level for a fresh session (full day).
const DefaultBrightness = 1.0

// Document is the full session state as persisted in the snapshot file and
// carried by full-state sync events. Field names are stable: operators diff
// the pretty-printed snapshot and older hosts keep sending documents without
// the newer fields.
type Document struct {
	Entities         []Entity          `json:"entities"`
	FogGrid          fog.Grid          `json:"fogGrid"`
	CurrentMap       string            `json:"currentMap"`
	InitiativeList   []InitiativeEntry `json:"initiativeList"`
	ActiveTurnID     string            `json:"activeTurnId"`
	ChatHistory      []ChatMessage     `json:"chatHistory"`
	CustomMonsters   []Monster         `json:"customMonsters"`
	GlobalBrightness float64           `json:"globalBrightness"`
}

// DefaultDocument returns the state of a brand-new session: empty board,
// fully hidden fog, daylight.
func DefaultDocument() Document {
	return Document{
		Entities:         []Entity{},
		FogGrid:          fog.NewGrid(),
		InitiativeList:   []InitiativeEntry{},
		ChatHistory:      []ChatMessage{},
		CustomMonsters:   []Monster{},
		GlobalBrightness: DefaultBrightness,
	}
}

// UnmarshalJSON back-fills fields that older documents omit: customMonsters
// defaults to empty and globalBrightness to full daylight. A brightness of 0
// written explicitly (pitch dark) survives the round trip.
func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	aux := struct {
		*alias
		GlobalBrightness *float64 `json:"globalBrightness"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.GlobalBrightness != nil {
		d.GlobalBrightness = *aux.GlobalBrightness
	} else {
		d.GlobalBrightness = DefaultBrightness
	}
	if d.CustomMonsters == nil {
		d.CustomMonsters = []Monster{}
	}
	return nil
}

// Normalize repairs a document in place so it satisfies the store's
// invariants, and reports whether the fog grid had to be regenerated.
func (d *Document) Normalize() (fogReset bool) {
	if d.Entities == nil {
		d.Entities = []Entity{}
	}
	if d.InitiativeList == nil {
		d.InitiativeList = []InitiativeEntry{}
	}
	if d.ChatHistory == nil {
		d.ChatHistory = []ChatMessage{}
	}
	if len(d.ChatHistory) > ChatLimit {
		d.ChatHistory = d.ChatHistory[len(d.ChatHistory)-ChatLimit:]
	}
	if d.CustomMonsters == nil {
		d.CustomMonsters = []Monster{}
	}
	if !fog.Valid(d.FogGrid) {
		d.FogGrid = fog.NewGrid()
		fogReset = true
	}
	return fogReset
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	clone := d
	clone.Entities = make([]Entity, len(d.Entities))
	for i, e := range d.Entities {
		clone.Entities[i] = cloneEntity(e)
	}
	clone.FogGrid = d.FogGrid.Clone()
	clone.InitiativeList = make([]InitiativeEntry, len(d.InitiativeList))
	copy(clone.InitiativeList, d.InitiativeList)
	clone.ChatHistory = make([]ChatMessage, len(d.ChatHistory))
	copy(clone.ChatHistory, d.ChatHistory)
	clone.CustomMonsters = make([]Monster, len(d.CustomMonsters))
	for i, m := range d.CustomMonsters {
		clone.CustomMonsters[i] = cloneMonster(m)
	}
	return clone
}

func cloneEntity(e Entity) Entity {
	e.Conditions = append([]string(nil), e.Conditions...)
	e.StatBlock = append(json.RawMessage(nil), e.StatBlock...)
	return e
}

func cloneMonster(m Monster) Monster {
	m.StatBlock = append(json.RawMessage(nil), m.StatBlock...)
	return m
}
