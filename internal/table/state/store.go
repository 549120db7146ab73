// Package state owns the canonical session state for one table room.
//
// The store is the single writer boundary: connected clients hold disposable
// local copies reconciled from broadcast events, and every mutation flows
// through a store method. Methods report what changed so the caller can
// decide whether a broadcast is due.
package state

import (
	"strings"
	"sync"

	"github.com/louisbranch/mesa.live/internal/table/fog"
)

// Store holds the canonical SessionState for one room. One store exists per
// room and lives for the process lifetime; rooms never share a store.
type Store struct {
	mu  sync.Mutex
	doc Document
}

// NewStore wraps a loaded document. The document is normalized so a
// hand-edited or partial snapshot cannot violate store invariants.
func NewStore(doc Document) *Store {
	doc.Normalize()
	return &Store{doc: doc}
}

// Snapshot returns a deep copy of the current state for full-state syncs and
// persistence. Callers may keep or mutate the copy freely.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Overwrite replaces every top-level field with the supplied document, used
// when the host saves the whole game. Missing newer fields arrive already
// back-filled by Document unmarshalling; Normalize covers direct callers.
func (s *Store) Overwrite(doc Document) {
	doc.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

// AddEntity inserts a new entity and reports whether it landed. Creation is
// non-overwriting: a duplicate id is a benign race (a reconnecting client
// replaying its create) and leaves the existing entity untouched.
func (s *Store) AddEntity(e Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.doc.Entities {
		if existing.ID == e.ID {
			return false
		}
	}
	s.doc.Entities = append(s.doc.Entities, cloneEntity(e))
	return true
}

// PatchEntity shallow-merges the set fields of the patch into the matching
// entity. Unknown ids are a no-op.
func (s *Store) PatchEntity(id string, p EntityPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Entities {
		if s.doc.Entities[i].ID == id {
			s.doc.Entities[i].apply(p)
			return true
		}
	}
	return false
}

// RemoveEntity deletes the matching entity. Unknown ids are a no-op.
func (s *Store) RemoveEntity(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Entities {
		if s.doc.Entities[i].ID == id {
			s.doc.Entities = append(s.doc.Entities[:i], s.doc.Entities[i+1:]...)
			return true
		}
	}
	return false
}

// Entity looks up an entity by id.
func (s *Store) Entity(id string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.doc.Entities {
		if e.ID == id {
			return cloneEntity(e), true
		}
	}
	return Entity{}, false
}

// FindPlayerByName looks up a player-type entity by case-insensitive name,
// used when a returning player reclaims their character.
func (s *Store) FindPlayerByName(name string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.doc.Entities {
		if e.Type == EntityTypePlayer && strings.EqualFold(e.Name, name) {
			return cloneEntity(e), true
		}
	}
	return Entity{}, false
}

// SetFogCell writes one fog cell and reports whether the write landed.
// Out-of-range coordinates are silently ignored.
func (s *Store) SetFogCell(x, y int, visible bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.FogGrid.Set(x, y, visible)
}

// ReplaceFogGrid swaps in a full grid for a resync. It returns a detached
// copy for the broadcast payload; the caller must not reuse g afterwards.
func (s *Store) ReplaceFogGrid(g fog.Grid) fog.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.FogGrid = g
	return s.doc.FogGrid.Clone()
}

// SetMap switches the active background and resets the fog to fully hidden.
// It returns the fresh grid for the broadcast payload.
func (s *Store) SetMap(ref string) fog.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.CurrentMap = ref
	s.doc.FogGrid = fog.NewGrid()
	return s.doc.FogGrid.Clone()
}

// AppendChat appends a message and evicts the oldest entries beyond the cap.
func (s *Store) AppendChat(msg ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ChatHistory = append(s.doc.ChatHistory, msg)
	if len(s.doc.ChatHistory) > ChatLimit {
		s.doc.ChatHistory = s.doc.ChatHistory[len(s.doc.ChatHistory)-ChatLimit:]
	}
}

// SetInitiative replaces the turn order and the active turn together. The
// pair is atomic so clients never observe a list without its cursor.
func (s *Store) SetInitiative(list []InitiativeEntry, activeTurnID string) {
	if list == nil {
		list = []InitiativeEntry{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.InitiativeList = list
	s.doc.ActiveTurnID = activeTurnID
}

// SetBrightness sets the ambient light level, clamped to [0, 1].
func (s *Store) SetBrightness(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.GlobalBrightness = v
	return v
}
