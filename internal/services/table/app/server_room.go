package server

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"golang.org/x/text/language"

	platformi18n "github.com/louisbranch/mesa.live/internal/platform/i18n"
	"github.com/louisbranch/mesa.live/internal/table/snapshot"
	"github.com/louisbranch/mesa.live/internal/table/state"
)

// wsPeer serializes frame writes for one connection. The encoder is shared
// between the connection's own read loop and broadcasts from other peers.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// wsSession tracks which room a connection has joined.
type wsSession struct {
	mu   sync.Mutex
	name string
	room *tableRoom
	peer *wsPeer
}

func newWSSession(peer *wsPeer) *wsSession {
	return &wsSession{peer: peer}
}

func (s *wsSession) setRoom(next *tableRoom) *tableRoom {
	s.mu.Lock()
	previous := s.room
	s.room = next
	s.mu.Unlock()
	return previous
}

func (s *wsSession) currentRoom() *tableRoom {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	return room
}

func (s *wsSession) setName(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *wsSession) currentName() string {
	s.mu.Lock()
	name := s.name
	s.mu.Unlock()
	return name
}

// roomHub is the connection registry: it maps room ids to live rooms and
// creates rooms on first join, loading their snapshot from disk.
type roomHub struct {
	mu          sync.Mutex
	rooms       map[string]*tableRoom
	snapshotDir string
	locale      language.Tag
}

func newRoomHub(snapshotDir string, locale language.Tag) *roomHub {
	return &roomHub{
		rooms:       make(map[string]*tableRoom),
		snapshotDir: snapshotDir,
		locale:      locale,
	}
}

func (h *roomHub) room(roomID string) *tableRoom {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if ok {
		return room
	}

	room = newTableRoom(roomID, filepath.Join(h.snapshotDir, roomID+".json"), h.locale)
	h.rooms[roomID] = room
	return room
}

// tableRoom owns the canonical state for one session and the set of
// connections that receive its broadcasts. The store is the single mutation
// point; the room only adds membership and fan-out.
type tableRoom struct {
	mu           sync.Mutex
	id           string
	snapshotPath string
	locale       language.Tag
	store        *state.Store
	subscribers  map[*wsPeer]struct{}
}

func newTableRoom(id, snapshotPath string, locale language.Tag) *tableRoom {
	return &tableRoom{
		id:           id,
		snapshotPath: snapshotPath,
		locale:       locale,
		store:        state.NewStore(snapshot.Load(snapshotPath)),
		subscribers:  make(map[*wsPeer]struct{}),
	}
}

func (r *tableRoom) join(peer *wsPeer) {
	r.mu.Lock()
	r.subscribers[peer] = struct{}{}
	r.mu.Unlock()
}

func (r *tableRoom) leave(peer *wsPeer) {
	r.mu.Lock()
	delete(r.subscribers, peer)
	r.mu.Unlock()
}

func (r *tableRoom) setLocale(value string) {
	if value == "" {
		return
	}
	tag, ok := platformi18n.ParseTag(value)
	if !ok {
		return
	}
	r.mu.Lock()
	r.locale = tag
	r.mu.Unlock()
}

func (r *tableRoom) currentLocale() language.Tag {
	r.mu.Lock()
	locale := r.locale
	r.mu.Unlock()
	return locale
}

// broadcast fans a frame out to the room. A nil exclude reaches everyone;
// otherwise the originating peer is skipped.
func (r *tableRoom) broadcast(frame wsFrame, exclude *wsPeer) {
	r.mu.Lock()
	peers := make([]*wsPeer, 0, len(r.subscribers))
	for peer := range r.subscribers {
		if peer == exclude {
			continue
		}
		peers = append(peers, peer)
	}
	r.mu.Unlock()

	for _, peer := range peers {
		_ = peer.writeFrame(frame)
	}
}
