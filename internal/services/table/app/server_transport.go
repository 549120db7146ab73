package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/net/websocket"

	platformid "github.com/louisbranch/mesa.live/internal/platform/id"
	"github.com/louisbranch/mesa.live/internal/platform/random"
	"github.com/louisbranch/mesa.live/internal/table/dice"
	"github.com/louisbranch/mesa.live/internal/table/snapshot"
	"github.com/louisbranch/mesa.live/internal/table/state"
)

const (
	// A full fog grid or a saved game rides in a single frame, so the cap is
	// far above chat-sized payloads.
	maxFramePayloadBytes   = 1 << 20
	maxFramesPerSecond     = 60
	maxDecodeErrorsPerConn = 3
)

// NewHandler creates the table routes: the /ws realtime endpoint and the
// /up health check.
func NewHandler(config Config) http.Handler {
	hub := newRoomHub(config.SnapshotDir, resolveLocale(config.Locale))
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, hub)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

// handleWSConn drives one connection: decode a frame, apply it to the room's
// store, emit the outbound event, then read the next frame. A handler never
// takes the process down; the worst outcome for bad input is a logged no-op,
// and a connection that keeps sending garbage is closed on its own.
func handleWSConn(conn *websocket.Conn, hub *roomHub) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	session := newWSSession(newWSPeer(json.NewEncoder(conn)))
	defer func() {
		if room := session.currentRoom(); room != nil {
			room.leave(session.peer)
		}
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			log.Printf("table: dropping undecodable frame: %v", err)
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			log.Printf("table: dropping oversized %q frame (%d bytes)", frame.Type, len(frame.Payload))
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			log.Printf("table: closing connection exceeding %d frames/s", maxFramesPerSecond)
			return
		}

		switch frame.Type {
		case "joinRoom":
			handleJoinRoom(session, hub, frame)
		case "checkExistingCharacter":
			handleCheckExistingCharacter(session, frame)
		case "changeMap":
			handleChangeMap(session, frame)
		case "saveGame":
			handleSaveGame(session, frame)
		case "updateGlobalBrightness":
			handleUpdateGlobalBrightness(session, frame)
		case "updateEntityPosition":
			handleUpdateEntityPosition(session, frame)
		case "updateEntityStatus":
			handleUpdateEntityStatus(session, frame)
		case "createEntity":
			handleCreateEntity(session, frame)
		case "deleteEntity":
			handleDeleteEntity(session, frame)
		case "updateFog":
			handleUpdateFog(session, frame)
		case "syncFogGrid":
			handleSyncFogGrid(session, frame)
		case "updateInitiative":
			handleUpdateInitiative(session, frame)
		case "sendMessage":
			handleSendMessage(session, frame)
		case "rollDice":
			handleRollDice(session, frame)
		case "triggerAudio":
			handleTriggerAudio(session, frame)
		case "syncMapState":
			handleSyncMapState(session, frame)
		default:
			log.Printf("table: ignoring unsupported frame type %q", frame.Type)
		}
	}
}

// decodeInto unmarshals an event payload, reducing malformed input to a
// logged no-op.
func decodeInto(frame wsFrame, target any) bool {
	if err := json.Unmarshal(frame.Payload, target); err != nil {
		log.Printf("table: invalid %q payload: %v", frame.Type, err)
		return false
	}
	return true
}

// joinedRoom resolves the session's room for events that need one.
func joinedRoom(session *wsSession, frame wsFrame) (*tableRoom, bool) {
	room := session.currentRoom()
	if room == nil {
		log.Printf("table: ignoring %q before joinRoom", frame.Type)
		return nil, false
	}
	return room, true
}

func handleJoinRoom(session *wsSession, hub *roomHub, frame wsFrame) {
	var payload joinRoomPayload
	if !decodeInto(frame, &payload) {
		return
	}
	roomID := strings.TrimSpace(payload.Room)
	if roomID == "" {
		log.Printf("table: joinRoom without a room id")
		return
	}

	room := hub.room(roomID)
	room.setLocale(payload.Locale)
	previous := session.setRoom(room)
	if previous != nil && previous != room {
		previous.leave(session.peer)
	}
	session.setName(strings.TrimSpace(payload.Name))
	room.join(session.peer)

	// The joining client reconciles from this full snapshot; everyone else
	// already has the state, so the sync goes to the sender alone.
	_ = session.peer.writeFrame(newFrame("gameStateSync", room.store.Snapshot()))
}

func handleCheckExistingCharacter(session *wsSession, frame wsFrame) {
	var payload checkCharacterPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		log.Printf("table: checkExistingCharacter without a name")
		return
	}

	if entity, found := room.store.FindPlayerByName(name); found {
		_ = session.peer.writeFrame(newFrame("characterFound", entity))
		return
	}
	_ = session.peer.writeFrame(newFrame("characterNotFound", characterNotFoundPayload{Name: name}))
}

func handleChangeMap(session *wsSession, frame wsFrame) {
	var payload changeMapPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	mapURL := strings.TrimSpace(payload.MapURL)
	if mapURL == "" {
		log.Printf("table: changeMap without a map reference")
		return
	}

	grid := room.store.SetMap(mapURL)
	// A new map is a shared fact: the sender sees the same confirmation as
	// everyone else, fresh fog included.
	room.broadcast(newFrame("mapChanged", mapChangedPayload{MapURL: mapURL, FogGrid: grid}), nil)
}

func handleSaveGame(session *wsSession, frame wsFrame) {
	var payload saveGamePayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.State == nil {
		log.Printf("table: saveGame without a state document")
		return
	}

	_, span := otel.Tracer("table").Start(context.Background(), "table.saveGame")
	defer span.End()

	room.store.Overwrite(*payload.State)
	if err := snapshot.Save(room.snapshotPath, room.store.Snapshot()); err != nil {
		// The in-memory overwrite stands; only the durable checkpoint failed.
		log.Printf("table: save room %s: %v", room.id, err)
		return
	}

	room.broadcast(newFrame("notification", notificationPayload{
		Message: saveConfirmationBody(room.currentLocale()),
	}), nil)
}

func handleUpdateGlobalBrightness(session *wsSession, frame wsFrame) {
	var payload brightnessPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.Value == nil {
		log.Printf("table: updateGlobalBrightness without a value")
		return
	}

	value := room.store.SetBrightness(*payload.Value)
	room.broadcast(newFrame("globalBrightnessUpdated", brightnessUpdatedPayload{Value: value}), nil)
}

func handleUpdateEntityPosition(session *wsSession, frame wsFrame) {
	var payload entityPositionPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.ID == "" || payload.X == nil || payload.Y == nil {
		log.Printf("table: updateEntityPosition missing id or coordinates")
		return
	}

	if !room.store.PatchEntity(payload.ID, state.EntityPatch{X: payload.X, Y: payload.Y}) {
		return
	}
	room.broadcast(newFrame("entityPositionUpdated", entityPositionUpdatedPayload{
		ID: payload.ID, X: *payload.X, Y: *payload.Y,
	}), session.peer)
}

func handleUpdateEntityStatus(session *wsSession, frame wsFrame) {
	var payload entityStatusPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.ID == "" {
		log.Printf("table: updateEntityStatus without an id")
		return
	}
	if payload.EntityPatch.Empty() {
		log.Printf("table: updateEntityStatus with no fields set")
		return
	}

	if !room.store.PatchEntity(payload.ID, payload.EntityPatch) {
		return
	}
	room.broadcast(newFrame("entityStatusUpdated", entityStatusUpdatedPayload{
		ID: payload.ID, EntityPatch: payload.EntityPatch,
	}), session.peer)
}

func handleCreateEntity(session *wsSession, frame wsFrame) {
	var payload createEntityPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.Entity == nil {
		log.Printf("table: createEntity without an entity")
		return
	}

	entity := *payload.Entity
	serverAssigned := false
	if entity.ID == "" {
		newID, err := platformid.NewID()
		if err != nil {
			log.Printf("table: assign entity id: %v", err)
			return
		}
		entity.ID = newID
		serverAssigned = true
	}

	// Creation is non-overwriting: a reconnecting client replaying its
	// create cannot clobber the entity that already landed.
	if !room.store.AddEntity(entity) {
		return
	}

	created := newFrame("entityCreated", entity)
	room.broadcast(created, session.peer)
	if serverAssigned {
		// The sender has no other way to learn the id the server minted.
		_ = session.peer.writeFrame(created)
	}
}

func handleDeleteEntity(session *wsSession, frame wsFrame) {
	var payload deleteEntityPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.ID == "" {
		log.Printf("table: deleteEntity without an id")
		return
	}

	if !room.store.RemoveEntity(payload.ID) {
		return
	}
	room.broadcast(newFrame("entityDeleted", entityDeletedPayload{ID: payload.ID}), session.peer)
}

func handleUpdateFog(session *wsSession, frame wsFrame) {
	var payload updateFogPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.X == nil || payload.Y == nil {
		log.Printf("table: updateFog missing coordinates")
		return
	}

	if !room.store.SetFogCell(*payload.X, *payload.Y, payload.Visible) {
		return
	}
	room.broadcast(newFrame("fogUpdated", fogUpdatedPayload{
		X: *payload.X, Y: *payload.Y, Visible: payload.Visible,
	}), session.peer)
}

func handleSyncFogGrid(session *wsSession, frame wsFrame) {
	var payload syncFogGridPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if payload.Grid == nil {
		log.Printf("table: syncFogGrid without a grid")
		return
	}

	grid := room.store.ReplaceFogGrid(payload.Grid)
	room.broadcast(newFrame("fogGridSynced", fogGridSyncedPayload{Grid: grid}), session.peer)
}

func handleUpdateInitiative(session *wsSession, frame wsFrame) {
	var payload initiativePayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}

	room.store.SetInitiative(payload.List, payload.ActiveTurnID)
	room.broadcast(newFrame("initiativeUpdated", initiativeUpdatedPayload{
		List: payload.List, ActiveTurnID: payload.ActiveTurnID,
	}), session.peer)
}

func handleSendMessage(session *wsSession, frame wsFrame) {
	var payload sendMessagePayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	body := strings.TrimSpace(payload.Body)
	if body == "" {
		log.Printf("table: sendMessage without a body")
		return
	}
	author := strings.TrimSpace(payload.Author)
	if author == "" {
		author = session.currentName()
	}

	message := state.ChatMessage{
		ID:     fmt.Sprintf("msg_%d", time.Now().UnixNano()),
		Author: author,
		Body:   body,
		Kind:   state.ChatKindText,
		SentAt: time.Now().UTC().Format(time.RFC3339),
	}
	room.store.AppendChat(message)
	room.broadcast(newFrame("chatMessage", message), nil)
}

func handleRollDice(session *wsSession, frame wsFrame) {
	var payload rollDicePayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}

	seed, err := random.NewSeed()
	if err != nil {
		log.Printf("table: seed dice roll: %v", err)
		return
	}
	result, err := dice.RollDice(dice.RollRequest{Dice: payload.Dice, Seed: seed})
	if err != nil {
		log.Printf("table: invalid dice roll: %v", err)
		return
	}

	author := strings.TrimSpace(payload.Author)
	if author == "" {
		author = session.currentName()
	}
	// Rolls are ephemeral shared facts: everyone, the roller included, sees
	// the same result, and nothing lands in the session state.
	room.broadcast(newFrame("newDiceResult", diceResultPayload{
		Author: author, Rolls: result.Rolls, Total: result.Total,
	}), nil)
}

func handleTriggerAudio(session *wsSession, frame wsFrame) {
	var payload triggerAudioPayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}
	if strings.TrimSpace(payload.Track) == "" {
		log.Printf("table: triggerAudio without a track")
		return
	}

	room.broadcast(newFrame("triggerAudio", audioTriggeredPayload{
		Track: payload.Track, Loop: payload.Loop, Gain: payload.Gain,
	}), nil)
}

func handleSyncMapState(session *wsSession, frame wsFrame) {
	var payload mapStatePayload
	if !decodeInto(frame, &payload) {
		return
	}
	room, ok := joinedRoom(session, frame)
	if !ok {
		return
	}

	// Pan and zoom are never persisted; the event only keeps viewports loosely
	// aligned.
	room.broadcast(newFrame("mapStateUpdated", mapStateUpdatedPayload{
		X: payload.X, Y: payload.Y, Scale: payload.Scale,
	}), session.peer)
}
