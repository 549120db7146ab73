package server

import (
	"encoding/json"
	"log"

	"github.com/louisbranch/mesa.live/internal/table/dice"
	"github.com/louisbranch/mesa.live/internal/table/fog"
	"github.com/louisbranch/mesa.live/internal/table/state"
)

// wsFrame is the envelope every event travels in, inbound and outbound.
type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payloads. Every event that targets a session carries the room id.
// Required fields that Go zero values cannot distinguish from "absent" are
// pointers so a malformed payload is rejected instead of half-applied.

type joinRoomPayload struct {
	Room   string `json:"room"`
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

type checkCharacterPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type changeMapPayload struct {
	Room   string `json:"room"`
	MapURL string `json:"mapUrl"`
}

type saveGamePayload struct {
	Room  string          `json:"room"`
	State *state.Document `json:"state"`
}

type brightnessPayload struct {
	Room  string   `json:"room"`
	Value *float64 `json:"value"`
}

type entityPositionPayload struct {
	Room string `json:"room"`
	ID   string `json:"id"`
	X    *int   `json:"x"`
	Y    *int   `json:"y"`
}

type entityStatusPayload struct {
	Room string `json:"room"`
	ID   string `json:"id"`
	state.EntityPatch
}

type createEntityPayload struct {
	Room   string        `json:"room"`
	Entity *state.Entity `json:"entity"`
}

type deleteEntityPayload struct {
	Room string `json:"room"`
	ID   string `json:"id"`
}

type updateFogPayload struct {
	Room    string `json:"room"`
	X       *int   `json:"x"`
	Y       *int   `json:"y"`
	Visible bool   `json:"visible"`
}

type syncFogGridPayload struct {
	Room string   `json:"room"`
	Grid fog.Grid `json:"grid"`
}

type initiativePayload struct {
	Room         string                  `json:"room"`
	List         []state.InitiativeEntry `json:"list"`
	ActiveTurnID string                  `json:"activeTurnId"`
}

type sendMessagePayload struct {
	Room   string `json:"room"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

type rollDicePayload struct {
	Room   string          `json:"room"`
	Author string          `json:"author"`
	Dice   []dice.DiceSpec `json:"dice"`
}

type triggerAudioPayload struct {
	Room  string  `json:"room"`
	Track string  `json:"track"`
	Loop  bool    `json:"loop,omitempty"`
	Gain  float64 `json:"gain,omitempty"`
}

type mapStatePayload struct {
	Room  string  `json:"room"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Outbound payloads.

type characterNotFoundPayload struct {
	Name string `json:"name"`
}

type mapChangedPayload struct {
	MapURL  string   `json:"mapUrl"`
	FogGrid fog.Grid `json:"fogGrid"`
}

type notificationPayload struct {
	Message string `json:"message"`
}

type brightnessUpdatedPayload struct {
	Value float64 `json:"value"`
}

type entityPositionUpdatedPayload struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

type entityStatusUpdatedPayload struct {
	ID string `json:"id"`
	state.EntityPatch
}

type entityDeletedPayload struct {
	ID string `json:"id"`
}

type fogUpdatedPayload struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Visible bool `json:"visible"`
}

type fogGridSyncedPayload struct {
	Grid fog.Grid `json:"grid"`
}

type initiativeUpdatedPayload struct {
	List         []state.InitiativeEntry `json:"list"`
	ActiveTurnID string                  `json:"activeTurnId"`
}

type diceResultPayload struct {
	Author string         `json:"author"`
	Rolls  []dice.DieRoll `json:"rolls"`
	Total  int            `json:"total"`
}

type audioTriggeredPayload struct {
	Track string  `json:"track"`
	Loop  bool    `json:"loop,omitempty"`
	Gain  float64 `json:"gain,omitempty"`
}

type mapStateUpdatedPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

func newFrame(eventType string, payload any) wsFrame {
	return wsFrame{Type: eventType, Payload: mustJSON(payload)}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
