package state

import "encoding/json"

// Entity types recognized by the board. The store treats every other field
// generically; game rules live in the clients.
const (
	EntityTypePlayer = "player"
	EntityTypeEnemy  = "enemy"
)

// Entity is a token on the board: a player character, monster, or NPC.
type Entity struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	HP             int             `json:"hp"`
	MaxHP          int             `json:"maxHp"`
	ArmorClass     int             `json:"armorClass"`
	X              int             `json:"x"`
	Y              int             `json:"y"`
	Rotation       float64         `json:"rotation"`
	Mirrored       bool            `json:"mirrored"`
	Conditions     []string        `json:"conditions"`
	Color          string          `json:"color"`
	Type           string          `json:"type"`
	Portrait       string          `json:"portrait,omitempty"`
	StatBlock      json.RawMessage `json:"statBlock,omitempty"`
	SizeMultiplier float64         `json:"sizeMultiplier,omitempty"`
	XP             int             `json:"xp,omitempty"`
	Level          int             `json:"level,omitempty"`
}

// EntityPatch carries a partial entity update. Nil fields are left untouched
// so character-sheet edits merge instead of replacing the whole token.
type EntityPatch struct {
	Name           *string          `json:"name,omitempty"`
	HP             *int             `json:"hp,omitempty"`
	MaxHP          *int             `json:"maxHp,omitempty"`
	ArmorClass     *int             `json:"armorClass,omitempty"`
	X              *int             `json:"x,omitempty"`
	Y              *int             `json:"y,omitempty"`
	Rotation       *float64         `json:"rotation,omitempty"`
	Mirrored       *bool            `json:"mirrored,omitempty"`
	Conditions     *[]string        `json:"conditions,omitempty"`
	Color          *string          `json:"color,omitempty"`
	Type           *string          `json:"type,omitempty"`
	Portrait       *string          `json:"portrait,omitempty"`
	StatBlock      *json.RawMessage `json:"statBlock,omitempty"`
	SizeMultiplier *float64         `json:"sizeMultiplier,omitempty"`
	XP             *int             `json:"xp,omitempty"`
	Level          *int             `json:"level,omitempty"`
}

// Empty reports whether the patch sets no fields.
func (p EntityPatch) Empty() bool {
	return p == EntityPatch{}
}

func (e *Entity) apply(p EntityPatch) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.HP != nil {
		e.HP = *p.HP
	}
	if p.MaxHP != nil {
		e.MaxHP = *p.MaxHP
	}
	if p.ArmorClass != nil {
		e.ArmorClass = *p.ArmorClass
	}
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Rotation != nil {
		e.Rotation = *p.Rotation
	}
	if p.Mirrored != nil {
		e.Mirrored = *p.Mirrored
	}
	if p.Conditions != nil {
		e.Conditions = append([]string(nil), (*p.Conditions)...)
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Portrait != nil {
		e.Portrait = *p.Portrait
	}
	if p.StatBlock != nil {
		e.StatBlock = append(json.RawMessage(nil), (*p.StatBlock)...)
	}
	if p.SizeMultiplier != nil {
		e.SizeMultiplier = *p.SizeMultiplier
	}
	if p.XP != nil {
		e.XP = *p.XP
	}
	if p.Level != nil {
		e.Level = *p.Level
	}
}

// Monster is a host-created preset that can be stamped onto any map.
type Monster struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	HP             int             `json:"hp"`
	MaxHP          int             `json:"maxHp"`
	ArmorClass     int             `json:"armorClass"`
	Color          string          `json:"color,omitempty"`
	Portrait       string          `json:"portrait,omitempty"`
	StatBlock      json.RawMessage `json:"statBlock,omitempty"`
	SizeMultiplier float64         `json:"sizeMultiplier,omitempty"`
}

// ChatMessage is one entry in the session chat log.
type ChatMessage struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
	Kind   string `json:"kind,omitempty"`
	SentAt string `json:"sentAt"`
}

// Chat message kinds.
const (
	ChatKindText   = "text"
	ChatKindSystem = "system"
	ChatKindDice   = "dice"
)

// InitiativeEntry is one row of the combat turn order.
type InitiativeEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}
