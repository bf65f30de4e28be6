// Package protocol encodes and decodes the wire frames exchanged with a
// connected client: JSON text frames in both directions for control
// traffic, and a MessagePack binary frame for the high-frequency
// server-to-client batch update (spec §6).
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"snowfight/internal/object"
)

// Message types recognized on inbound frames.
const (
	TypePing     = "ping"
	TypeJoin     = "join"
	TypeMovement = "movement"
)

// Object type tags on an inbound movement frame.
const (
	ObjectTypePlayer   = "player"
	ObjectTypeSnowball = "snowball"
)

// Outbound message type tags.
const (
	MessageTypePong        = "pong"
	MessageTypeHit         = "hit"
	MessageTypeBatchUpdate = "batch_update"
)

// envelope is decoded first to route by "type" before the full payload
// is parsed into its concrete shape.
type envelope struct {
	Type       string `json:"type"`
	ObjectType string `json:"objectType"`
}

// PeekType sniffs the message type without a full decode. It also
// implements the fast-path ping detection from spec §4.D: a raw frame
// containing the literal token "ping" may be routed as a ping before a
// full decode, as a latency optimization whose absence never changes
// correctness.
func PeekType(raw []byte) (msgType, objectType string, err error) {
	if bytes.Contains(raw, []byte(`"type":"ping"`)) {
		return TypePing, "", nil
	}
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", "", fmt.Errorf("protocol: decode envelope: %w", err)
	}
	return e.Type, e.ObjectType, nil
}

// Point is the {x,y} shape shared by position and velocity fields.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ping is the inbound {type:"ping", clientTime}.
type Ping struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"clientTime"`
}

// DecodePing decodes an inbound ping frame.
func DecodePing(raw []byte) (Ping, error) {
	var p Ping
	if err := json.Unmarshal(raw, &p); err != nil {
		return Ping{}, fmt.Errorf("protocol: decode ping: %w", err)
	}
	return p, nil
}

// Join is the inbound join frame. DecodeJoin fills in the spec §6
// defaults for optional fields, so a decoded Join carries no "omitted"
// marker visible to callers.
type Join struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Position   Point   `json:"position"`
	Health     int     `json:"health"`
	Size       float64 `json:"size"`
	TimeUpdate int64   `json:"timeUpdate"`

	hasUsername bool
	hasHealth   bool
	hasSize     bool
}

// DecodeJoin decodes an inbound join frame and applies §6's defaults
// itself: username["unknown"] when absent or empty, health[100] when
// absent, size[20] when absent or zero; an absent timeUpdate stays 0.
func DecodeJoin(raw []byte) (Join, error) {
	var j Join
	if err := json.Unmarshal(raw, &j); err != nil {
		return Join{}, fmt.Errorf("protocol: decode join: %w", err)
	}

	var probe map[string]json.RawMessage
	_ = json.Unmarshal(raw, &probe)
	_, j.hasUsername = probe["username"]
	_, j.hasHealth = probe["health"]
	_, j.hasSize = probe["size"]

	if !j.hasUsername || j.Username == "" {
		j.Username = object.DefaultUsername
	}
	if !j.hasHealth {
		j.Health = object.DefaultPlayerHealth
	}
	if !j.hasSize || j.Size == 0 {
		j.Size = object.DefaultPlayerSize
	}
	return j, nil
}

// DirectionPayload is the boolean direction set on a player movement
// frame.
type DirectionPayload struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Up    bool `json:"up"`
	Down  bool `json:"down"`
}

// PlayerMovement is the inbound player movement frame. Exactly one of
// Direction or Position is populated (spec §4.D and §9 open question:
// both movement modes are admitted).
type PlayerMovement struct {
	Type       string            `json:"type"`
	ObjectType string            `json:"objectType"`
	ID         string            `json:"id"`
	TimeUpdate int64             `json:"timeUpdate"`
	Direction  *DirectionPayload `json:"direction,omitempty"`
	Position   *Point            `json:"position,omitempty"`
}

// DecodePlayerMovement decodes an inbound player movement frame.
func DecodePlayerMovement(raw []byte) (PlayerMovement, error) {
	var m PlayerMovement
	if err := json.Unmarshal(raw, &m); err != nil {
		return PlayerMovement{}, fmt.Errorf("protocol: decode player movement: %w", err)
	}
	return m, nil
}

// SnowballMovement is the inbound snowball movement frame.
type SnowballMovement struct {
	Type       string  `json:"type"`
	ObjectType string  `json:"objectType"`
	ID         string  `json:"id"`
	Position   Point   `json:"position"`
	Velocity   Point   `json:"velocity"`
	Size       float64 `json:"size"`
	Damage     int     `json:"damage"`
	Charging   bool    `json:"charging"`
	LifeLength int64   `json:"lifeLength"`
	TimeUpdate int64   `json:"timeUpdate"`
}

// DecodeSnowballMovement decodes an inbound snowball movement frame.
func DecodeSnowballMovement(raw []byte) (SnowballMovement, error) {
	var m SnowballMovement
	if err := json.Unmarshal(raw, &m); err != nil {
		return SnowballMovement{}, fmt.Errorf("protocol: decode snowball movement: %w", err)
	}
	return m, nil
}

// Pong is the outbound {messageType:"pong", serverTime, clientTime},
// sent as a JSON text frame.
type Pong struct {
	MessageType string `json:"messageType"`
	ServerTime  int64  `json:"serverTime"`
	ClientTime  int64  `json:"clientTime"`
}

// EncodePong builds the JSON bytes for a pong reply.
func EncodePong(serverTime, clientTime int64) ([]byte, error) {
	return json.Marshal(Pong{MessageType: MessageTypePong, ServerTime: serverTime, ClientTime: clientTime})
}

// ObjectRecord is the outbound per-object record shared by the Hit frame
// and every entry in a batch update (spec §6).
type ObjectRecord struct {
	ID          string  `json:"id" msgpack:"id"`
	ObjectType  string  `json:"objectType" msgpack:"objectType"`
	Username    string  `json:"username" msgpack:"username"`
	Position    Point   `json:"position" msgpack:"position"`
	Velocity    Point   `json:"velocity" msgpack:"velocity"`
	Size        float64 `json:"size" msgpack:"size"`
	Charging    bool    `json:"charging" msgpack:"charging"`
	ExpireDate  int64   `json:"expireDate" msgpack:"expireDate"`
	IsDead      bool    `json:"isDead" msgpack:"isDead"`
	TimeUpdate  int64   `json:"timeUpdate" msgpack:"timeUpdate"`
	NewHealth   int     `json:"newHealth" msgpack:"newHealth"`
}

// RecordFromSnapshot converts an object.Snapshot (already projected to a
// given now) into the wire record shape.
func RecordFromSnapshot(s object.Snapshot) ObjectRecord {
	return ObjectRecord{
		ID:         s.ID,
		ObjectType: s.Kind.String(),
		Username:   s.Username,
		Position:   Point{X: s.X, Y: s.Y},
		Velocity:   Point{X: s.VX, Y: s.VY},
		Size:       s.Size,
		Charging:   s.Charging,
		ExpireDate: s.ExpireAtMs,
		IsDead:     s.IsDead,
		TimeUpdate: s.TimeUpdateMs,
		NewHealth:  s.Health,
	}
}

// Hit is the outbound hit frame: one ObjectRecord plus the "hit"
// message-type tag, sent as a JSON text frame.
type Hit struct {
	MessageType string `json:"messageType"`
	ObjectRecord
}

// EncodeHit builds the JSON bytes for a hit frame.
func EncodeHit(s object.Snapshot) ([]byte, error) {
	return json.Marshal(Hit{MessageType: MessageTypeHit, ObjectRecord: RecordFromSnapshot(s)})
}

// BatchUpdate is the outbound batch update frame, sent as a binary
// MessagePack frame once per view tick per connection.
type BatchUpdate struct {
	MessageType string         `msgpack:"messageType"`
	Timestamp   int64          `msgpack:"timestamp"`
	Updates     []ObjectRecord `msgpack:"updates"`
}

// EncodeBatchUpdate builds the MessagePack bytes for a batch update
// frame from a set of already-projected snapshots.
func EncodeBatchUpdate(timestamp int64, snapshots []object.Snapshot) ([]byte, error) {
	updates := make([]ObjectRecord, len(snapshots))
	for i, s := range snapshots {
		updates[i] = RecordFromSnapshot(s)
	}
	b := BatchUpdate{MessageType: MessageTypeBatchUpdate, Timestamp: timestamp, Updates: updates}
	out, err := msgpack.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode batch_update: %w", err)
	}
	return out, nil
}
