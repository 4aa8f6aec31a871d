// Package room implements the room and connection manager of
// spec.md §4.7/§4.9: admission, membership, the per-room tick
// pipeline, reconnect/catch-up, and best-effort broadcast.
package room

import (
	"time"

	"github.com/google/uuid"

	"github.com/kongshan001/game-frame-sync/transport/ws"
)

// ConnState mirrors spec.md §3's connection-record state machine.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateAuthed
	StateInGame
	StateReconnecting
	StateClosed
)

// Connection is the per-room record of a live member, shared by
// reference between the transport dispatcher and the owning room per
// spec.md §3's ownership note. Every field is touched only from the
// room's actor goroutine; callers outside it must go through Room's
// command API rather than mutate a Connection directly.
type Connection struct {
	PlayerID   string
	SessionID  string
	Slot       uint16
	Conn       ws.Conn
	LastRxTime time.Time
	SeqCounter uint64
	State      ConnState
	Broken     bool
}

// newConnection constructs a Connection record. SessionID is a fresh
// uuid distinct from the spec-mandated player_id, so a reconnecting
// player's old and new sockets can be told apart in logs even though
// they share the same player_id and room. The per-connection rate
// limiter (spec.md §4.7's "sliding-window counter per player_id")
// lives on the session side (session.go), not here: it must be
// checked by the goroutine reading off the socket before a message is
// ever enqueued to the room, not after.
func newConnection(playerID string, slot uint16, conn ws.Conn) *Connection {
	return &Connection{
		PlayerID:   playerID,
		SessionID:  uuid.NewString(),
		Slot:       slot,
		Conn:       conn,
		LastRxTime: time.Now(),
		State:      StateAuthed,
	}
}

// disconnectedRecord is retained in Room.disconnected for up to
// MaxDisconnectTime to allow a reconnect, per spec.md §4.7.
type disconnectedRecord struct {
	playerID       string
	slot           uint16
	lastFrame      uint32
	disconnectedAt time.Time
}
