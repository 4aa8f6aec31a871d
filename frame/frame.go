// Package frame implements the per-room tick pipeline: the bounded
// pending-input buffer, the all-or-nothing commit policy, the forced
// timeout advance, and the 33.33 ms scheduler that drives them.
package frame

import (
	"time"

	"github.com/kongshan001/game-frame-sync/input"
)

// Frame is a single committed tick: the complete input set submitted
// by every player, or a force-completed one with zeroed gaps.
type Frame struct {
	FrameID   uint32
	Inputs    map[uint16]input.PlayerInput
	Confirmed bool
	Timestamp time.Time
}

// IsComplete reports whether every expected player has an input in
// this frame.
func (f *Frame) IsComplete(playerCount int) bool {
	return len(f.Inputs) == playerCount
}
