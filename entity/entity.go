// Package entity implements the deterministic entity/physics substrate:
// fixed-point entities laid out in world space, a per-tick
// velocity/position integration pass, and AABB collision detection via a
// uniform spatial grid. Iteration order is always id-ascending so that
// the same tick produces the same result on every peer.
package entity

import "github.com/kongshan001/game-frame-sync/fixedpoint"

// Entity is a single simulated object. All spatial fields are Q16.16
// fixed point; hp/max_hp are plain integers since health never needs
// fractional precision.
type Entity struct {
	ID     int32
	X, Y   fixedpoint.Value
	VX, VY fixedpoint.Value
	W, H   fixedpoint.Value
	HP     int32
	MaxHP  int32
}

// Clone returns a deep copy. Entity has no reference fields, so a plain
// value copy suffices, but the method exists so that callers (notably
// gamestate.Snapshot) never need to reason about whether a copy is deep
// or shallow.
func (e *Entity) Clone() *Entity {
	c := *e
	return &c
}
