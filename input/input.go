// Package input implements the 16-octet player input record: its
// wire layout, bit-flag helpers, and the admission validator that
// guards the frame engine from malformed or out-of-window submissions.
package input

import (
	"encoding/binary"
	"errors"
)

// WireSize is the exact serialized length of a PlayerInput.
const WireSize = 16

// ErrMalformedInput is returned by Deserialize when the byte slice is
// not exactly WireSize long.
var ErrMalformedInput = errors.New("input: malformed input")

// Flag bits, per spec.md §3.
const (
	FlagMoveUp    uint8 = 0x01
	FlagMoveDown  uint8 = 0x02
	FlagMoveLeft  uint8 = 0x04
	FlagMoveRight uint8 = 0x08
	FlagAttack    uint8 = 0x10
	FlagSkill1    uint8 = 0x20
	FlagSkill2    uint8 = 0x40
	FlagJump      uint8 = 0x80
)

// definedFlags is the union of every bit the wire format assigns
// meaning to; any other bit set in a decoded input is invalid.
const definedFlags = FlagMoveUp | FlagMoveDown | FlagMoveLeft | FlagMoveRight |
	FlagAttack | FlagSkill1 | FlagSkill2 | FlagJump

// Flags is the enum-like bit set carried on every PlayerInput,
// exposing has/set/clear helpers per spec.md §9.
type Flags uint8

func (f Flags) Has(bit uint8) bool  { return uint8(f)&bit != 0 }
func (f *Flags) Set(bit uint8)      { *f = Flags(uint8(*f) | bit) }
func (f *Flags) Clear(bit uint8)    { *f = Flags(uint8(*f) &^ bit) }
func (f Flags) Valid() bool         { return uint8(f)&^definedFlags == 0 }

// PlayerInput is the decoded form of the 16-byte wire record.
type PlayerInput struct {
	FrameID  uint32
	PlayerID uint16
	Flags    Flags
	Reserved uint8
	TargetX  int32
	TargetY  int32
}

// Serialize encodes the input into its exact 16-byte little-endian
// wire layout: frame_id:u32 · player_id:u16 · flags:u8 · reserved:u8 ·
// target_x:i32 · target_y:i32.
func (p PlayerInput) Serialize() []byte {
	buf := make([]byte, WireSize)
	binary.LittleEndian.PutUint32(buf[0:4], p.FrameID)
	binary.LittleEndian.PutUint16(buf[4:6], p.PlayerID)
	buf[6] = uint8(p.Flags)
	buf[7] = p.Reserved
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.TargetX))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(p.TargetY))
	return buf
}

// Deserialize decodes a 16-byte wire record. It returns
// ErrMalformedInput if data is not exactly WireSize bytes; it does
// not itself validate field ranges (see Validator).
func Deserialize(data []byte) (PlayerInput, error) {
	if len(data) != WireSize {
		return PlayerInput{}, ErrMalformedInput
	}
	return PlayerInput{
		FrameID:  binary.LittleEndian.Uint32(data[0:4]),
		PlayerID: binary.LittleEndian.Uint16(data[4:6]),
		Flags:    Flags(data[6]),
		Reserved: data[7],
		TargetX:  int32(binary.LittleEndian.Uint32(data[8:12])),
		TargetY:  int32(binary.LittleEndian.Uint32(data[12:16])),
	}, nil
}

// Zero returns the deterministic empty input force_tick substitutes
// for a missing player, per spec.md §4.6: all zeros except the
// correct player_id and frame_id.
func Zero(frameID uint32, playerID uint16) PlayerInput {
	return PlayerInput{FrameID: frameID, PlayerID: playerID}
}
