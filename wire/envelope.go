// Package wire implements the binary envelope and message taxonomy
// of spec.md §6: a {type, payload} envelope encoded with MessagePack
// (self-describing, compact, string-keyed — the same shape the
// gateway/roomserver protocol in the reference corpus tags its
// structs for) and framed with a 4-byte big-endian length prefix.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxMessageSize is the upper bound on a framed message, per
// spec.md §6.
const MaxMessageSize = 10 * 1024

// ErrOversizedMessage is returned by ReadFrame when the declared
// length exceeds MaxMessageSize.
var ErrOversizedMessage = errors.New("wire: message exceeds size limit")

// ErrMalformedEnvelope is returned when decoding fails or the type
// tag is not one of the closed set Type enumerates.
var ErrMalformedEnvelope = errors.New("wire: malformed envelope")

// Type is the closed set of envelope type tags from spec.md §6.
type Type string

const (
	TypeAuth         Type = "auth"
	TypeJoinSuccess  Type = "join_success"
	TypePlayerJoined Type = "player_joined"
	TypePlayerLeft   Type = "player_left"
	TypeGameStart    Type = "game_start"
	TypeInput        Type = "input"
	TypeGameFrame    Type = "game_frame"
	TypeReconnect    Type = "reconnect"
	TypeSyncFrames   Type = "sync_frames"
	TypeResyncFull   Type = "resync_full"
	TypeLeave        Type = "leave"
	TypeError        Type = "error"
)

var validTypes = map[Type]bool{
	TypeAuth: true, TypeJoinSuccess: true, TypePlayerJoined: true,
	TypePlayerLeft: true, TypeGameStart: true, TypeInput: true,
	TypeGameFrame: true, TypeReconnect: true, TypeSyncFrames: true,
	TypeResyncFull: true, TypeLeave: true, TypeError: true,
}

// Envelope is the tagged-union wrapper every message is encoded as.
// Payload holds the msgpack-encoded bytes of one of the Payload*
// structs in messages.go, selected by Type.
type Envelope struct {
	Type    Type   `msgpack:"type"`
	Payload []byte `msgpack:"payload"`
}

// EncodePayload msgpack-encodes v and wraps it in an Envelope of the
// given type.
func EncodePayload(t Type, v any) (Envelope, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("wire: encode payload: %w", err)
	}
	return Envelope{Type: t, Payload: b}, nil
}

// DecodePayload unmarshals an envelope's payload into v.
func DecodePayload(e Envelope, v any) error {
	return msgpack.Unmarshal(e.Payload, v)
}

// EncodeBytes msgpack-encodes v on its own, outside any envelope; used
// for the resync_full snapshot blob, which is opaque to the envelope
// layer.
func EncodeBytes(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Marshal encodes an envelope to its msgpack byte form.
func Marshal(e Envelope) ([]byte, error) {
	if !validTypes[e.Type] {
		return nil, ErrMalformedEnvelope
	}
	return msgpack.Marshal(e)
}

// Unmarshal decodes an envelope from msgpack bytes, rejecting an
// unknown type tag.
func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Envelope{}, ErrMalformedEnvelope
	}
	if !validTypes[e.Type] {
		return Envelope{}, ErrMalformedEnvelope
	}
	return e, nil
}

// WriteFrame writes a length-prefixed envelope: a 4-byte big-endian
// length followed by the msgpack-encoded envelope.
func WriteFrame(w io.Writer, e Envelope) error {
	body, err := Marshal(e)
	if err != nil {
		return err
	}
	if len(body) > MaxMessageSize {
		return ErrOversizedMessage
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed envelope from r, rejecting a
// declared length over MaxMessageSize before reading the body.
func ReadFrame(r io.Reader) (Envelope, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n > MaxMessageSize {
		return Envelope{}, ErrOversizedMessage
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, err
	}
	return Unmarshal(body)
}
