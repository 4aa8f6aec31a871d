package input

import "testing"

func TestSerializeRoundTrip(t *testing.T) {
	p := PlayerInput{
		FrameID:  42,
		PlayerID: 7,
		Flags:    Flags(FlagMoveRight | FlagJump),
		Reserved: 0,
		TargetX:  -1234,
		TargetY:  5678,
	}
	buf := p.Serialize()
	if len(buf) != WireSize {
		t.Fatalf("expected serialized length %d, got %d", WireSize, len(buf))
	}
	got, err := Deserialize(buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got != p {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestDeserializeMalformedLength(t *testing.T) {
	_, err := Deserialize(make([]byte, 15))
	if err != ErrMalformedInput {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestFlagsValid(t *testing.T) {
	if !Flags(FlagMoveUp | FlagAttack).Valid() {
		t.Fatalf("expected defined flag combination to be valid")
	}
	// All 8 bits are assigned meaning, so every possible byte value is
	// a valid combination; Valid() exists for forward compatibility if
	// a future revision narrows the defined set.
	if !Flags(0xFF).Valid() {
		t.Fatalf("expected full byte to be valid under the current flag set")
	}

	var f Flags
	f.Set(FlagMoveUp)
	if uint8(f) != FlagMoveUp {
		t.Fatalf("Set did not apply bit")
	}
	f.Clear(FlagMoveUp)
	if uint8(f) != 0 {
		t.Fatalf("Clear did not remove bit")
	}
}

func TestZeroInput(t *testing.T) {
	z := Zero(5, 3)
	if z.FrameID != 5 || z.PlayerID != 3 || z.Flags != 0 || z.TargetX != 0 || z.TargetY != 0 {
		t.Fatalf("expected all-zero fields except frame/player id, got %+v", z)
	}
}
