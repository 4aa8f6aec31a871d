package input

import "sync"

// MaxFrameAhead is the default width of the admission window: an
// input may target at most this many frames beyond current_frame.
const MaxFrameAhead = 100

// Rejection is the reason a ValidationError was raised, used by
// callers that need to distinguish violation kinds for counters or
// close-code selection.
type Rejection int

const (
	RejectFrameWindow Rejection = iota
	RejectCoordinateRange
	RejectPlayerMismatch
	RejectUndefinedFlags
)

// ValidationError reports why an input was rejected.
type ValidationError struct {
	Reason Rejection
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case RejectFrameWindow:
		return "input: frame_id outside admission window"
	case RejectCoordinateRange:
		return "input: target coordinate out of range"
	case RejectPlayerMismatch:
		return "input: player_id does not match connection"
	case RejectUndefinedFlags:
		return "input: undefined flag bits set"
	default:
		return "input: validation failed"
	}
}

// Validator enforces the admission rules of spec.md §4.5 and tracks a
// per-player violation counter, readable through Violations. No
// caller closes a connection based on that count.
type Validator struct {
	maxFrameAhead int32
	coordMin      int32
	coordMax      int32

	mu         sync.Mutex
	violations map[uint16]int
}

// NewValidator constructs a Validator with the given coordinate range
// (inclusive) and the default MaxFrameAhead window.
func NewValidator(coordMin, coordMax int32) *Validator {
	return &Validator{
		maxFrameAhead: MaxFrameAhead,
		coordMin:      coordMin,
		coordMax:      coordMax,
		violations:    make(map[uint16]int),
	}
}

// Validate checks a decoded input against the admission context. On
// failure it increments the submitting player's violation counter and
// returns a *ValidationError.
func (v *Validator) Validate(p PlayerInput, currentFrame uint32, connectionPlayerID uint16) error {
	if err := v.check(p, currentFrame, connectionPlayerID); err != nil {
		v.recordViolation(connectionPlayerID)
		return err
	}
	return nil
}

func (v *Validator) check(p PlayerInput, currentFrame uint32, connectionPlayerID uint16) error {
	if p.PlayerID != connectionPlayerID {
		return &ValidationError{Reason: RejectPlayerMismatch}
	}
	if !p.Flags.Valid() {
		return &ValidationError{Reason: RejectUndefinedFlags}
	}
	upperBound := currentFrame + uint32(v.maxFrameAhead)
	if p.FrameID < currentFrame || p.FrameID >= upperBound {
		return &ValidationError{Reason: RejectFrameWindow}
	}
	if p.TargetX < v.coordMin || p.TargetX > v.coordMax || p.TargetY < v.coordMin || p.TargetY > v.coordMax {
		return &ValidationError{Reason: RejectCoordinateRange}
	}
	return nil
}

func (v *Validator) recordViolation(playerID uint16) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.violations[playerID]++
}

// Violations returns the current violation count for a player.
func (v *Validator) Violations(playerID uint16) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.violations[playerID]
}

// ResetViolations clears a player's violation counter, used when a
// connection is recycled for a new player id.
func (v *Validator) ResetViolations(playerID uint16) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.violations, playerID)
}
