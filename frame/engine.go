package frame

import (
	"time"

	"github.com/kongshan001/game-frame-sync/input"
)

// DefaultFrameTimeout is how long the engine waits for a complete
// tick before force-completing it (spec.md §4.6).
const DefaultFrameTimeout = 1 * time.Second

// Engine is the per-room frame buffer and commit policy: a bounded
// pending-input pipeline plus the indexed history of committed ticks.
// It is not safe for concurrent use; the owning room serializes all
// access to it per spec.md's single-writer discipline.
type Engine struct {
	PlayerCount int

	currentFrame uint32
	pending      map[uint32]map[uint16]input.PlayerInput
	hist         *history
}

// NewEngine constructs an engine for a room with playerCount
// participants, starting at frame 0.
func NewEngine(playerCount int) *Engine {
	return &Engine{
		PlayerCount: playerCount,
		pending:     make(map[uint32]map[uint16]input.PlayerInput),
		hist:        newHistory(MaxFrameHistory),
	}
}

// CurrentFrame is the id of the next tick to be committed.
func (e *Engine) CurrentFrame() uint32 {
	return e.currentFrame
}

// AddInput admits an input for a future or current tick. Inputs for
// frames already committed are discarded silently; otherwise the
// input overwrites any earlier one from the same player for that
// frame (last-write-wins, per spec.md's Open Question resolution —
// see SPEC_FULL.md §9).
func (e *Engine) AddInput(frameID uint32, playerID uint16, data input.PlayerInput) {
	if frameID < e.currentFrame {
		return
	}
	slot, ok := e.pending[frameID]
	if !ok {
		slot = make(map[uint16]input.PlayerInput)
		e.pending[frameID] = slot
	}
	slot[playerID] = data
}

// Tick commits the current frame if every player's input has
// arrived. It returns (frame, true) on commit, or (nil, false) if the
// frame is still incomplete — current_frame is left unchanged in that
// case. The commit is all-or-nothing: the engine never ships a
// partial tick from Tick.
func (e *Engine) Tick() (*Frame, bool) {
	slot, ok := e.pending[e.currentFrame]
	if !ok || len(slot) != e.PlayerCount {
		return nil, false
	}
	f := &Frame{
		FrameID:   e.currentFrame,
		Inputs:    slot,
		Confirmed: true,
		Timestamp: now(),
	}
	e.commit(f)
	return f, true
}

// ForceTick commits the current frame even though it is incomplete,
// filling every missing player's slot with a deterministic zero
// input and marking the frame unconfirmed.
func (e *Engine) ForceTick(playerIDs []uint16) *Frame {
	slot, ok := e.pending[e.currentFrame]
	if !ok {
		slot = make(map[uint16]input.PlayerInput)
	}
	for _, pid := range playerIDs {
		if _, present := slot[pid]; !present {
			slot[pid] = input.Zero(e.currentFrame, pid)
		}
	}
	f := &Frame{
		FrameID:   e.currentFrame,
		Inputs:    slot,
		Confirmed: false,
		Timestamp: now(),
	}
	e.commit(f)
	return f
}

func (e *Engine) commit(f *Frame) {
	delete(e.pending, f.FrameID)
	e.hist.insert(f)
	e.currentFrame++
}

// History returns the committed frame for frameID, if it is still
// within the retention window.
func (e *Engine) History(frameID uint32) (*Frame, bool) {
	return e.hist.get(frameID)
}

// HistoryRange returns every retained committed frame in [from, to],
// ascending by frame id, for catch-up replay.
func (e *Engine) HistoryRange(from, to uint32) []*Frame {
	return e.hist.rangeFrom(from, to)
}

// OldestRetainedFrame reports the smallest frame id still available
// for replay, used to decide between sync_frames and resync_full.
func (e *Engine) OldestRetainedFrame() (uint32, bool) {
	return e.hist.oldestRetained()
}

// now is a seam so tests can observe deterministic timestamps without
// depending on wall-clock time directly.
var now = time.Now
