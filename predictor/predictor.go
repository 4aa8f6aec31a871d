// Package predictor implements the client-side prediction and rollback
// system of spec.md §4.10: speculative local execution of a tick ahead
// of server confirmation, divergence detection against the
// authoritative frame, and rollback-and-replay when a guess was wrong.
package predictor

import (
	"bytes"
	"errors"

	"github.com/kongshan001/game-frame-sync/entity"
	"github.com/kongshan001/game-frame-sync/fixedpoint"
	"github.com/kongshan001/game-frame-sync/frame"
	"github.com/kongshan001/game-frame-sync/gamestate"
	"github.com/kongshan001/game-frame-sync/input"
	"github.com/kongshan001/game-frame-sync/metrics"
)

// ErrUnknownFrame is returned when a rollback target's snapshot has
// already been evicted from the state's ring.
var ErrUnknownFrame = errors.New("predictor: rollback snapshot evicted")

var rollbackCounter = metrics.NewCounter(metrics.VectorOption{
	Namespace: "game_frame_sync",
	Subsystem: "predictor",
	Name:      "rollbacks_total",
})

// PredictedRecord is one speculative tick awaiting authoritative
// confirmation: the local player's own input (known exactly), the
// guessed input for every remote player, and the pre-tick frame id to
// restore to on divergence.
type PredictedRecord struct {
	FrameID       uint32
	MyInput       input.PlayerInput
	GuessedOthers map[uint16]input.PlayerInput
	PreFrameID    int32
}

// Result reports what on_server_frame did with one authoritative
// frame, per spec.md §4.10.
type Result struct {
	FrameID        uint32
	Predicted      bool
	Correct        bool
	RollbackNeeded bool
}

// Predictor runs the tick-ahead simulation for one local player against
// a shared *gamestate.State. The caller owns State's lifetime; Predictor
// only mutates it through PredictFrame/OnServerFrame.
type Predictor struct {
	state     *gamestate.State
	playerID  uint16
	moveSpeed fixedpoint.Value
	tickMs    int32

	predicted map[uint32]*PredictedRecord
	order     []uint32 // ascending frame ids currently in predicted

	confirmed map[uint16]input.PlayerInput // last known-authoritative input per remote player

	PredictionCount int
	CorrectCount    int
	RollbackCount   int
}

// New constructs a predictor for playerID driving state, applying
// entity movement at moveSpeed and advancing physics by tickMs per
// tick (matching the room's own tick cadence so replay lines up).
func New(state *gamestate.State, playerID uint16, moveSpeed fixedpoint.Value, tickMs int32) *Predictor {
	return &Predictor{
		state:     state,
		playerID:  playerID,
		moveSpeed: moveSpeed,
		tickMs:    tickMs,
		predicted: make(map[uint32]*PredictedRecord),
		confirmed: make(map[uint16]input.PlayerInput),
	}
}

// PredictFrame speculatively executes frameID before the server has
// confirmed it: a snapshot of the pre-tick state is saved, every
// remote player's input is guessed from the most recently confirmed
// input seen from them (empty input on first guess), the tick is
// applied immediately, and the record is enqueued for later
// verification against the authoritative frame.
func (p *Predictor) PredictFrame(frameID uint32, myInput input.PlayerInput, otherPlayers []uint16) *PredictedRecord {
	preFrameID := p.state.FrameID
	p.state.SaveSnapshot()

	guessed := make(map[uint16]input.PlayerInput, len(otherPlayers))
	for _, pid := range otherPlayers {
		guessed[pid] = p.lastInputFor(frameID, pid)
	}

	rec := &PredictedRecord{
		FrameID:       frameID,
		MyInput:       myInput,
		GuessedOthers: guessed,
		PreFrameID:    preFrameID,
	}

	p.applyTick(frameID, p.mergedInputs(myInput, guessed))

	p.predicted[frameID] = rec
	p.order = append(p.order, frameID)
	p.PredictionCount++
	return rec
}

// OnServerFrame processes one authoritative frame from the server. If
// frameID was never predicted, it is applied directly — no divergence
// is possible. Otherwise the guessed remote inputs are compared
// byte-wise against the authoritative ones; a match drops the record
// with no state change (P8), a mismatch rolls back to the pre-tick
// snapshot, replays the authoritative tick, and re-predicts every
// later frame still pending in ascending order.
func (p *Predictor) OnServerFrame(serverFrame *frame.Frame, otherPlayers []uint16) (Result, error) {
	fid := serverFrame.FrameID

	rec, ok := p.predicted[fid]
	if !ok {
		p.applyAuthoritative(fid, serverFrame.Inputs)
		return Result{FrameID: fid, Predicted: false, Correct: true}, nil
	}

	if p.inputsMatch(rec.GuessedOthers, serverFrame.Inputs) {
		p.CorrectCount++
		p.recordConfirmed(serverFrame.Inputs)
		p.dropPredicted(fid)
		return Result{FrameID: fid, Predicted: true, Correct: true}, nil
	}

	if err := p.state.RestoreSnapshot(rec.PreFrameID); err != nil {
		return Result{}, ErrUnknownFrame
	}
	p.applyAuthoritative(fid, serverFrame.Inputs)

	for _, f := range p.order {
		if f <= fid {
			continue
		}
		r := p.predicted[f]
		guessed := make(map[uint16]input.PlayerInput, len(otherPlayers))
		for _, pid := range otherPlayers {
			guessed[pid] = p.lastInputFor(f, pid)
		}
		r.GuessedOthers = guessed
		p.applyTick(f, p.mergedInputs(r.MyInput, guessed))
	}

	p.dropThrough(fid)
	p.RollbackCount++
	rollbackCounter.Inc()

	return Result{FrameID: fid, Predicted: true, Correct: false, RollbackNeeded: true}, nil
}

// lastInputFor returns the most recently confirmed input known for
// pid, or the deterministic empty input if none has arrived yet.
func (p *Predictor) lastInputFor(frameID uint32, pid uint16) input.PlayerInput {
	if in, ok := p.confirmed[pid]; ok {
		return in
	}
	return input.Zero(frameID, pid)
}

// inputsMatch compares every non-local player's input byte-wise, per
// spec.md §4.10's divergence check.
func (p *Predictor) inputsMatch(guessed, actual map[uint16]input.PlayerInput) bool {
	for pid, act := range actual {
		if pid == p.playerID {
			continue
		}
		g, ok := guessed[pid]
		if !ok {
			g = input.Zero(act.FrameID, pid)
		}
		if !bytes.Equal(g.Serialize(), act.Serialize()) {
			return false
		}
	}
	return true
}

func (p *Predictor) mergedInputs(mine input.PlayerInput, others map[uint16]input.PlayerInput) map[uint16]input.PlayerInput {
	merged := make(map[uint16]input.PlayerInput, len(others)+1)
	merged[p.playerID] = mine
	for pid, in := range others {
		merged[pid] = in
	}
	return merged
}

// applyTick runs one simulation step: move every bound entity per its
// input's flags, advance the physics world, and advance the frame
// counter. Mirrors the room's own commit pipeline so replayed state
// matches the server bit-for-bit.
func (p *Predictor) applyTick(frameID uint32, inputs map[uint16]input.PlayerInput) {
	for slot, in := range inputs {
		entityID, ok := p.state.PlayerBinding[slot]
		if !ok {
			continue
		}
		e, ok := p.state.GetEntity(entityID)
		if !ok {
			continue
		}
		entity.ApplyInput(e, uint8(in.Flags), p.moveSpeed)
	}
	p.state.World.Update(p.tickMs)
	p.state.AdvanceFrame()
}

func (p *Predictor) applyAuthoritative(frameID uint32, inputs map[uint16]input.PlayerInput) {
	p.applyTick(frameID, inputs)
	p.recordConfirmed(inputs)
}

func (p *Predictor) recordConfirmed(inputs map[uint16]input.PlayerInput) {
	for pid, in := range inputs {
		if pid == p.playerID {
			continue
		}
		p.confirmed[pid] = in
	}
}

func (p *Predictor) dropPredicted(frameID uint32) {
	delete(p.predicted, frameID)
	for i, f := range p.order {
		if f == frameID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

// dropThrough removes every predicted record with frame id <= frameID,
// once it has either been confirmed or replayed past.
func (p *Predictor) dropThrough(frameID uint32) {
	kept := p.order[:0]
	for _, f := range p.order {
		if f <= frameID {
			delete(p.predicted, f)
			continue
		}
		kept = append(kept, f)
	}
	p.order = kept
}

// Pending reports how many predicted frames are still awaiting
// authoritative confirmation.
func (p *Predictor) Pending() int {
	return len(p.predicted)
}
