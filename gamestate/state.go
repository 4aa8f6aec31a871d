package gamestate

import (
	"errors"

	"github.com/kongshan001/game-frame-sync/entity"
	"github.com/kongshan001/game-frame-sync/rng"
)

// ErrNotFound is returned by RestoreSnapshot/RollbackTo when the
// requested frame id has already been evicted from the ring.
var ErrNotFound = errors.New("gamestate: snapshot not found")

// State is the single object every peer's simulation must agree on:
// the entity table, the player→entity binding, run/pause flags, the
// simulation PRNG, and the snapshot ring used for rollback.
type State struct {
	FrameID       int32
	World         *entity.World
	PlayerBinding map[uint16]int32
	Running       bool
	Paused        bool
	RNG           *rng.RNG

	ring *snapshotRing
}

// New constructs a fresh game state seeded with seed, with the
// default snapshot ring capacity.
func New(seed uint32) *State {
	return &State{
		World:         entity.NewWorld(),
		PlayerBinding: make(map[uint16]int32),
		RNG:           rng.New(seed),
		ring:          newSnapshotRing(MaxSnapshots),
	}
}

// AddEntity inserts or replaces an entity in the world.
func (s *State) AddEntity(e *entity.Entity) {
	s.World.Put(e)
}

// RemoveEntity deletes an entity by id. Any player binding that
// pointed at it is left dangling by design; callers must rebind or
// remove the player first to preserve the player_binding invariant.
func (s *State) RemoveEntity(id int32) {
	s.World.Remove(id)
}

// GetEntity looks up an entity by id.
func (s *State) GetEntity(id int32) (*entity.Entity, bool) {
	return s.World.Get(id)
}

// BindPlayer associates a player id with an entity id. The caller is
// responsible for ensuring the entity already exists; BindPlayer does
// not itself create one.
func (s *State) BindPlayer(playerID uint16, entityID int32) {
	s.PlayerBinding[playerID] = entityID
}

// AdvanceFrame increments the current frame id. It performs no other
// bookkeeping; the caller decides what else happens at a frame
// boundary (physics step, snapshot, broadcast).
func (s *State) AdvanceFrame() {
	s.FrameID++
}

// SaveSnapshot deep-copies the current entities and PRNG state into
// an immutable Snapshot, inserts it into the ring (evicting the
// oldest on overflow), and returns it.
func (s *State) SaveSnapshot() *Snapshot {
	ordered := s.World.Ordered()
	entities := make([]entity.Entity, len(ordered))
	for i, e := range ordered {
		entities[i] = *e
	}

	binding := make(map[uint16]int32, len(s.PlayerBinding))
	for k, v := range s.PlayerBinding {
		binding[k] = v
	}

	snap := &Snapshot{
		FrameID:       s.FrameID,
		Entities:      entities,
		PlayerBinding: binding,
		RNGState:      s.RNG.GetState(),
	}
	snap.Hash = computeHash(entities)

	s.ring.insert(snap)
	return snap
}

// RestoreSnapshot replaces the live entities and PRNG state with the
// snapshot recorded for frameID. It fails with ErrNotFound if the
// snapshot has already been evicted from the ring.
func (s *State) RestoreSnapshot(frameID int32) error {
	snap, ok := s.ring.get(frameID)
	if !ok {
		return ErrNotFound
	}
	s.applySnapshot(snap)
	return nil
}

// RollbackTo is RestoreSnapshot under the name callers reach for when
// unwinding to replay authoritative ticks; the two are otherwise
// identical, including the FrameID reset RestoreSnapshot already
// performs via applySnapshot.
func (s *State) RollbackTo(frameID int32) error {
	return s.RestoreSnapshot(frameID)
}

func (s *State) applySnapshot(snap *Snapshot) {
	s.World = entity.NewWorld()
	for i := range snap.Entities {
		e := snap.Entities[i]
		s.World.Put(&e)
	}

	binding := make(map[uint16]int32, len(snap.PlayerBinding))
	for k, v := range snap.PlayerBinding {
		binding[k] = v
	}
	s.PlayerBinding = binding
	s.RNG.SetState(snap.RNGState)
	s.FrameID = snap.FrameID
}

// ComputeStateHash returns the canonical hex digest of the
// deterministic simulation state, per spec.md §4.4. Only
// entities enter the hash; running/paused flags, timestamps, and
// transport state never do.
func (s *State) ComputeStateHash() string {
	ordered := s.World.Ordered()
	entities := make([]entity.Entity, len(ordered))
	for i, e := range ordered {
		entities[i] = *e
	}
	return computeHash(entities)
}
