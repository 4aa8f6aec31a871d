// Package gamestate aggregates the entity table, player bindings, and
// PRNG state into the single object every peer must agree on, and
// provides the snapshot/rollback and canonical hashing operations that
// detect when they stop agreeing.
package gamestate

import "github.com/kongshan001/game-frame-sync/entity"

// MaxSnapshots is the default capacity of the snapshot ring (spec.md
// §3: "retained in a bounded ring (default 60)").
const MaxSnapshots = 60

// Snapshot is an immutable, deep-copied record of the simulation at
// one committed frame. Entities are stored sorted by id so hashing
// and restoration never need to re-sort.
type Snapshot struct {
	FrameID       int32
	Entities      []entity.Entity
	PlayerBinding map[uint16]int32
	RNGState      uint32
	Hash          string
}

// snapshotRing is a fixed-capacity associative ring keyed by frame
// id: adapted from the teacher's container/ringbuffer circular array,
// but indexed by key rather than FIFO order since restore_snapshot
// must retrieve an exact frame id, and insertion must evict the
// oldest entry by age rather than by read position.
type snapshotRing struct {
	capacity int
	slots    []*Snapshot // ring storage, oldest-first by insertion
	byFrame  map[int32]*Snapshot
	next     int // next slot to write (wraps)
	filled   int
}

func newSnapshotRing(capacity int) *snapshotRing {
	if capacity <= 0 {
		capacity = MaxSnapshots
	}
	return &snapshotRing{
		capacity: capacity,
		slots:    make([]*Snapshot, capacity),
		byFrame:  make(map[int32]*Snapshot, capacity),
	}
}

// insert adds s, evicting the oldest snapshot if the ring is full. If
// a snapshot with the same frame id is already resident — possible
// after a rollback re-advances through a frame id it has seen before
// — the existing slot is freed first and s is appended fresh at the
// tail, rather than left in its original ring position: otherwise
// that stale position keeps the old eviction schedule, and evicting
// it later deletes byFrame's only entry for that frame id (the one
// s just wrote) out from under a caller that just saved it.
func (r *snapshotRing) insert(s *Snapshot) {
	if existing, ok := r.byFrame[s.FrameID]; ok {
		for i, slot := range r.slots {
			if slot == existing {
				r.slots[i] = nil
				break
			}
		}
		delete(r.byFrame, s.FrameID)
		if r.filled > 0 {
			r.filled--
		}
	}

	if old := r.slots[r.next]; old != nil {
		delete(r.byFrame, old.FrameID)
	}
	r.slots[r.next] = s
	r.byFrame[s.FrameID] = s
	r.next = (r.next + 1) % r.capacity
	if r.filled < r.capacity {
		r.filled++
	}
}

// get locates a snapshot by exact frame id.
func (r *snapshotRing) get(frameID int32) (*Snapshot, bool) {
	s, ok := r.byFrame[frameID]
	return s, ok
}
