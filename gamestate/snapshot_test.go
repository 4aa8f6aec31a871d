package gamestate

import "testing"

// TestSnapshotRingDuplicateFrameIDDoesNotCorruptEviction reproduces
// the predictor's rollback path directly against the ring: a frame id
// gets re-inserted while its original copy is still resident, and the
// ring must then forget it on the same schedule a fresh insert would,
// without a stale slot pointer causing a later eviction to delete the
// re-inserted entry's mapping out of turn.
func TestSnapshotRingDuplicateFrameIDDoesNotCorruptEviction(t *testing.T) {
	r := newSnapshotRing(3)

	r.insert(&Snapshot{FrameID: 0, Hash: "a"})
	r.insert(&Snapshot{FrameID: 1, Hash: "b"})

	// Re-insert frame 0 while it is still resident, as RollbackTo
	// followed by SaveSnapshot would.
	r.insert(&Snapshot{FrameID: 0, Hash: "a2"})

	if snap, ok := r.get(0); !ok || snap.Hash != "a2" {
		t.Fatalf("expected re-inserted frame 0 with hash a2, got %v ok=%v", snap, ok)
	}

	// One more insert fills the ring's third slot without evicting
	// anything yet.
	r.insert(&Snapshot{FrameID: 2, Hash: "c"})
	if _, ok := r.get(0); !ok {
		t.Fatalf("expected frame 0 still resident before the ring wraps")
	}

	// The ring now wraps: this insert must evict frame 1 (the oldest
	// surviving entry), not frame 0 (freshly re-inserted).
	r.insert(&Snapshot{FrameID: 3, Hash: "d"})
	if _, ok := r.get(1); ok {
		t.Fatalf("expected frame 1 to be evicted as the oldest entry")
	}
	if snap, ok := r.get(0); !ok || snap.Hash != "a2" {
		t.Fatalf("expected re-inserted frame 0 to survive the wrap, got %v ok=%v", snap, ok)
	}
}
