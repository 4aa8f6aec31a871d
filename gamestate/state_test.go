package gamestate

import (
	"testing"

	"github.com/kongshan001/game-frame-sync/entity"
	"github.com/kongshan001/game-frame-sync/fixedpoint"
)

func TestHashDeterministicAcrossIdenticalStates(t *testing.T) {
	mk := func() *State {
		s := New(12345)
		s.AddEntity(&entity.Entity{ID: 1, X: fixedpoint.FromInt(10), HP: 100, MaxHP: 100})
		s.AddEntity(&entity.Entity{ID: 2, X: fixedpoint.FromInt(20), HP: 100, MaxHP: 100})
		s.BindPlayer(1, 1)
		s.BindPlayer(2, 2)
		return s
	}
	a, b := mk(), mk()

	if a.ComputeStateHash() != b.ComputeStateHash() {
		t.Fatalf("identical states produced different hashes")
	}
}

func TestHashChangesWithEntityMutation(t *testing.T) {
	s := New(1)
	s.AddEntity(&entity.Entity{ID: 1, X: fixedpoint.FromInt(0)})
	before := s.ComputeStateHash()

	e, _ := s.GetEntity(1)
	e.X = fixedpoint.FromInt(5)

	if after := s.ComputeStateHash(); after == before {
		t.Fatalf("expected hash to change after entity mutation")
	}
}

func TestHashIgnoresRunningAndPausedFlags(t *testing.T) {
	s := New(1)
	s.AddEntity(&entity.Entity{ID: 1})
	before := s.ComputeStateHash()

	s.Running = true
	s.Paused = true

	if after := s.ComputeStateHash(); after != before {
		t.Fatalf("expected hash to ignore running/paused flags")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(42)
	s.AddEntity(&entity.Entity{ID: 1, X: fixedpoint.FromInt(3)})
	s.AdvanceFrame()
	s.SaveSnapshot()

	e, _ := s.GetEntity(1)
	e.X = fixedpoint.FromInt(999)

	if err := s.RestoreSnapshot(1); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	restored, _ := s.GetEntity(1)
	if !restored.X.Equal(fixedpoint.FromInt(3)) {
		t.Fatalf("expected restored x=3, got %v", restored.X.ToFloat())
	}
}

func TestRestoreSnapshotNotFound(t *testing.T) {
	s := New(1)
	if err := s.RestoreSnapshot(999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRingEvictsOldest(t *testing.T) {
	s := New(1)
	s.AddEntity(&entity.Entity{ID: 1})

	for i := 0; i < MaxSnapshots+10; i++ {
		s.AdvanceFrame()
		s.SaveSnapshot()
	}

	if err := s.RestoreSnapshot(1); err != ErrNotFound {
		t.Fatalf("expected frame 1 to have been evicted, got err=%v", err)
	}
	if err := s.RestoreSnapshot(s.FrameID); err != nil {
		t.Fatalf("expected most recent frame still present: %v", err)
	}
}

func TestPlayerBindingSurvivesSnapshotRoundTrip(t *testing.T) {
	s := New(1)
	s.AddEntity(&entity.Entity{ID: 7})
	s.BindPlayer(3, 7)
	s.AdvanceFrame()
	s.SaveSnapshot()

	s.BindPlayer(3, 0)
	if err := s.RestoreSnapshot(1); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}
	if got := s.PlayerBinding[3]; got != 7 {
		t.Fatalf("expected player binding restored to 7, got %d", got)
	}
}
