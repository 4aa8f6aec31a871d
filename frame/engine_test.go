package frame

import (
	"testing"

	"github.com/kongshan001/game-frame-sync/input"
)

func TestTickCommitsOnlyWhenComplete(t *testing.T) {
	e := NewEngine(2)

	if _, ok := e.Tick(); ok {
		t.Fatalf("expected Tick to return false with no inputs")
	}

	e.AddInput(0, 1, input.PlayerInput{FrameID: 0, PlayerID: 1})
	if _, ok := e.Tick(); ok {
		t.Fatalf("expected Tick to return false with only one of two players submitted")
	}

	e.AddInput(0, 2, input.PlayerInput{FrameID: 0, PlayerID: 2})
	f, ok := e.Tick()
	if !ok {
		t.Fatalf("expected Tick to commit once both players submitted")
	}
	if !f.Confirmed || f.FrameID != 0 || len(f.Inputs) != 2 {
		t.Fatalf("unexpected committed frame: %+v", f)
	}
	if e.CurrentFrame() != 1 {
		t.Fatalf("expected current_frame to advance to 1, got %d", e.CurrentFrame())
	}
}

func TestAddInputDiscardsStaleFrame(t *testing.T) {
	e := NewEngine(1)
	e.AddInput(0, 1, input.PlayerInput{FrameID: 0, PlayerID: 1})
	e.Tick()

	e.AddInput(0, 1, input.PlayerInput{FrameID: 0, PlayerID: 1, TargetX: 99})
	if _, ok := e.Tick(); ok {
		t.Fatalf("expected no re-commit of an already-committed frame")
	}
	if _, ok := e.History(0); !ok {
		t.Fatalf("expected frame 0 retained in history")
	}
}

func TestAddInputLastWriteWins(t *testing.T) {
	e := NewEngine(1)
	e.AddInput(0, 1, input.PlayerInput{FrameID: 0, PlayerID: 1, TargetX: 1})
	e.AddInput(0, 1, input.PlayerInput{FrameID: 0, PlayerID: 1, TargetX: 2})

	f, ok := e.Tick()
	if !ok {
		t.Fatalf("expected commit")
	}
	if f.Inputs[1].TargetX != 2 {
		t.Fatalf("expected last-write-wins to keep TargetX=2, got %d", f.Inputs[1].TargetX)
	}
}

func TestForceTickZeroFillsMissingPlayers(t *testing.T) {
	e := NewEngine(2)
	e.AddInput(0, 1, input.PlayerInput{FrameID: 0, PlayerID: 1, TargetX: 7})

	f := e.ForceTick([]uint16{1, 2})
	if f.Confirmed {
		t.Fatalf("expected force_tick frame to be unconfirmed")
	}
	if len(f.Inputs) != 2 {
		t.Fatalf("expected both player slots filled, got %d", len(f.Inputs))
	}
	if f.Inputs[2] != input.Zero(0, 2) {
		t.Fatalf("expected missing player zero-filled, got %+v", f.Inputs[2])
	}
	if f.Inputs[1].TargetX != 7 {
		t.Fatalf("expected submitted input preserved, got %+v", f.Inputs[1])
	}
	if e.CurrentFrame() != 1 {
		t.Fatalf("expected current_frame to advance after force_tick")
	}
}

func TestHistoryRangeForCatchUp(t *testing.T) {
	e := NewEngine(1)
	for i := 0; i < 5; i++ {
		e.AddInput(uint32(i), 1, input.PlayerInput{FrameID: uint32(i), PlayerID: 1})
		e.Tick()
	}

	frames := e.HistoryRange(1, 3)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames in range [1,3], got %d", len(frames))
	}
	for i, f := range frames {
		if f.FrameID != uint32(1+i) {
			t.Fatalf("expected ascending frame ids starting at 1, got %+v", frames)
		}
	}
}

func TestHistoryEvictsBeyondCapacity(t *testing.T) {
	e := NewEngine(1)
	for i := 0; i < MaxFrameHistory+10; i++ {
		e.AddInput(uint32(i), 1, input.PlayerInput{FrameID: uint32(i), PlayerID: 1})
		e.Tick()
	}

	if _, ok := e.History(0); ok {
		t.Fatalf("expected frame 0 evicted from history")
	}
	oldest, ok := e.OldestRetainedFrame()
	if !ok {
		t.Fatalf("expected a retained oldest frame")
	}
	if oldest != 10 {
		t.Fatalf("expected oldest retained frame to be 10, got %d", oldest)
	}
}
