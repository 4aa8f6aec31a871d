package entity

import (
	"testing"

	"github.com/kongshan001/game-frame-sync/fixedpoint"
)

func TestApplyInputAdditiveAxes(t *testing.T) {
	e := &Entity{ID: 1}
	speed := fixedpoint.FromInt(5)

	ApplyInput(e, FlagMoveRight, speed)
	if !e.VX.Equal(speed) {
		t.Fatalf("expected vx=speed, got %v", e.VX.ToFloat())
	}

	ApplyInput(e, FlagMoveLeft|FlagMoveRight, speed)
	if !e.VX.Equal(fixedpoint.Zero) {
		t.Fatalf("expected opposing flags to cancel, got vx=%v", e.VX.ToFloat())
	}
}

func TestUpdateIntegratesPosition(t *testing.T) {
	w := NewWorld()
	e := &Entity{ID: 1, X: fixedpoint.FromInt(0), Y: fixedpoint.FromInt(0)}
	w.Put(e)

	ApplyInput(e, FlagMoveRight, fixedpoint.FromInt(10))
	w.Update(33)

	if e.X.ToFloat() <= 0 {
		t.Fatalf("expected x to advance after a tick with rightward velocity, got %v", e.X.ToFloat())
	}
}

func TestUpdateClampsToWorldBounds(t *testing.T) {
	w := NewWorld()
	e := &Entity{ID: 1, X: WorldMaxX, Y: fixedpoint.Zero}
	w.Put(e)

	ApplyInput(e, FlagMoveRight, fixedpoint.FromInt(1000))
	for i := 0; i < 10; i++ {
		w.Update(33)
	}

	if e.X.GreaterThan(WorldMaxX) {
		t.Fatalf("expected x clamped to world bound, got %v", e.X.ToFloat())
	}
}

func TestUpdateAscendingOrder(t *testing.T) {
	w := NewWorld()
	w.Put(&Entity{ID: 5})
	w.Put(&Entity{ID: 1})
	w.Put(&Entity{ID: 3})

	var seen []int32
	for _, e := range w.Ordered() {
		seen = append(seen, e.ID)
	}
	want := []int32{1, 3, 5}
	for i, id := range want {
		if seen[i] != id {
			t.Fatalf("expected ascending id order %v, got %v", want, seen)
		}
	}
}

func TestUpdateDeterministicAcrossIdenticalWorlds(t *testing.T) {
	mk := func() *World {
		w := NewWorld()
		w.Put(&Entity{ID: 1, X: fixedpoint.FromInt(0)})
		w.Put(&Entity{ID: 2, X: fixedpoint.FromInt(100)})
		return w
	}
	a, b := mk(), mk()

	for tick := 0; tick < 50; tick++ {
		ea, _ := a.Get(1)
		eb, _ := b.Get(1)
		ApplyInput(ea, FlagMoveRight, fixedpoint.FromInt(5))
		ApplyInput(eb, FlagMoveRight, fixedpoint.FromInt(5))
		a.Update(33)
		b.Update(33)
	}

	ea, _ := a.Get(1)
	eb, _ := b.Get(1)
	if !ea.X.Equal(eb.X) || !ea.VX.Equal(eb.VX) {
		t.Fatalf("identical worlds diverged: %v vs %v", ea.X.ToFloat(), eb.X.ToFloat())
	}
}
