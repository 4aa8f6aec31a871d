package room

import (
	"context"
	"testing"
	"time"
)

func TestManagerGetOrCreateReusesRoom(t *testing.T) {
	m := NewManager(testConf())
	defer m.Stop()

	r1 := m.GetOrCreate("alpha")
	r2 := m.GetOrCreate("alpha")
	if r1 != r2 {
		t.Fatalf("expected the same room instance for the same room_id")
	}
	if m.Count() != 1 {
		t.Fatalf("expected 1 room, got %d", m.Count())
	}
}

func TestManagerGetMissingRoomFails(t *testing.T) {
	m := NewManager(testConf())
	defer m.Stop()

	if _, err := m.Get("nope"); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestManagerDistinctRoomsGetDistinctSeeds(t *testing.T) {
	m := NewManager(testConf())
	defer m.Stop()

	r1 := m.GetOrCreate("room-a")
	r2 := m.GetOrCreate("room-b")
	if r1.seed == r2.seed {
		t.Fatalf("expected distinct rooms to derive distinct seeds")
	}
}

func TestManagerStopStopsAllRooms(t *testing.T) {
	m := NewManager(testConf())
	m.GetOrCreate("alpha")
	m.GetOrCreate("beta")

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Manager.Stop did not return in time")
	}
}

func TestRoomJoinViaManagerAcrossRooms(t *testing.T) {
	m := NewManager(testConf())
	defer m.Stop()

	ctx := context.Background()
	r := m.GetOrCreate("lobby")
	if _, err := r.Join(ctx, "alice", &fakeConn{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 member, got %d", r.Len())
	}
}
