package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kongshan001/game-frame-sync/cmapx"
)

// ErrRoomNotFound is returned by Get when room_id has no live room.
var ErrRoomNotFound = errors.New("room: not found")

// janitorInterval is how often Manager scans for empty rooms past
// EmptyRoomTimeout; it need not be precise, only bounded.
const janitorInterval = 5 * time.Second

// Manager owns every live room, keyed by room_id, in a sharded
// concurrent map per SPEC_FULL.md §4.13 so admission lookups never
// contend with a room's own tick loop, and so a lookup racing a
// room's destruction degrades to a soft no-op rather than a panic.
type Manager struct {
	conf  Conf
	rooms *cmapx.Sharded[string, *Room]

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	stopDone chan struct{}
}

// NewManager constructs an empty room table. Rooms created through
// it inherit conf.
func NewManager(conf Conf) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		conf:     conf,
		rooms:    cmapx.NewStringSharded[*Room](0),
		ctx:      ctx,
		cancel:   cancel,
		stopDone: make(chan struct{}),
	}
	go m.janitor()
	return m
}

// GetOrCreate returns the existing room for roomID, or lazily creates
// and starts one, per spec.md §4.7 step 3 ("look up the room; create
// it if absent and capacity permits" — capacity is enforced by Join,
// not creation, since an empty room always has room for its first
// member).
func (m *Manager) GetOrCreate(roomID string) *Room {
	if r, ok := m.rooms.Get(roomID); ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms.Get(roomID); ok {
		return r
	}

	r := New(roomID, m.conf)
	r.Start(m.ctx)
	m.rooms.Set(roomID, r)
	return r
}

// Get looks up a room without creating one.
func (m *Manager) Get(roomID string) (*Room, error) {
	r, ok := m.rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	return m.rooms.Len()
}

// janitor destroys rooms that have had no members for longer than
// EmptyRoomTimeout, per spec.md §5's "room with no members for > 60s
// is destroyed along with its engine and state". A lookup racing this
// removal is the concurrent-removal case cmapx.Map tolerates as a
// soft no-op.
func (m *Manager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	defer close(m.stopDone)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweepEmptyRooms()
		}
	}
}

func (m *Manager) sweepEmptyRooms() {
	var expired []string
	m.rooms.Iterator(func(id string, r *Room) bool {
		if r.EmptyFor() > EmptyRoomTimeout {
			expired = append(expired, id)
		}
		return true
	})
	for _, id := range expired {
		if r, ok := m.rooms.Get(id); ok {
			r.Stop()
			m.rooms.Delete(id)
		}
	}
}

// Stop stops every room and the janitor goroutine.
func (m *Manager) Stop() {
	m.cancel()
	<-m.stopDone

	m.rooms.Iterator(func(_ string, r *Room) bool {
		r.Stop()
		return true
	})
}
