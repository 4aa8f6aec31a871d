package room

import (
	"context"
	"errors"
	"hash/fnv"
	"sync/atomic"
	"time"

	"github.com/kongshan001/game-frame-sync/actorx"
	"github.com/kongshan001/game-frame-sync/entity"
	"github.com/kongshan001/game-frame-sync/fixedpoint"
	"github.com/kongshan001/game-frame-sync/frame"
	"github.com/kongshan001/game-frame-sync/gamestate"
	"github.com/kongshan001/game-frame-sync/input"
	"github.com/kongshan001/game-frame-sync/transport/ws"
	"github.com/kongshan001/game-frame-sync/wire"
)

// ErrRoomFull is returned by Join once membership has reached
// MaxPlayers, per spec.md §4.7 step 4.
var ErrRoomFull = errors.New("room: full")

// ErrAlreadyMember is returned by Join when the player_id is already
// seated in the room.
var ErrAlreadyMember = errors.New("room: already a member")

// ErrNotMember is returned by operations addressed to a player_id the
// room has no record of.
var ErrNotMember = errors.New("room: not a member")

// defaultMoveSpeed is the fixed-point speed ApplyInput uses for every
// movement flag; spec.md leaves per-entity speed unspecified, so this
// is a single reasonable constant shared by every spawned entity.
var defaultMoveSpeed = fixedpoint.FromFloat(5.0)

// Conf configures a Room at creation time; every room in a process
// shares these values via Manager.
type Conf struct {
	MaxPlayers         int
	TickRate           int
	FrameTimeout       time.Duration
	RequestsPerSecond  int
	CoordMin, CoordMax int32
	BaseSeed           uint32
}

func (c Conf) withDefaults() Conf {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 2
	}
	if c.TickRate <= 0 {
		c.TickRate = 30
	}
	if c.FrameTimeout <= 0 {
		c.FrameTimeout = frame.DefaultFrameTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.CoordMin == 0 && c.CoordMax == 0 {
		c.CoordMin, c.CoordMax = entity.WorldMinX.ToInt(), entity.WorldMaxX.ToInt()
	}
	return c
}

// JoinResult is returned by Join; the caller uses it to build the
// join_success payload and, if Started, the game_start broadcast has
// already been sent to every member, the joining player included, by
// the time Join returns.
type JoinResult struct {
	Roster      []string
	Started     bool
	Seed        uint32
	PlayerCount int
	TickRate    int
}

// ReconnectResult carries what the caller needs to answer a
// reconnect request, per spec.md §4.9.
type ReconnectResult struct {
	// SyncFrames is set when the gap is within retention, ready to
	// wrap in a sync_frames envelope.
	SyncFrames []wire.GameFramePayload
	// NeedsFullResync is set when the gap exceeded MAX_FRAME_HISTORY
	// and the caller must send resync_full instead.
	NeedsFullResync bool
	// Snapshot is the msgpack-encoded gamestate.Snapshot, set only
	// when NeedsFullResync is true.
	Snapshot []byte
}

// command is a unit of work funneled through the room's single actor
// goroutine, the concrete realization of spec.md §5's "room task as
// sole writer" alternative (option a), grounded on SPEC_FULL.md §4.13.
type command struct {
	fn func(*Room)
}

// Room is one lockstep game session: membership, the frame engine,
// the shared game state, and the admission bookkeeping that spans
// them. All mutation happens on the actor's single goroutine; every
// exported method either enqueues a command or reads an atomic
// snapshot field safe for concurrent access.
type Room struct {
	ID        string
	CreatedAt time.Time
	conf      Conf
	seed      uint32

	mailbox *actorx.Mailbox[command]
	actor   *actorx.Actor
	ticker  *time.Ticker
	cancel  context.CancelFunc

	members      []string
	slots        map[string]uint16
	slotPlayer   map[uint16]string
	nextSlot     uint16
	conns        map[string]*Connection
	disconnected map[string]*disconnectedRecord

	validator    *input.Validator
	engine       *frame.Engine
	state        *gamestate.State
	started      bool
	lastCommit   time.Time

	memberCount    atomic.Int32
	emptySinceNano atomic.Int64
}

// New constructs a room in its pre-game-start state; call Start to
// begin its actor.
func New(id string, conf Conf) *Room {
	conf = conf.withDefaults()
	createdAt := time.Now()
	r := &Room{
		ID:           id,
		CreatedAt:    createdAt,
		conf:         conf,
		seed:         deriveSeed(id, createdAt, conf.BaseSeed),
		mailbox:      actorx.NewMailbox[command](256),
		slots:        make(map[string]uint16),
		slotPlayer:   make(map[uint16]string),
		conns:        make(map[string]*Connection),
		disconnected: make(map[string]*disconnectedRecord),
		lastCommit:   createdAt,
	}
	r.emptySinceNano.Store(createdAt.UnixNano())
	r.actor = actorx.New(roomWorker{r})
	return r
}

// deriveSeed implements SPEC_FULL.md §9 resolution 4: a room-derived,
// reproducible seed that never reads from the simulation PRNG itself.
func deriveSeed(roomID string, createdAt time.Time, baseSeed uint32) uint32 {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return h.Sum32() ^ uint32(createdAt.UnixNano()) ^ baseSeed
}

// Start runs the room's actor on a new goroutine, deriving its own
// cancelable context from ctx so Stop can tear down this one room
// without affecting any other room sharing the parent context.
func (r *Room) Start(ctx context.Context) {
	childCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.actor.Start(childCtx)
}

// Stop halts the actor, stops the tick ticker if the game has
// started, and closes every live connection.
func (r *Room) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.actor.Stop()
}

// Len reports the current member count without round-tripping
// through the actor; callers (the manager's janitor, metrics) accept
// a slightly stale read.
func (r *Room) Len() int {
	return int(r.memberCount.Load())
}

// EmptyFor reports how long the room has had zero members, used by
// Manager's janitor to destroy rooms past EmptyRoomTimeout.
func (r *Room) EmptyFor() time.Duration {
	if r.Len() > 0 {
		return 0
	}
	since := r.emptySinceNano.Load()
	if since == 0 {
		return 0
	}
	return time.Since(time.Unix(0, since))
}

// enqueue funnels fn onto the actor goroutine, waiting until the
// mailbox accepts it or ctx is done (it does not wait for fn to run),
// matching spec.md §5's suspension-point list (sending
// into a connection's queue is itself a yield point).
func (r *Room) enqueue(ctx context.Context, fn func(*Room)) error {
	return r.mailbox.Send(ctx, command{fn: fn})
}

// Join runs the admission sequence's membership step (spec.md §4.7
// steps 3-6) on the actor goroutine and reports the outcome.
func (r *Room) Join(ctx context.Context, playerID string, conn ws.Conn) (JoinResult, error) {
	type reply struct {
		result JoinResult
		err    error
	}
	replies := make(chan reply, 1)
	if err := r.enqueue(ctx, func(rm *Room) {
		res, err := rm.handleJoin(playerID, conn)
		replies <- reply{res, err}
	}); err != nil {
		return JoinResult{}, err
	}
	select {
	case rep := <-replies:
		return rep.result, rep.err
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

func (r *Room) handleJoin(playerID string, conn ws.Conn) (JoinResult, error) {
	if _, exists := r.slots[playerID]; exists {
		return JoinResult{}, ErrAlreadyMember
	}
	if len(r.members) >= r.conf.MaxPlayers {
		return JoinResult{}, ErrRoomFull
	}

	slot := r.nextSlot
	r.nextSlot++
	r.slots[playerID] = slot
	r.slotPlayer[slot] = playerID
	r.members = append(r.members, playerID)
	r.conns[playerID] = newConnection(playerID, slot, conn)
	r.memberCount.Store(int32(len(r.members)))
	r.emptySinceNano.Store(0)

	r.broadcastExcept(wire.TypePlayerJoined, wire.PlayerJoinedPayload{PlayerID: playerID}, playerID)

	roster := append([]string(nil), r.members...)
	started := false
	if !r.started && len(r.members) >= r.conf.MaxPlayers {
		r.startGame()
		started = true
	}
	return JoinResult{
		Roster:      roster,
		Started:     started,
		Seed:        r.seed,
		PlayerCount: r.conf.MaxPlayers,
		TickRate:    r.conf.TickRate,
	}, nil
}

// startGame initializes the frame engine and game state once
// membership reaches the start threshold (spec.md §4.7 step 6). The
// start threshold is taken to be MaxPlayers, since spec.md leaves the
// exact value an open question (see DESIGN.md).
func (r *Room) startGame() {
	r.state = gamestate.New(r.seed)
	r.validator = input.NewValidator(r.conf.CoordMin, r.conf.CoordMax)
	r.engine = frame.NewEngine(len(r.members))

	for _, pid := range r.members {
		slot := r.slots[pid]
		e := &entity.Entity{ID: int32(slot), W: fixedpoint.FromInt(32), H: fixedpoint.FromInt(32), MaxHP: 100, HP: 100}
		r.state.AddEntity(e)
		r.state.BindPlayer(slot, e.ID)
	}

	r.started = true
	r.ticker = time.NewTicker(tickInterval(r.conf.TickRate))
	r.lastCommit = time.Now()

	r.broadcastAll(wire.TypeGameStart, wire.GameStartPayload{
		Seed:        r.seed,
		PlayerCount: r.conf.MaxPlayers,
		TickRate:    r.conf.TickRate,
	})
}

func tickInterval(tickRate int) time.Duration {
	if tickRate <= 0 {
		return frame.TickInterval
	}
	return time.Second / time.Duration(tickRate)
}

// SubmitInput forwards a decoded input to the frame engine via the
// admission validator, discarding or counting a violation on
// rejection per spec.md §4.5/§4.7.
func (r *Room) SubmitInput(ctx context.Context, playerID string, in input.PlayerInput) error {
	return r.enqueue(ctx, func(rm *Room) {
		rm.handleInput(playerID, in)
	})
}

func (r *Room) handleInput(playerID string, in input.PlayerInput) {
	conn, ok := r.conns[playerID]
	if !ok {
		return
	}
	conn.LastRxTime = time.Now()
	conn.SeqCounter++

	if r.engine == nil || r.validator == nil {
		return
	}
	slot := conn.Slot
	if err := r.validator.Validate(in, r.engine.CurrentFrame(), slot); err != nil {
		return
	}
	r.engine.AddInput(in.FrameID, slot, in)
}

// Leave removes a member, broadcasts player_left, and retains the
// connection record for a possible reconnect per spec.md §4.7.
func (r *Room) Leave(ctx context.Context, playerID string) error {
	return r.enqueue(ctx, func(rm *Room) {
		rm.handleLeave(playerID)
	})
}

func (r *Room) handleLeave(playerID string) {
	conn, ok := r.conns[playerID]
	if !ok {
		return
	}
	delete(r.conns, playerID)
	for i, pid := range r.members {
		if pid == playerID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	r.memberCount.Store(int32(len(r.members)))
	if len(r.members) == 0 {
		r.emptySinceNano.Store(time.Now().UnixNano())
	}

	lastFrame := uint32(0)
	if r.engine != nil {
		lastFrame = r.engine.CurrentFrame()
	}
	r.disconnected[playerID] = &disconnectedRecord{
		playerID:       playerID,
		slot:           conn.Slot,
		lastFrame:      lastFrame,
		disconnectedAt: time.Now(),
	}
	conn.Conn.Close()

	r.broadcastAll(wire.TypePlayerLeft, wire.PlayerLeftPayload{PlayerID: playerID})
}

// Reconnect re-admits a previously disconnected player, honoring the
// MaxDisconnectTime retention window, and prepares the catch-up
// payload per spec.md §4.9.
func (r *Room) Reconnect(ctx context.Context, playerID string, lastFrame uint32, conn ws.Conn) (ReconnectResult, error) {
	type reply struct {
		result ReconnectResult
		err    error
	}
	replies := make(chan reply, 1)
	if err := r.enqueue(ctx, func(rm *Room) {
		res, err := rm.handleReconnect(playerID, lastFrame, conn)
		replies <- reply{res, err}
	}); err != nil {
		return ReconnectResult{}, err
	}
	select {
	case rep := <-replies:
		return rep.result, rep.err
	case <-ctx.Done():
		return ReconnectResult{}, ctx.Err()
	}
}

func (r *Room) handleReconnect(playerID string, lastFrame uint32, conn ws.Conn) (ReconnectResult, error) {
	rec, ok := r.disconnected[playerID]
	if !ok || time.Since(rec.disconnectedAt) > MaxDisconnectTime {
		return ReconnectResult{}, ErrNotMember
	}
	delete(r.disconnected, playerID)

	r.slots[playerID] = rec.slot
	r.slotPlayer[rec.slot] = playerID
	r.members = append(r.members, playerID)
	r.conns[playerID] = newConnection(playerID, rec.slot, conn)
	r.memberCount.Store(int32(len(r.members)))
	r.emptySinceNano.Store(0)

	if r.engine == nil {
		return ReconnectResult{}, nil
	}

	current := r.engine.CurrentFrame()
	oldest, haveOldest := r.engine.OldestRetainedFrame()
	if !haveOldest || lastFrame < oldest {
		snapshot, err := wire.EncodeBytes(r.state.SaveSnapshot())
		if err != nil {
			return ReconnectResult{}, err
		}
		return ReconnectResult{NeedsFullResync: true, Snapshot: snapshot}, nil
	}

	frames := r.engine.HistoryRange(lastFrame+1, current)
	payloads := make([]wire.GameFramePayload, len(frames))
	for i, f := range frames {
		payloads[i] = r.encodeFramePayload(f)
	}
	return ReconnectResult{SyncFrames: payloads}, nil
}

// onTick is invoked once per tick cadence from the actor goroutine
// (never from a foreign goroutine), implementing spec.md §4.6's
// per-room scheduler: attempt tick(), fall back to force_tick() once
// frame_timeout has elapsed since the last commit.
func (r *Room) onTick() {
	if r.engine == nil {
		return
	}

	if f, committed := r.engine.Tick(); committed {
		r.lastCommit = time.Now()
		r.onFrameCommitted(f)
		return
	}

	if time.Since(r.lastCommit) < r.conf.FrameTimeout {
		return
	}

	f := r.engine.ForceTick(r.slotIDs())
	r.lastCommit = time.Now()
	r.onFrameCommitted(f)
}

func (r *Room) slotIDs() []uint16 {
	ids := make([]uint16, 0, len(r.members))
	for _, pid := range r.members {
		ids = append(ids, r.slots[pid])
	}
	return ids
}

// onFrameCommitted runs the authoritative simulation step for a
// committed frame and broadcasts it, per spec.md §1's "game rules
// execute identically on server and clients via the deterministic
// simulation" — the server advances gamestate.State the same way a
// client would, so resync_full has something faithful to serialize.
func (r *Room) onFrameCommitted(f *frame.Frame) {
	for slot, in := range f.Inputs {
		entityID, bound := r.state.PlayerBinding[slot]
		if !bound {
			continue
		}
		e, ok := r.state.GetEntity(entityID)
		if !ok {
			continue
		}
		entity.ApplyInput(e, uint8(in.Flags), defaultMoveSpeed)
	}
	r.state.World.Update(int32(tickInterval(r.conf.TickRate).Milliseconds()))
	r.state.AdvanceFrame()
	r.state.SaveSnapshot()

	r.broadcastFrame(f)
}

func (r *Room) broadcastFrame(f *frame.Frame) {
	r.broadcastAll(wire.TypeGameFrame, r.encodeFramePayload(f))
}

// encodeFramePayload converts f's slot-keyed inputs into the
// player_id-keyed shape the wire protocol sends, using the room's own
// slot table. Shared by the per-tick broadcast and reconnect catch-up.
func (r *Room) encodeFramePayload(f *frame.Frame) wire.GameFramePayload {
	inputs := make(map[string][]byte, len(f.Inputs))
	for slot, in := range f.Inputs {
		if pid, ok := r.slotPlayer[slot]; ok {
			inputs[pid] = in.Serialize()
		}
	}
	return wire.GameFramePayload{
		FrameID:   f.FrameID,
		Inputs:    inputs,
		Confirmed: f.Confirmed,
	}
}

// broadcastAll sends env to every member; a send failure marks that
// connection broken without blocking delivery to the rest, per
// spec.md §4.7's best-effort broadcast.
func (r *Room) broadcastAll(t wire.Type, payload any) {
	r.broadcastExcept(t, payload, "")
}

func (r *Room) broadcastExcept(t wire.Type, payload any, except string) {
	env, err := wire.EncodePayload(t, payload)
	if err != nil {
		return
	}
	data, err := wire.Marshal(env)
	if err != nil {
		return
	}
	for pid, conn := range r.conns {
		if pid == except {
			continue
		}
		if err := conn.Conn.Write(data); err != nil {
			conn.Broken = true
		}
	}
}

// roomWorker adapts Room to actorx.Worker, using the
// StartableWorker/StopableWorker hooks for ticker lifecycle.
type roomWorker struct{ r *Room }

func (w roomWorker) OnStart(context.Context) {}

func (w roomWorker) OnStop() {
	if w.r.ticker != nil {
		w.r.ticker.Stop()
	}
	for _, conn := range w.r.conns {
		conn.Conn.Close()
	}
}

func (w roomWorker) Exec(ctx context.Context) actorx.WorkerState {
	r := w.r
	var tickC <-chan time.Time
	if r.ticker != nil {
		tickC = r.ticker.C
	}

	select {
	case <-ctx.Done():
		return actorx.WorkerStopped
	case cmd := <-r.mailbox.Receive():
		cmd.fn(r)
		return actorx.WorkerRunning
	case <-tickC:
		r.onTick()
		return actorx.WorkerRunning
	}
}
