package frame

import (
	"sync"
	"time"

	"github.com/kongshan001/game-frame-sync/input"
)

// TickInterval is the fixed 30 Hz logical clock cadence (33.33 ms).
const TickInterval = time.Second / 30

// LoopConf configures a Loop, mirroring the teacher's LoopConf shape
// but scoped to the lockstep engine's two timers instead of a
// frequency-tunable generic one.
type LoopConf struct {
	TickInterval time.Duration
	FrameTimeout time.Duration
}

func defaultLoopConf(conf LoopConf) LoopConf {
	if conf.TickInterval == 0 {
		conf.TickInterval = TickInterval
	}
	if conf.FrameTimeout == 0 {
		conf.FrameTimeout = DefaultFrameTimeout
	}
	return conf
}

// OnCommit is invoked with every frame the engine commits, whether by
// Tick or ForceTick, so the room can marshal and broadcast it.
type OnCommit func(f *Frame)

// Loop drives one room's Engine on the fixed tick cadence, attempting
// force_tick once frame_timeout elapses without a commit. It mirrors
// the teacher's ticker-driven Loop, simplified to the single sync
// cadence the lockstep engine always runs.
type Loop struct {
	mu   sync.Mutex
	conf LoopConf
	quit chan struct{}

	engine     *Engine
	playerIDs  []uint16
	onCommit   OnCommit
	lastCommit time.Time
}

// NewLoop constructs a loop over engine. playerIDs is the fixed
// player-id set used by ForceTick to know which slots to zero-fill.
func NewLoop(engine *Engine, playerIDs []uint16, conf LoopConf, onCommit OnCommit) *Loop {
	return &Loop{
		conf:       defaultLoopConf(conf),
		quit:       make(chan struct{}),
		engine:     engine,
		playerIDs:  playerIDs,
		onCommit:   onCommit,
		lastCommit: now(),
	}
}

// Start runs the scheduler until Stop is called. It blocks the
// calling goroutine; callers run it in its own goroutine, the same
// way the teacher's LoopManager.Add does for each room.
func (l *Loop) Start() {
	ticker := time.NewTicker(l.conf.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.quit:
			return
		case <-ticker.C:
			l.step()
		}
	}
}

func (l *Loop) step() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, committed := l.engine.Tick(); committed {
		l.lastCommit = now()
		if l.onCommit != nil {
			l.onCommit(f)
		}
		return
	}

	if now().Sub(l.lastCommit) < l.conf.FrameTimeout {
		return
	}

	f := l.engine.ForceTick(l.playerIDs)
	l.lastCommit = now()
	if l.onCommit != nil {
		l.onCommit(f)
	}
}

// AddInput forwards to the underlying engine under the loop's lock,
// so admission never races with a tick in progress.
func (l *Loop) AddInput(frameID uint32, playerID uint16, data input.PlayerInput) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine.AddInput(frameID, playerID, data)
}

// Stop halts the scheduler. It is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
}
