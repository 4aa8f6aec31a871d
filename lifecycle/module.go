// Package lifecycle sequences a process's top-level components through
// Init/Run/Destroy, the way the teacher's czx.Module/Run composition
// root does, so the entry point in cmd/ can start and stop the room
// manager and the transport listener in a defined order without
// hand-rolling its own signal/waitgroup plumbing.
package lifecycle

import "sync"

// Module is one top-level component of the process: the room manager,
// the transport listener, or anything else cmd/ wires together.
type Module interface {
	// Init performs one-time setup, including binding any listener.
	// A non-nil error aborts startup before any module's Run is
	// called.
	Init() error
	// Run blocks until done is closed, performing whatever background
	// work the module needs (or nothing, if Init already started it).
	Run(done <-chan struct{})
	// Destroy releases resources after Run has returned.
	Destroy()
}

type entry struct {
	mi  Module
	wg  sync.WaitGroup
	sig chan struct{}
}

// Runner sequences a fixed set of modules through Init, concurrent
// Run, and reverse-order Destroy. Unlike the teacher's package-level
// registry, a Runner is a value so a process can own more than one
// independently, and tests can construct a fresh one per case.
type Runner struct {
	mods []*entry
}

// NewRunner constructs an empty Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Register adds mi to the runner. Order matters: Init runs in
// registration order, Destroy runs in reverse.
func (r *Runner) Register(mi Module) {
	r.mods = append(r.mods, &entry{mi: mi, sig: make(chan struct{})})
}

// Start calls Init on every registered module in order, then starts
// each one's Run on its own goroutine. It returns the first Init
// error, if any, without starting the remaining modules or any
// already-started Run.
func (r *Runner) Start() error {
	for _, m := range r.mods {
		if err := m.mi.Init(); err != nil {
			return err
		}
	}
	for _, m := range r.mods {
		m.wg.Add(1)
		go func(e *entry) {
			defer e.wg.Done()
			e.mi.Run(e.sig)
		}(m)
	}
	return nil
}

// Stop signals every module's Run to return, waits for each, and then
// calls Destroy in reverse registration order.
func (r *Runner) Stop() {
	for i := len(r.mods) - 1; i >= 0; i-- {
		m := r.mods[i]
		close(m.sig)
		m.wg.Wait()
		m.mi.Destroy()
	}
}
