package csp

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Runtime is the scheduler: a fixed pool of processors, each bound to
// one worker goroutine, a global run queue for microthreads woken by a
// peer in multi-processor mode (freshly spawned microthreads go onto a
// processor's local ring, not the global queue), and the park/unpark plumbing
// that lets idle workers sleep instead of spinning. It mirrors the
// teacher's Schedt (proc_rem.go) generalized from a single fixed GOMAXPROCS
// simulation to a runtime a host program starts and stops explicitly
// (spec.md §6's InitRuntime/ShutdownRuntime), and its shutdown
// discipline is grounded on original_source/src/runtime.cpp's
// Runtime::shutdown (brief park_mu cycle to close the lost-wakeup
// window, broadcast, join workers).
type Runtime struct {
	procs []*processor

	globalMu  sync.Mutex
	globalRun *Ring[*g]

	parkMu    sync.Mutex
	parkCond  *sync.Cond
	stopping  atomic.Bool
	liveGs    atomic.Int64
	idleProcs atomic.Int64

	nextGoid   atomic.Uint64
	nextChanID atomic.Uint64

	log     logger
	metrics *Metrics

	excGlobal *channel // process-wide fallback exception sink, spec.md §7

	wg sync.WaitGroup
}

// Option configures InitRuntime, following the functional-options
// pattern used throughout the pack (logiface.New, eventloop.New).
type Option func(*runtimeConfig)

type runtimeConfig struct {
	numProcs int
	logger   logger
	metrics  *Metrics
}

// WithProcs overrides the processor count (default runtime.NumCPU(),
// mirroring schedinit's GOMAXPROCS read).
func WithProcs(n int) Option {
	return func(c *runtimeConfig) {
		if n > 0 {
			c.numProcs = n
		}
	}
}

// WithLogger installs a structured logger (see logging.go) for the
// runtime's start/stop and uncaught-panic events. A nil logger
// silences them.
func WithLogger(l logger) Option {
	return func(c *runtimeConfig) { c.logger = l }
}

// WithMetrics installs a pre-constructed Metrics sink (see metrics.go)
// instead of the default private one, letting a host program share one
// sink across multiple Runtimes.
func WithMetrics(m *Metrics) Option {
	return func(c *runtimeConfig) { c.metrics = m }
}

// InitRuntime starts the scheduler: it allocates the processor pool,
// starts one worker goroutine per processor parked awaiting work, and
// returns a Runtime ready for Spawn. It corresponds to
// Runtime::instance().init(num_procs) in original_source/src/runtime.cpp.
func InitRuntime(opts ...Option) *Runtime {
	cfg := runtimeConfig{numProcs: runtime.NumCPU()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.metrics == nil {
		cfg.metrics = NewMetrics()
	}

	rt := &Runtime{
		globalRun: NewRing[*g](64),
		log:       cfg.logger,
		metrics:   cfg.metrics,
	}
	rt.parkCond = sync.NewCond(&rt.parkMu)
	rt.excGlobal = newChannel(rt, identityCopy)

	rt.procs = make([]*processor, cfg.numProcs)
	for i := range rt.procs {
		p := &processor{id: i, rt: rt}
		p.g0 = &g{id: rt.nextGoid.Add(1), rt: rt, cont: make(chan any), p: p}
		p.g0.setStatus(gRunning)
		rt.procs[i] = p
	}
	rt.wg.Add(len(rt.procs))
	for _, p := range rt.procs {
		w := &workerThread{p: p, quit: make(chan struct{})}
		p.worker = w
		go rt.workerLoop(w)
	}
	rt.log.Info("runtime started", "procs", len(rt.procs))
	return rt
}

// singleP reports whether this runtime has exactly one processor, the
// condition under which alt's direct-handoff optimization (preserved
// from channel.cc's push path) and drainSuspended's fast path apply.
func (rt *Runtime) singleP() bool { return len(rt.procs) == 1 }

// ShutdownRuntime stops every worker, per Runtime::shutdown: it sets
// stopping, cycles park_mu once to close the window between a worker
// checking stopping and parking, broadcasts, then waits for every
// worker goroutine to notice and return.
func (rt *Runtime) ShutdownRuntime() {
	rt.stopping.Store(true)
	rt.parkMu.Lock()
	rt.parkCond.Broadcast()
	rt.parkMu.Unlock()
	for _, p := range rt.procs {
		close(p.worker.quit)
	}
	rt.parkMu.Lock()
	rt.parkCond.Broadcast()
	rt.parkMu.Unlock()
	rt.wg.Wait()
	rt.log.Info("runtime stopped")
}

// pushToGlobal enqueues gp on the global run queue, per
// Runtime::push_to_global — asserts gp is not already a member of
// any queue.
func (rt *Runtime) pushToGlobal(gp *g) {
	rt.globalMu.Lock()
	if gp.inGlobal || gp.next != nil {
		rt.globalMu.Unlock()
		panic("csp: push_to_global of an already-queued g")
	}
	gp.inGlobal = true
	gp.setStatus(gRunnable)
	rt.globalRun.Push(gp)
	rt.globalMu.Unlock()
}

func (rt *Runtime) globRunqGet() *g {
	rt.globalMu.Lock()
	defer rt.globalMu.Unlock()
	gp, ok := rt.globalRun.Pop()
	if !ok {
		return nil
	}
	gp.inGlobal = false
	return gp
}

// unparkOne wakes every parked worker, matching the (misleadingly
// named) Runtime::unpark_one in original_source/src/runtime.cpp, whose
// own comment notes it is really a broadcast: a correct, if slightly
// wasteful, choice over picking exactly one idle worker, since spurious
// wakeups are cheap (the woken worker simply re-checks for work and
// re-parks if it finds none).
func (rt *Runtime) unparkOne() {
	rt.parkMu.Lock()
	rt.parkCond.Broadcast()
	rt.parkMu.Unlock()
}

// workerLoop is the body of the goroutine bound to processor p, the
// direct analogue of Runtime::worker_loop: fire due timers, run the
// local ring until empty, pull from the global queue, steal from a
// sibling P, and park (with the nearest timer deadline as a wakeup
// bound) only once all of those come up empty.
func (rt *Runtime) workerLoop(w *workerThread) {
	defer rt.wg.Done()
	p := w.p
	for {
		select {
		case <-w.quit:
			return
		default:
		}
		if rt.stopping.Load() {
			return
		}

		rt.fireTimers(p)

		if gp := p.localNext(); gp != nil {
			rt.executeOn(p, gp)
			continue
		}

		if gp := rt.globRunqGet(); gp != nil {
			p.runMu.Lock()
			p.scheduleLocal(gp, true)
			p.runMu.Unlock()
			continue
		}

		if gp := rt.stealWork(p); gp != nil {
			p.runMu.Lock()
			p.scheduleLocal(gp, true)
			p.runMu.Unlock()
			continue
		}

		rt.parkWorker(p)
	}
}

// parkWorker blocks p's worker until woken or its nearest timer comes
// due, mirroring worker_loop's park_cv.wait_until(deadline, predicate)
// / park_cv.wait(predicate) split.
func (rt *Runtime) parkWorker(p *processor) {
	deadline, hasDeadline := rt.nextTimerDeadline(p)

	rt.parkMu.Lock()
	defer rt.parkMu.Unlock()
	p.parked = true
	defer func() { p.parked = false }()

	for !rt.hasWork(p) && !rt.stopping.Load() {
		if !hasDeadline {
			rt.parkCond.Wait()
			continue
		}
		wait := time.Until(deadline)
		if wait <= 0 {
			return
		}
		timer := time.AfterFunc(wait, func() {
			rt.parkMu.Lock()
			rt.parkCond.Broadcast()
			rt.parkMu.Unlock()
		})
		rt.parkCond.Wait()
		timer.Stop()
		return
	}
}

func (rt *Runtime) hasWork(p *processor) bool {
	if !p.empty() {
		return true
	}
	rt.globalMu.Lock()
	g := !rt.globalRun.Empty()
	rt.globalMu.Unlock()
	if g {
		return true
	}
	for _, other := range rt.procs {
		if other != p && !other.empty() {
			return true
		}
	}
	return false
}

// wakeSuspended implements the cross-P half of spec.md §4.2's
// `schedule()`: push gp to the global queue and unpark a worker,
// unless gp is presently inside its suspending_ window, in which case
// defer the wake (wake_pending_ = true) for gp's own landing side
// (drainSuspended) to pick up — the crux of the cross-thread wake
// protocol in §5. Called only from doAlt and the channel's wakeDead/
// tryDeliver paths once a peer has already been CAS-claimed, so it runs
// at most once per wake.
func (rt *Runtime) wakeSuspended(gp *g) {
	if rt.singleP() {
		gp.p.runMu.Lock()
		gp.p.scheduleLocal(gp, false)
		gp.p.runMu.Unlock()
		rt.unparkOne()
		return
	}
	rt.globalMu.Lock()
	if gp.suspending.Load() {
		gp.wakePending.Store(true)
		rt.globalMu.Unlock()
		return
	}
	if gp.inGlobal {
		rt.globalMu.Unlock()
		return
	}
	gp.inGlobal = true
	gp.setStatus(gRunnable)
	rt.globalRun.Push(gp)
	rt.globalMu.Unlock()
	rt.unparkOne()
}

// pickProcessor chooses a home processor for a freshly spawned g:
// the caller's own P if it is running inside one (cache-friendly,
// matching newproc's "prefer the current P" behavior in the teacher's
// proc_rem.go), else a round-robin pick.
func (rt *Runtime) pickProcessor(caller *g) *processor {
	if caller != nil && caller.p != nil {
		return caller.p
	}
	n := int(rt.nextGoid.Load()) % len(rt.procs)
	return rt.procs[n]
}

// newproc implements spawn (spec.md §4.2): allocate the g and its
// goroutine, bump live_gs, and publish it as runnable. Unlike the
// fcontext original, a freshly created Go goroutine needs no separate
// handshake to "capture its starting parameters" — entry's closure
// already owns them — so this skips straight to scheduling it onto the
// chosen processor's local ring (never the global queue), then unparks
// idle workers so a parked owner or a sibling thief picks it up.
func (rt *Runtime) newproc(caller *g, entry func(t *Task)) *g {
	if rt.stopping.Load() {
		panic(ErrShutdown)
	}
	gp := rt.newG(entry)
	t := &Task{g: gp, rt: rt}
	rt.liveGs.Add(1)
	go gMain(rt, gp, t)

	p := rt.pickProcessor(caller)
	gp.p = p
	p.runMu.Lock()
	p.scheduleLocal(gp, false)
	p.runMu.Unlock()
	rt.unparkOne()
	return gp
}

// stealWork takes one runnable g from the tail of the first sibling
// processor (visited in id order, starting just after self) whose local
// ring holds more than one member, the direct analogue of the teacher's
// runqsteal/runqstealFromP.
func (rt *Runtime) stealWork(self *processor) *g {
	n := len(rt.procs)
	if n < 2 {
		return nil
	}
	start := self.id
	for i := 1; i < n; i++ {
		victim := rt.procs[(start+i)%n]
		if victim == self {
			continue
		}
		victim.runMu.Lock()
		if victim.busy != nil && victim.n > 1 {
			gp := victim.busy.prev // steal from the tail, leave the head running
			victim.deschedule(gp)
			victim.runMu.Unlock()
			return gp
		}
		victim.runMu.Unlock()
	}
	return nil
}

// executeOn switches p's worker goroutine (p.g0) into gp and blocks
// until the local ring fully drains back to g0 — the scheduling step
// of worker_loop's main loop (schedule()/execute() in the teacher's
// proc_rem.go), generalized so that once control passes to the ring it
// stays there, cooperatively, until every member has blocked, slept
// out to a timer, or exited.
func (rt *Runtime) executeOn(p *processor, gp *g) {
	gp.setStatus(gRunning)
	rt.run(p.g0, gp, statusRun)
}
