package csp

import "sync"

// processor is this port's P: one goroutine-owning worker binds to
// exactly one processor and runs its local ring until it empties, then
// looks further afield (global queue, then work-stealing) before
// parking. Per spec.md's explicit mandate, the local run queue is an
// intrusive doubly-linked ring built directly out of g.prev/g.next
// (the teacher's own proc_rem.go instead backs its local queue with a
// fixed runq[256] array — a deliberate generalization recorded in
// DESIGN.md, since an array can't hold an unbounded number of
// microthreads and this library has no such bound).
type processor struct {
	id int

	rt *Runtime

	runMu sync.Mutex
	// busy is the current head of the local ring (the microthread this
	// P is presently running, or about to run); nil when the ring is
	// empty. The ring is circular: busy.prev is the tail.
	busy *g
	n    int // live members of the local ring, for diagnostics/steal

	timers timerHeap

	parked bool // set while this P's worker goroutine is blocked in park

	// g0 is a bookkeeping-only microthread standing in for the worker
	// goroutine itself, mirroring the "main" sentinel Microthread each
	// Processor carries in the reference implementation. It is never a
	// member of any run queue; doSwitch falls back to it once the
	// local ring empties, handing control back to workerLoop.
	g0 *g

	worker *workerThread
}

// workerThread is the Go stand-in for the dedicated OS thread a real P
// binds to in the teacher's proc_rem.go (and in the spec's own model):
// it is the goroutine that actually calls run()/switchTo and therefore
// the one whose stack anchors the whole local ring while it is parked.
type workerThread struct {
	p    *processor
	quit chan struct{}
}

// scheduleLocal splices gp into p's local ring. If makeCurrent, gp
// becomes the new busy head (used when a freshly spawned microthread
// should run next, spec.md §4.2's "make current" flag); otherwise gp is
// appended just behind the current tail (ordinary runnable-again case).
// Caller holds p.runMu.
func (p *processor) scheduleLocal(gp *g, makeCurrent bool) {
	gp.p = p
	gp.inGlobal = false
	gp.setStatus(gRunnable)

	if p.busy == nil {
		gp.prev, gp.next = gp, gp
		p.busy = gp
		p.n = 1
		return
	}
	tail := p.busy.prev
	tail.next = gp
	gp.prev = tail
	gp.next = p.busy
	p.busy.prev = gp
	p.n++
	if makeCurrent {
		p.busy = gp
	}
}

// deschedule removes gp from whatever local ring it is a member of.
// Caller holds the owning p's runMu. gp.p is left set (it still
// "belongs" to p, e.g. while parked on a channel, so a later wake
// re-homes it to the same P by default); only the ring-membership
// pointers are cleared, matching spec.md §4's `next_ != null ⇔ in a
// local ring` invariant. No-op if gp is not a member of this ring.
func (p *processor) deschedule(gp *g) {
	if gp.p != p || gp.next == nil {
		return
	}
	if gp.next == gp {
		p.busy = nil
	} else {
		gp.prev.next = gp.next
		gp.next.prev = gp.prev
		if p.busy == gp {
			p.busy = gp.next
		}
	}
	gp.prev, gp.next = nil, nil
	p.n--
}

// advanceBusy rotates the local ring's head to the next member,
// implementing the voluntary-yield case of spec.md §4.2 (status ==
// sleep): self stays scheduled, but cedes the "runs next" slot.
// Caller holds p.runMu.
func (p *processor) advanceBusy() {
	if p.busy != nil {
		p.busy = p.busy.next
	}
}

// localNext returns the current busy head of the local ring without
// removing or running it, for the worker loop's schedule step. It does NOT
// deschedule gp from its ring membership — schedule()/run() do that
// via statusDetach/statusExit when a microthread actually blocks or
// exits; an ordinary reschedule leaves gp as a ring member, merely no
// longer "busy".
func (p *processor) localNext() *g {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.busy
}

func (p *processor) empty() bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.busy == nil
}
