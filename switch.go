package csp

// Context-switch plumbing.
//
// spec.md §4.1 describes a stackful-fiber jump: make_fiber/jump save
// and restore a register file and stack pointer so one microthread can
// yield control to another, possibly on a different OS thread, with
// the acquire/release pair on the saved-context pointer as the
// memory-ordering bridge. Go gives user code no portable,
// non-assembly, non-cgo way to do that — and the reference
// implementation this spec was distilled from anticipates exactly this
// gap: it ships a second, non-fcontext backend ("g_os_threads") that
// replaces the fiber jump with one dedicated OS thread per
// microthread, parked on a condition variable, woken by
// notify()/wait(). This port adopts that backend unconditionally, with
// a goroutine standing in for the dedicated OS thread and an
// unbuffered channel standing in for the condition variable.
//
// Each processor also owns a g0: a bookkeeping-only *g representing
// the worker goroutine itself (the library's analogue of the host Go
// runtime's own g0), never a member of any run queue. Handing control
// to a microthread and getting it back is the same switchTo either
// way, which is what lets doSwitch fall off the end of an empty local
// ring straight back into the scheduler loop with no special case.
//
// "On landing" (spec.md §4.1 step 4) is the crux of the translation:
// a real fcontext jump resumes execution inside the JUMPED-TO fiber's
// frame, at the point right after the jump instruction — meaning it is
// the jumped-TO side that is on the hook for finishing the jumping-
// FROM g's bookkeeping (releasing its suspending_ window, reclaiming
// it if it was exiting), not the jumping-from g itself (which may not
// run again for an arbitrarily long time, e.g. while parked on a
// channel). handoff/recvSwitch below carry the jumping-from g's
// identity through the channel send so whichever g's goroutine next
// unblocks on its own cont can perform that duty, exactly mirroring
// the real jump's calling convention.
type handoff struct {
	from    *g
	killed  *g
	payload any
}

// switchTo performs the handshake of spec.md §4.1: wake target with
// payload (tagging the handoff with self's identity so target can
// finish self's bookkeeping once it lands), then block until something
// switches back into self — at which point self performs that same
// duty for whichever g just switched into it.
func (rt *Runtime) switchTo(self, target *g, payload any, killed *g) any {
	target.cont <- handoff{from: self, killed: killed, payload: payload}
	return rt.recvSwitch(self)
}

// recvSwitch blocks self until resumed, then performs the landing-side
// half of the handshake on behalf of whichever g just switched into
// self: drains its suspending_ window (pushing it to the global queue
// if a wake was deferred while it raced), and reclaims it if it was
// exiting.
func (rt *Runtime) recvSwitch(self *g) any {
	ho := (<-self.cont).(handoff)
	rt.drainSuspended(ho.from)
	if ho.killed != nil {
		rt.reclaim(ho.killed)
	}
	return ho.payload
}

// drainSuspended is the crux of the cross-thread wake protocol (§5): it
// clears suspending_ under global_mu and, if a waker deferred a wake
// while self was mid-suspend, pushes self back onto the global queue
// instead of losing the wake.
func (rt *Runtime) drainSuspended(self *g) {
	if self == nil {
		return
	}
	if rt.singleP() {
		self.suspending.Store(false)
		return
	}
	rt.globalMu.Lock()
	self.suspending.Store(false)
	woke := self.wakePending.CompareAndSwap(true, false)
	rt.globalMu.Unlock()
	if woke {
		rt.pushToGlobal(self)
		rt.unparkOne()
	}
}

// run switches control from self (the caller) to an explicit gp,
// per spec.md §4.2. status dictates only what happens to self:
//   - statusRun: self is left exactly as-is (the alt single-P direct-
//     handoff optimization uses this — self is still the running,
//     ring-resident microthread, merely ceding the CPU momentarily).
//   - statusSleep: self's local ring membership is unchanged, but it
//     cedes the "runs next" slot (voluntary yield).
//   - statusDetach: self is removed from its local ring (about to
//     block on a channel or a timer).
//   - statusExit: self is removed from its local ring and reclaimed by
//     whichever g lands the switch next.
func (rt *Runtime) run(self, gp *g, status switchStatus) {
	if gp == self {
		panic("csp: run(self, self) — a microthread cannot switch to itself")
	}
	if p := self.p; p != nil {
		p.runMu.Lock()
		switch status {
		case statusSleep:
			p.advanceBusy()
		case statusDetach, statusExit:
			p.deschedule(self)
		}
		p.runMu.Unlock()
	}

	var killArg *g
	if status == statusExit {
		killArg = self
	}
	rt.switchTo(self, gp, nil, killArg)
}

// doSwitch is do_switch: it applies status to self's local ring
// membership exactly like run does, then lets the ring pick the next
// target itself — the next local ring member if one remains, else the
// owning processor's g0, which resumes the scheduler's worker loop.
//
// For statusDetach specifically, spec.md §4.2 calls for a proactive
// check, made before releasing run_mu: if a waker already raced in and
// set wake_pending_ while self was still ring-resident, self reinserts
// itself as current and returns without ever actually suspending —
// the rendezvous already completed on the waker's side.
func (rt *Runtime) doSwitch(self *g, status switchStatus) {
	p := self.p
	if p == nil {
		panic("csp: doSwitch of a g with no processor")
	}
	p.runMu.Lock()
	switch status {
	case statusSleep:
		p.advanceBusy()
	case statusDetach:
		p.deschedule(self)
		if self.wakePending.CompareAndSwap(true, false) {
			p.scheduleLocal(self, true)
			p.runMu.Unlock()
			return
		}
	case statusExit:
		p.deschedule(self)
	}
	target := p.busy
	if target == nil {
		target = p.g0
	}
	p.runMu.Unlock()

	var killArg *g
	if status == statusExit {
		killArg = self
	}
	rt.switchTo(self, target, nil, killArg)
}

// reclaim runs once, on whichever g's landing discovers a dying
// microthread chained into the handoff: it waits for the dying
// goroutine's entry function to fully return (closing done), then
// decrements the live count.
func (rt *Runtime) reclaim(killyou *g) {
	<-killyou.done
	killyou.setStatus(gDead)
	if rt.liveGs.Add(-1) == 0 {
		rt.parkMu.Lock()
		rt.parkCond.Broadcast()
		rt.parkMu.Unlock()
	}
}

// gMain is the body of every microthread's dedicated goroutine. It
// performs the warm-up handshake (block for the first resume), runs
// the entry closure, recovers panics as an UncaughtException per
// spec.md §7, and on exit performs a terminal doSwitch(exit) so
// whichever g lands next reclaims its resources.
//
// self.excCh's writer ref is released unconditionally on the way out,
// panic or not: a normal return has nothing to deliver, but a Join
// already parked on the reader side still needs to be woken, and it is
// woken the same way any other reader is woken by a dead write
// endpoint — by releasing it. A panicking exit gets one chance to
// deliver the PanicError to an already-waiting Join first; once that
// window closes, a later Join only ever observes the dead channel, not
// a replayed panic, matching ordinary channel semantics.
func gMain(rt *Runtime, self *g, t *Task) {
	rt.recvSwitch(self) // warm-up: block until spawn's first switch lands here

	defer func() {
		if r := recover(); r != nil {
			self.panicV = newPanicError(r)
			publishUncaught(rt, self)
		}
		self.excCh.release(epWriter)
		close(self.done)
		rt.doSwitch(self, statusExit)
	}()

	self.entry(t)
}
