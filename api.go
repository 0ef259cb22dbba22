package csp

import "time"

// Task is the explicit handle every blocking API threads through, the
// idiomatic-Go substitute for the reference implementation's
// thread_local g_self: spec.md's model assumes a microthread always
// knows which G it currently is, but Go gives goroutines no portable
// equivalent of thread-local storage tied to "the currently running
// microthread" (as opposed to the underlying OS thread, which is not
// what we want here, since many Gs share each OS thread). Every
// blocking call below therefore takes the caller's own *Task exactly
// the way context.Context is threaded through blocking operations
// elsewhere in idiomatic Go.
type Task struct {
	g  *g
	rt *Runtime
}

// Handle identifies a spawned microthread for Join, distinct from
// Task: a Task is the spawned G's OWN view of itself (passed to its
// entry function), a Handle is what its spawner retains to wait on it.
type Handle struct {
	gp *g
}

// Spawn creates a new microthread running entry, scheduling it onto a
// run queue per spec.md §4.2 (no separate handshake is needed the way
// the fcontext original needs one — entry's closure already owns its
// parameters the moment the goroutine is created).
func (rt *Runtime) Spawn(entry func(t *Task)) *Handle {
	return &Handle{gp: rt.newproc(nil, entry)}
}

// Spawn creates a microthread from within a running one, preferring
// the caller's own processor for the new G (cache-friendly, matching
// newproc's "prefer current P" behavior in the teacher's proc_rem.go).
func (t *Task) Spawn(entry func(t *Task)) *Handle {
	return &Handle{gp: t.rt.newproc(t.g, entry)}
}

// Join blocks the calling microthread until h's microthread has
// returned or panicked, returning the captured panic if any. It is
// expressed as a single rendezvous receive on the target's own
// exception channel (released, not just sent on, the moment the
// target's entry function returns) — so a late-arriving Join after the
// target already exited still completes immediately via the dead-
// channel path, rather than ever blocking forever.
func (t *Task) Join(h *Handle) (panicked *PanicError, ok bool) {
	h.gp.excCh.addref(epReader)
	r := Reader[*PanicError]{c: h.gp.excCh}
	defer r.Release()
	v, matched := r.Recv(t)
	return v, matched
}

// Yield cooperatively cedes the processor, rotating to the next
// runnable member of the local ring (spec.md §4.2's SLEEP status).
func (t *Task) Yield() {
	t.rt.doSwitch(t.g, statusSleep)
}

// Sleep suspends the calling microthread for d.
func (t *Task) Sleep(d time.Duration) {
	t.rt.sleepUntil(t, nowFunc().Add(d))
}

// SleepUntil suspends the calling microthread until deadline.
func (t *Task) SleepUntil(deadline time.Time) {
	t.rt.sleepUntil(t, deadline)
}

// Alt performs a randomized-priority selective wait across ops, per
// spec.md §4.6.
func (t *Task) Alt(nowait bool, ops ...Op) int {
	return t.rt.Alt(t, nowait, ops...)
}

// Prialt performs a fixed-priority-order selective wait across ops.
func (t *Task) Prialt(nowait bool, ops ...Op) int {
	return t.rt.Prialt(t, nowait, ops...)
}

// Describe sets the calling microthread's diagnostic description,
// surfaced by Task.String for debugging — the Go-native
// substitute for csp_descr's pthread_setname_np-backed label, since
// goroutines have no OS-visible name of their own.
func (t *Task) Describe(s string) {
	t.g.desc.Store(s)
}

// String returns the calling microthread's diagnostic label.
func (t *Task) String() string {
	return t.g.String()
}

// Rt returns the runtime the calling microthread belongs to, for
// pipeline tasks that need to spawn helper microthreads or build new
// channels without threading a separate *Runtime parameter through
// every constructor.
func (t *Task) Rt() *Runtime { return t.rt }

// ExceptionSink returns a reader over the runtime-wide fallback
// exception channel: uncaught panics that had no Join-waiter at the
// time they occurred escalate here, per spec.md §7's propagation
// policy. A host program that wants to observe every otherwise-
// unhandled panic should spawn a microthread that loops reading this.
func (rt *Runtime) ExceptionSink() Reader[*PanicError] {
	rt.excGlobal.addref(epReader)
	return Reader[*PanicError]{c: rt.excGlobal}
}

// Metrics returns the runtime's metrics sink (see metrics.go).
func (rt *Runtime) Metrics() *Metrics { return rt.metrics }
