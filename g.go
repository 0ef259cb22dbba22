package csp

import (
	"fmt"
	"sync/atomic"
)

// gStatus mirrors the _Gidle/_Grunnable/... status bits of the teacher's
// GMP simulation (proc_rem.go), generalized with the two extra states
// (waiting, dead) the channel/alt engine needs to observe.
type gStatus int32

const (
	gIdle gStatus = iota
	gRunnable
	gRunning
	gWaiting
	gDead
)

func (s gStatus) String() string {
	switch s {
	case gIdle:
		return "idle"
	case gRunnable:
		return "runnable"
	case gRunning:
		return "running"
	case gWaiting:
		return "waiting"
	case gDead:
		return "dead"
	default:
		return "unknown"
	}
}

// altState is the three-value state machine guarding a microthread's
// participation in an Alt/Prialt: idle, registered-and-waiting, or
// claimed by a peer that is about to deliver (or has delivered) a value.
type altState uint32

const (
	altIdle altState = iota
	altWaiting
	altClaimed
)

// switchStatus dictates what happens to the *caller* of run/switchTo,
// per spec.md §4.2.
type switchStatus int

const (
	statusRun switchStatus = iota
	statusSleep
	statusDetach
	statusExit
)

// g is a microthread: an owned goroutine (our substitute for an owned
// stack plus saved fiber context — see switch.go for why), intrusive
// ring-membership pointers, and the alt/suspend bookkeeping described in
// spec.md §3.
type g struct {
	id uint64

	rt *Runtime

	// cont is the rendezvous gate a fiber jump becomes in this port:
	// switchTo(target, data) sends on target.cont to wake it, then
	// blocks receiving on its own cont until something switches back.
	cont chan any

	// entry runs on g's dedicated goroutine once warmed up.
	entry func(t *Task)

	// ring membership (local run queue, P-owned; mutually exclusive with
	// inGlobal, enforced under p.runMu / rt.globalMu respectively).
	prev, next *g
	p          *processor
	inGlobal   bool

	status atomic.Int32 // gStatus

	altState    atomic.Uint32
	suspending  atomic.Bool
	wakePending atomic.Bool
	ops         []Op
	signal      int

	done    chan struct{}
	panicV  *PanicError
	excCh   *channel // dedicated exception channel; gp holds its writer ref

	desc atomic.Value // string, diagnostics only
}

func (gp *g) String() string {
	d, _ := gp.desc.Load().(string)
	if d == "" {
		return fmt.Sprintf("g%d", gp.id)
	}
	return fmt.Sprintf("g%d(%s)", gp.id, d)
}

func (gp *g) setStatus(s gStatus) { gp.status.Store(int32(s)) }
func (gp *g) getStatus() gStatus  { return gStatus(gp.status.Load()) }

// newG allocates a microthread and its dedicated exception channel. It
// neither starts gp's goroutine nor publishes gp to any run queue — the
// caller (newproc) starts gMain and schedules gp.
func (rt *Runtime) newG(entry func(t *Task)) *g {
	gp := &g{
		id:    rt.nextGoid.Add(1),
		rt:    rt,
		cont:  make(chan any),
		entry: entry,
		done:  make(chan struct{}),
	}
	gp.setStatus(gIdle)
	gp.excCh = newChannel(rt, identityCopy)
	gp.excCh.addref(epWriter)
	return gp
}
