package csp

import (
	"container/heap"
	"time"
)

// timerEntry is a single pending wakeup, grounded on
// original_source/src/microthread.cc's TimerEntry/g_timer_heap
// (a std::priority_queue<TimerEntry, ..., greater<>> ordered so the
// earliest deadline is always on top).
type timerEntry struct {
	deadline time.Time
	gp       *g
	index    int // heap.Interface bookkeeping
}

// timerHeap is a per-processor container/heap min-heap ordered by
// deadline, the direct Go-idiomatic translation of g_timer_heap —
// each processor owns one instead of sharing a single global heap, so
// firing due timers never needs a cross-P lock.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// fireTimers pops and reschedules every entry on p's heap whose
// deadline has passed, pushing each woken microthread back onto the
// local ring exactly as a channel rendezvous would — sleeping
// microthreads are never visible to any channel's waiter queue, so
// they need no vulture-style close handling.
func (rt *Runtime) fireTimers(p *processor) {
	now := nowFunc()
	for {
		p.runMu.Lock()
		if len(p.timers) == 0 || p.timers[0].deadline.After(now) {
			p.runMu.Unlock()
			return
		}
		e := heap.Pop(&p.timers).(*timerEntry)
		p.scheduleLocal(e.gp, false)
		p.runMu.Unlock()
	}
}

// nextTimerDeadline reports the earliest pending deadline across every
// processor (not just p), since a parked worker may need to wake up to
// service another P's timer during work-stealing idle periods — a
// conservative generalization of worker_loop's own single-heap lookup.
func (rt *Runtime) nextTimerDeadline(self *processor) (time.Time, bool) {
	var best time.Time
	found := false
	for _, p := range rt.procs {
		p.runMu.Lock()
		if len(p.timers) > 0 {
			d := p.timers[0].deadline
			if !found || d.Before(best) {
				best, found = d, true
			}
		}
		p.runMu.Unlock()
	}
	return best, found
}

var nowFunc = time.Now

// sleepUntil suspends the calling microthread t until deadline,
// pushing a timerEntry onto its own processor's heap and detaching
// from the local ring exactly as csp_sleep_until does.
func (rt *Runtime) sleepUntil(t *Task, deadline time.Time) {
	self := t.g
	p := self.p
	p.runMu.Lock()
	heap.Push(&p.timers, &timerEntry{deadline: deadline, gp: self})
	p.runMu.Unlock()
	rt.doSwitch(self, statusDetach)
}
