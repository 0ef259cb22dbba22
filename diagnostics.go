package csp

import "fmt"

// Diagnostics: short, cheap descriptions for microthreads and channels,
// grounded on csp_descr/csp_chdescr in the reference implementation and
// on the goroutineid package's approach to labeling the calling
// goroutine for debugging — adapted here to label the calling
// microthread instead, since this library owns its own scheduling unit
// distinct from the underlying goroutine.

// Describe attaches a short label to ch, shown by ch.String(). Calling
// it is optional and has no effect on rendezvous behavior.
func (ch *channel) Describe(s string) { ch.desc.Store(s) }

func (ch *channel) String() string {
	d, _ := ch.desc.Load().(string)
	if d == "" {
		return fmt.Sprintf("chan%d", ch.id)
	}
	return fmt.Sprintf("chan%d(%s)", ch.id, d)
}

// Describe attaches a label to the channel underlying w, visible from
// either endpoint's String().
func (w Writer[T]) Describe(s string) { w.c.Describe(s) }
func (r Reader[T]) Describe(s string) { r.c.Describe(s) }

func (w Writer[T]) String() string { return w.c.String() }
func (r Reader[T]) String() string { return r.c.String() }

// ProcSnapshot summarizes one processor's local ring for diagnostics —
// the Go equivalent of csp_descr's per-G status line, aggregated.
type ProcSnapshot struct {
	ID      int
	Running string
	Queued  int
	Parked  bool
}

// Diagnose returns one snapshot per processor, useful for tests and
// for a host program's own health-check endpoint.
func (rt *Runtime) Diagnose() []ProcSnapshot {
	out := make([]ProcSnapshot, len(rt.procs))
	for i, p := range rt.procs {
		p.runMu.Lock()
		running := "-"
		if p.busy != nil {
			running = p.busy.String()
		}
		out[i] = ProcSnapshot{ID: p.id, Running: running, Queued: p.n, Parked: p.parked}
		p.runMu.Unlock()
	}
	return out
}
