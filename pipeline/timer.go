package pipeline

import (
	"time"

	"github.com/marcelocantos/csp"
)

// Poke is the idiomatic-Go stand-in for the reference library's
// poke_t: a zero-size value used purely as a signal, never inspected.
type Poke = struct{}

// After returns a reader that fires exactly once, after d has
// elapsed, the building block for the timeout scenario in spec.md §8
// scenario 4. Grounded on original_source/include/csp/timer.h's
// csp::after.
func After(t *csp.Task, d time.Duration) csp.Reader[Poke] {
	w, r := csp.NewChan[Poke](t.Rt())
	t.Spawn(func(t *csp.Task) {
		t.Sleep(d)
		w.Send(t, Poke{})
	})
	return r
}

// Tick returns a reader that fires repeatedly at interval, delivering
// the deadline each firing was scheduled for. Deadlines accumulate off
// the first tick's absolute time rather than re-arming relative to
// "now", preventing drift — matching csp::tick.
func Tick(t *csp.Task, interval time.Duration) csp.Reader[time.Time] {
	w, r := csp.NewChan[time.Time](t.Rt())
	t.Spawn(func(t *csp.Task) {
		next := time.Now().Add(interval)
		for {
			t.SleepUntil(next)
			if !w.Send(t, next) {
				return
			}
			next = next.Add(interval)
		}
	})
	return r
}
