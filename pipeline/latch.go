package pipeline

import "github.com/marcelocantos/csp"

// Latch caches the most recent value from in and keeps re-offering it
// to out, so a slow or bursty consumer always sees the latest sample
// rather than blocking the producer — grounded on
// original_source/include/csp/latch.h's chan::latch.
func Latch[T any](t *csp.Task, in csp.Reader[T], out csp.Writer[T]) {
	ops := []csp.Op{out.CloseWatch(), csp.RecvOp(in)}
	if t.Prialt(false, ops...) <= 0 {
		return
	}
	v := ops[1].Message().(T)
	for {
		ops = []csp.Op{csp.RecvOp(in), csp.SendOp(out, v)}
		idx := t.Prialt(false, ops...)
		if idx <= 0 {
			break
		}
		if idx == 1 {
			v = ops[0].Message().(T)
		}
	}
	for out.Send(t, v) {
	}
}
