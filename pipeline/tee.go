package pipeline

import "github.com/marcelocantos/csp"

// Tee forwards every value from in to out, and also to teeOut once
// out accepted it — "tee successfully delivered messages to a side
// channel", per original_source/include/csp/tee.h. Once teeOut's
// reader dies, Tee keeps forwarding to out alone.
func Tee[T any](t *csp.Task, in csp.Reader[T], out csp.Writer[T], teeOut csp.Writer[T]) {
	for {
		ops := []csp.Op{out.CloseWatch(), csp.RecvOp(in)}
		if t.Prialt(false, ops...) <= 0 {
			return
		}
		v := ops[1].Message().(T)
		if !out.Send(t, v) {
			return
		}
		if !teeOut.Send(t, v) {
			break
		}
	}
	for {
		ops := []csp.Op{out.CloseWatch(), csp.RecvOp(in)}
		if t.Prialt(false, ops...) <= 0 {
			return
		}
		if !out.Send(t, ops[1].Message().(T)) {
			return
		}
	}
}
