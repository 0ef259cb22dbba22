package pipeline

import "github.com/marcelocantos/csp"

// Killswitch forwards in to out exactly like a pass-through, except it
// also dies the moment keepalive's writer dies — keepalive is never
// actually read, it only serves as a liveness tether. Grounded on
// original_source/include/csp/killswitch.h's chan::killswitch.
func Killswitch[T any](t *csp.Task, in csp.Reader[T], out csp.Writer[T], keepalive csp.Reader[Poke]) {
	for {
		ops := []csp.Op{keepalive.CloseWatch(), out.CloseWatch(), csp.RecvOp(in)}
		if t.Prialt(false, ops...) != 3 {
			return
		}
		v := ops[2].Message().(T)
		sendOp := csp.SendOp(out, v)
		if t.Prialt(false, keepalive.CloseWatch(), sendOp) != 2 {
			return
		}
	}
}
