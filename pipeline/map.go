package pipeline

import "github.com/marcelocantos/csp"

// Map reads values from in, applies f, and writes the result to out,
// until in's writer dies or out's reader dies, grounded on
// original_source/include/csp/map.h's chan::map.
func Map[A, B any](t *csp.Task, in csp.Reader[A], out csp.Writer[B], f func(A) B) {
	for {
		ops := []csp.Op{csp.RecvOp(in), out.CloseWatch()}
		if t.Prialt(false, ops...) <= 0 {
			return
		}
		if !out.Send(t, f(ops[0].Message().(A))) {
			return
		}
	}
}

// SpawnMap wires an existing downstream writer, spawning Map as a new
// microthread and returning the upstream writer half it reads from.
func SpawnMap[A, B any](t *csp.Task, out csp.Writer[B], f func(A) B) csp.Writer[A] {
	w, r := csp.NewChan[A](t.Rt())
	t.Spawn(func(t *csp.Task) { Map(t, r, out, f) })
	return w
}
