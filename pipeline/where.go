package pipeline

import "github.com/marcelocantos/csp"

// Where forwards values from in to out for which pred is true,
// dropping the rest, grounded on
// original_source/include/csp/where.h's chan::where.
func Where[T any](t *csp.Task, in csp.Reader[T], out csp.Writer[T], pred func(T) bool) {
	for {
		ops := []csp.Op{csp.RecvOp(in), out.CloseWatch()}
		if t.Prialt(false, ops...) != 1 {
			return
		}
		v := ops[0].Message().(T)
		if pred(v) && !out.Send(t, v) {
			return
		}
	}
}

// SpawnWhere wires an existing downstream writer, spawning Where and
// returning the upstream writer half.
func SpawnWhere[T any](t *csp.Task, out csp.Writer[T], pred func(T) bool) csp.Writer[T] {
	w, r := csp.NewChan[T](t.Rt())
	t.Spawn(func(t *csp.Task) { Where(t, r, out, pred) })
	return w
}
