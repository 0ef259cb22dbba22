package pipeline

import "github.com/marcelocantos/csp"

// Chain drains each reader in rr in turn, forwarding every value to
// out, until out's reader dies or every reader in rr is exhausted —
// grounded on original_source/include/csp/chain.h's chan::chain.
func Chain[T any](t *csp.Task, rr []csp.Reader[T], out csp.Writer[T]) {
	for _, r := range rr {
		for {
			ops := []csp.Op{csp.RecvOp(r), out.CloseWatch()}
			if t.Prialt(false, ops...) != 1 {
				break
			}
			if !out.Send(t, ops[0].Message().(T)) {
				return
			}
		}
	}
}

// SpawnChain wires rr into a freshly spawned Chain, returning the
// downstream reader half.
func SpawnChain[T any](t *csp.Task, rr []csp.Reader[T]) csp.Reader[T] {
	w, r := csp.NewChan[T](t.Rt())
	t.Spawn(func(t *csp.Task) { Chain(t, rr, w) })
	return r
}
