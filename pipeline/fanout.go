package pipeline

import "github.com/marcelocantos/csp"

// Fanout transfers incoming messages from in to every writer received
// on newOut. While there are no subscribers, in is not read (only
// watched for death). A message whose every subscriber has died by the
// time it is sent is dropped — that is unavoidable, since a subscriber
// can disappear between send attempts. Dead subscriber writers are
// pruned as they're discovered. Fanout returns once newOut's or in's
// writer dies.
//
// This is a simplified translation of
// original_source/include/csp/fanout.h's chan::fanout: the original
// additionally multiplexes a *second* upstream-reattachment channel
// (new_in) so fanout can request a fresh producer reader once it goes
// from zero back to one subscriber; that reattachment dance only
// matters for producers built to serve disjoint subscriber
// generations, which this port's single fixed upstream reader doesn't
// need.
func Fanout[T any](t *csp.Task, in csp.Reader[T], newOut csp.Reader[csp.Writer[T]]) {
	var outs []csp.Writer[T]
	for {
		ops := make([]csp.Op, 0, len(outs)+2)
		subRecv := csp.RecvOp(newOut)
		ops = append(ops, subRecv)

		inRecv := csp.RecvOp(in)
		if len(outs) > 0 {
			ops = append(ops, inRecv)
		} else {
			ops = append(ops, in.CloseWatch())
		}
		base := len(ops)
		for _, o := range outs {
			ops = append(ops, o.CloseWatch())
		}

		idx := t.Prialt(false, ops...)
		switch {
		case idx == 1:
			outs = append(outs, ops[0].Message().(csp.Writer[T]))
		case idx == 2:
			v := ops[1].Message().(T)
			live := outs[:0]
			for _, o := range outs {
				if o.Send(t, v) {
					live = append(live, o)
				}
			}
			outs = live
		case idx < 0 && -idx > base:
			i := -idx - base - 1
			outs = append(outs[:i], outs[i+1:]...)
		default:
			// newOut dead (-1) or in dead (-2), with or without subscribers.
			return
		}
	}
}
