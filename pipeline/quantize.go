package pipeline

import "github.com/marcelocantos/csp"

// Quantize accumulates units arriving on source and emits fixed-size
// quantum chunks to sink, delivering whatever fractional amount is
// left over to residue once source dies — the fixed-quantum overload
// of original_source/include/csp/quantize.h's chan::quantize (the
// header's other overload reads the quantum size itself off a
// separate channel; this port implements only the simpler, far more
// common fixed-quantum form, noted in DESIGN.md).
func Quantize[T Numeric](t *csp.Task, source csp.Reader[T], quantum T, sink csp.Writer[T], residue csp.Writer[T]) {
	var acc, v T
	for {
		var srcOp, sinkOp csp.Op
		recv := csp.RecvOp(source)
		if acc < quantum {
			srcOp = recv
		} else {
			srcOp = source.CloseWatch()
		}
		if acc >= quantum {
			sinkOp = csp.SendOp(sink, quantum)
		} else {
			sinkOp = sink.CloseWatch()
		}

		ops := []csp.Op{srcOp, sinkOp}
		switch t.Prialt(false, ops...) {
		case 1:
			v = ops[0].Message().(T)
			acc += v
		case 2:
			acc -= quantum
		default:
			residue.Send(t, acc)
			return
		}
	}
}
