package pipeline

import "github.com/marcelocantos/csp"

// Buffer is a back-pressure buffer of at most capacity pending values
// (capacity <= 0 means unbounded), alt-driven exactly as
// original_source/include/csp/buffer.h's chan::buffer: fill from in
// whenever there's room, drain to out whenever there's something to
// send, and once in dies, drain whatever remains before exiting.
func Buffer[T any](t *csp.Task, in csp.Reader[T], out csp.Writer[T], capacity int) {
	buf := csp.NewRing[T](8)
	full := func() bool { return capacity > 0 && buf.Len() >= capacity }

	for {
		recv := csp.RecvOp(in)
		inOp := recv
		if full() {
			inOp = in.CloseWatch()
		}
		var sendOp csp.Op
		if buf.Empty() {
			sendOp = out.CloseWatch()
		} else {
			v, _ := buf.Front()
			sendOp = csp.SendOp(out, v)
		}

		ops := []csp.Op{inOp, sendOp}
		switch t.Prialt(false, ops...) {
		case 1:
			buf.Push(ops[0].Message().(T))
		case -1:
			for !buf.Empty() {
				v, _ := buf.Front()
				if !out.Send(t, v) {
					return
				}
				buf.Pop()
			}
			return
		case 2:
			buf.Pop()
		case -2:
			return
		}
	}
}

// SpawnBuffer wires an existing downstream writer, spawning Buffer and
// returning the upstream writer half.
func SpawnBuffer[T any](t *csp.Task, out csp.Writer[T], capacity int) csp.Writer[T] {
	w, r := csp.NewChan[T](t.Rt())
	t.Spawn(func(t *csp.Task) { Buffer(t, r, out, capacity) })
	return w
}
