package pipeline

import "github.com/marcelocantos/csp"

// Numeric is the set of built-in types Count can step over.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Count emits start, start+step, ... up to (but excluding) stop, and,
// if cyclic, wraps back around indefinitely, preserving any residue
// that doesn't evenly divide the range rather than restarting exactly
// at start every cycle — grounded on
// original_source/include/csp/count.h's chan::count.
func Count[T Numeric](t *csp.Task, sink csp.Writer[T], start, stop, step T, cyclic bool) {
	i := start
	for {
		for ; i < stop; i += step {
			if !sink.Send(t, i) {
				return
			}
		}
		if !cyclic {
			return
		}
		i -= stop - start
	}
}

// CountForever emits start, start+step, ... without ever stopping
// (until sink's reader dies).
func CountForever[T Numeric](t *csp.Task, sink csp.Writer[T], start, step T) {
	for i := start; sink.Send(t, i); i += step {
	}
}
