package pipeline

import "github.com/marcelocantos/csp"

// Enumerate writes every element of c to sink in order, optionally
// cycling forever, grounded on
// original_source/include/csp/enumerate.h's chan::enumerate.
func Enumerate[T any](t *csp.Task, c []T, sink csp.Writer[T], cyclic bool) {
	for {
		for _, e := range c {
			if !sink.Send(t, e) {
				return
			}
		}
		if !cyclic {
			return
		}
	}
}

// Cycle is Enumerate with cyclic forced true.
func Cycle[T any](t *csp.Task, c []T, sink csp.Writer[T]) {
	Enumerate(t, c, sink, true)
}
