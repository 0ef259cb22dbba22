package pipeline

import "github.com/marcelocantos/csp"

// Blackhole drains and discards every value from in until its writer
// dies, grounded on original_source/include/csp/blackhole.h.
func Blackhole[T any](t *csp.Task, in csp.Reader[T]) {
	for {
		if _, ok := in.Recv(t); !ok {
			return
		}
	}
}
