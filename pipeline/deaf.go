package pipeline

import "github.com/marcelocantos/csp"

// Deaf blocks until in's writer dies, never reading anything —
// grounded on original_source/include/csp/deaf.h's chan::deaf.
func Deaf[T any](t *csp.Task, in csp.Reader[T]) {
	t.Alt(false, in.CloseWatch())
}
