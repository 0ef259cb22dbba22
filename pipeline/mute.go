package pipeline

import "github.com/marcelocantos/csp"

// Mute blocks until out's reader dies, never sending anything —
// grounded on original_source/include/csp/mute.h's chan::mute. Useful
// as a placeholder writer handle in an Alt/Prialt op list that should
// never itself be selected.
func Mute[T any](t *csp.Task, out csp.Writer[T]) {
	t.Alt(false, out.CloseWatch())
}
