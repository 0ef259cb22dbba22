package pipeline

import "github.com/marcelocantos/csp"

// Sink calls f with every value received on in until its writer dies,
// grounded on original_source/include/csp/sink.h's chan::sink.
func Sink[T any](t *csp.Task, in csp.Reader[T], f func(T)) {
	for {
		v, ok := in.Recv(t)
		if !ok {
			return
		}
		f(v)
	}
}

// SpawnSinkhole spawns a Sink that writes every received value into
// *dst, overwriting it each time — a convenience for tests that just
// want to observe the last value a pipeline produced.
func SpawnSinkhole[T any](t *csp.Task, dst *T) csp.Writer[T] {
	w, r := csp.NewChan[T](t.Rt())
	t.Spawn(func(t *csp.Task) {
		Sink(t, r, func(v T) { *dst = v })
	})
	return w
}
