// Package pipeline is a thin client of package csp: a library of
// pre-built microthread bodies (map, filter, buffer, tee, fanout,
// chain, rpc, timers, and a handful of small stateful tasks) matching
// original_source/include/csp/*.h one header per file. None of it
// reaches into csp's internals — every task here is built purely out
// of Spawn, Alt/Prialt, Reader/Writer, exactly as a host program
// using this module would build its own pipeline stages.
package pipeline
