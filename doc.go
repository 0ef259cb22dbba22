// Package csp implements an M:N cooperative concurrency runtime in the
// CSP (Communicating Sequential Processes) tradition: lightweight
// microthreads, multiplexed onto a small pool of OS-thread-bound
// processors, communicate exclusively through synchronous, unbuffered,
// typed rendezvous channels with a selective-wait primitive (Alt/Prialt).
//
// The scheduler (Runtime, processor, g), the channel rendezvous engine
// (channel, Op, Alt/Prialt) and the context-switch plumbing (switchTo,
// the suspending/wake-pending protocol) are the three subsystems that
// make up the hard engineering of this package; everything under
// pipeline/ is a thin client built on top of them.
package csp
