// Command cspdemo runs a handful of the end-to-end scenarios from
// spec.md §8 against a live Runtime, printing the observed result of
// each so a reader can see the scheduler, channel, and pipeline layers
// working together outside of a test binary.
package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/marcelocantos/csp"
	"github.com/marcelocantos/csp/pipeline"
)

func main() {
	procs := flag.Int("procs", 0, "processor count (0 = runtime.NumCPU())")
	flag.Parse()

	var opts []csp.Option
	if *procs > 0 {
		opts = append(opts, csp.WithProcs(*procs))
	}
	rt := csp.InitRuntime(opts...)
	defer rt.ShutdownRuntime()

	fmt.Println("daisy chain:", daisyChain(rt))
	fmt.Println("fan-out/fan-in:", fanInFanOut(rt))
	fmt.Println("timeout:", timeout(rt))
	fmt.Println("bounded buffer:", boundedBuffer(rt))
}

// daisyChain wires 100 stages, each r >> n; w << n+1, feeds 1000
// zeros into the head, and sums what emerges from the tail. Every
// value should have been incremented 100 times, so the sum should be
// 1000 * 100.
func daisyChain(rt *csp.Runtime) int64 {
	const stages = 100
	const messages = 1000

	head, curR := csp.NewChan[int](rt)
	for i := 0; i < stages; i++ {
		w, r := csp.NewChan[int](rt)
		inR := curR
		rt.Spawn(func(t *csp.Task) {
			for {
				v, ok := inR.Recv(t)
				if !ok {
					w.Release()
					return
				}
				if !w.Send(t, v+1) {
					return
				}
			}
		})
		curR = r
	}
	final := curR

	var sum int64
	var mu sync.Mutex
	done := make(chan struct{})
	rt.Spawn(func(t *csp.Task) {
		for i := 0; i < messages; i++ {
			v, ok := final.Recv(t)
			if !ok {
				break
			}
			mu.Lock()
			sum += int64(v)
			mu.Unlock()
		}
		close(done)
	})

	producer := head
	rt.Spawn(func(t *csp.Task) {
		for i := 0; i < messages; i++ {
			if !producer.Send(t, 0) {
				break
			}
		}
		producer.Release()
	})
	<-done
	return sum
}

// fanInFanOut spawns 50 workers pulling from a shared work channel,
// squaring each value, and pushing onto a shared result channel, then
// sums the results — spec.md §8 scenario 3.
func fanInFanOut(rt *csp.Runtime) int64 {
	const n = 10000
	const workers = 50

	work, workR := csp.NewChan[int](rt)
	resultW, result := csp.NewChan[int](rt)

	for i := 0; i < workers; i++ {
		wr := workR.AddRef()
		rw := resultW.AddRef()
		rt.Spawn(func(t *csp.Task) {
			defer wr.Release()
			defer rw.Release()
			for {
				v, ok := wr.Recv(t)
				if !ok {
					return
				}
				if !rw.Send(t, v*v) {
					return
				}
			}
		})
	}
	workR.Release()
	resultW.Release()

	rt.Spawn(func(t *csp.Task) {
		for i := 0; i < n; i++ {
			if !work.Send(t, i) {
				break
			}
		}
		work.Release()
	})

	var sum int64
	done := make(chan struct{})
	rt.Spawn(func(t *csp.Task) {
		for i := 0; i < n; i++ {
			v, ok := result.Recv(t)
			if !ok {
				break
			}
			sum += int64(v)
		}
		close(done)
	})
	<-done
	return sum
}

// timeout demonstrates alt racing a real rendezvous against
// pipeline.After — spec.md §8 scenario 4: no writer ever sends, so the
// timeout arm must win.
func timeout(rt *csp.Runtime) string {
	_, r := csp.NewChan[int](rt)
	done := make(chan string)
	rt.Spawn(func(t *csp.Task) {
		after := pipeline.After(t, 50*time.Millisecond)
		recv := csp.RecvOp(r)
		idx := t.Alt(false, recv, csp.RecvOp(after))
		if idx == 2 {
			done <- "timeout arm fired"
		} else {
			done <- fmt.Sprintf("unexpected arm %d", idx)
		}
	})
	return <-done
}

// boundedBuffer writes 1..10 into a 5-slot pipeline.Buffer and reads
// all 10 out, summing to 55 — spec.md §8 scenario 6. The first 5
// sends complete immediately; the rest block until the consumer
// drains, which this function can't observe directly, but the result
// sum is the best cheap proxy for correctness here.
func boundedBuffer(rt *csp.Runtime) int64 {
	w, r := csp.NewChan[int](rt)
	done := make(chan int64)

	rt.Spawn(func(t *csp.Task) {
		upstream := pipeline.SpawnBuffer(t, w, 5)
		for i := 1; i <= 10; i++ {
			if !upstream.Send(t, i) {
				break
			}
		}
		upstream.Release()
	})
	rt.Spawn(func(t *csp.Task) {
		var sum int64
		for i := 0; i < 10; i++ {
			v, ok := r.Recv(t)
			if !ok {
				break
			}
			sum += int64(v)
		}
		done <- sum
	})
	return <-done
}
