package csp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendRecvRoundTrip(t *testing.T) {
	rt := InitRuntime(WithProcs(2))
	defer rt.ShutdownRuntime()

	w, r := NewChan[int](rt)
	done := make(chan int, 1)

	rt.Spawn(func(task *Task) {
		ok := w.Send(task, 42)
		require.True(t, ok)
	})
	rt.Spawn(func(task *Task) {
		v, ok := r.Recv(task)
		require.True(t, ok)
		done <- v
	})

	select {
	case v := <-done:
		require.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("rendezvous never completed")
	}
}

func TestSpawnJoin(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	done := make(chan struct{})
	var ran bool

	rt.Spawn(func(task *Task) {
		h := task.Spawn(func(task *Task) {
			ran = true
		})
		p, ok := task.Join(h)
		require.Nil(t, p)
		require.False(t, ok) // no panic pending, exception channel died without a value
		close(done)
	})

	select {
	case <-done:
		require.True(t, ran)
	case <-time.After(2 * time.Second):
		t.Fatal("join never completed")
	}
}

func TestJoinObservesPanic(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	done := make(chan *PanicError, 1)

	rt.Spawn(func(task *Task) {
		h := task.Spawn(func(task *Task) {
			// Give the parent's Join a chance to register as a Phase-2
			// waiter before the panic fires, so delivery (not the
			// dead-channel race) is what this test exercises.
			task.Sleep(30 * time.Millisecond)
			panic("boom")
		})
		p, ok := task.Join(h)
		require.True(t, ok)
		done <- p
	})

	select {
	case p := <-done:
		require.NotNil(t, p)
		require.Equal(t, "boom", p.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("join never completed")
	}
}

func TestPrialtPriorityOrderIndependentOfChannelID(t *testing.T) {
	rt := InitRuntime(WithProcs(2))
	defer rt.ShutdownRuntime()

	w1, r1 := NewChan[int](rt) // channel id n
	w2, r2 := NewChan[int](rt) // channel id n+1, allocated after r1/w1

	ready := make(chan struct{}, 2)
	rt.Spawn(func(t *Task) {
		ready <- struct{}{}
		w1.Send(t, 1)
	})
	rt.Spawn(func(t *Task) {
		ready <- struct{}{}
		w2.Send(t, 2)
	})
	<-ready
	<-ready
	// give both writers time to register as Phase-2 waiters before the
	// reader's Prialt scans for an immediate match.
	time.Sleep(50 * time.Millisecond)

	result := make(chan int, 1)
	rt.Spawn(func(t *Task) {
		// r2 listed first: priority order follows ops-slice position,
		// not channel id, so this must match r2's op (index 1) even
		// though r1's channel was created first.
		idx := t.Prialt(false, RecvOp(r2), RecvOp(r1))
		result <- idx
	})

	select {
	case idx := <-result:
		require.Equal(t, 1, idx)
	case <-time.After(2 * time.Second):
		t.Fatal("prialt never completed")
	}
}

func TestAltAllInactiveReturnsZero(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	done := make(chan int, 1)
	rt.Spawn(func(t *Task) {
		w, _ := NewChan[int](t.Rt())
		op := SendOp(w, 7).When(false)
		done <- t.Prialt(false, op)
	})

	select {
	case idx := <-done:
		require.Equal(t, 0, idx)
	case <-time.After(2 * time.Second):
		t.Fatal("prialt never completed")
	}
}

func TestNowaitWithNoPeerReturnsZero(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	done := make(chan int, 1)
	rt.Spawn(func(t *Task) {
		_, r := NewChan[int](t.Rt())
		done <- t.Prialt(true, RecvOp(r))
	})

	select {
	case idx := <-done:
		require.Equal(t, 0, idx)
	case <-time.After(2 * time.Second):
		t.Fatal("nowait prialt blocked")
	}
}

func TestCloseWakesPendingAltWithNegativeIndex(t *testing.T) {
	rt := InitRuntime(WithProcs(2))
	defer rt.ShutdownRuntime()

	w1, r1 := NewChan[int](rt) // never written, and released only after the alt resolves
	w2, r2 := NewChan[int](rt)

	result := make(chan int, 1)
	rt.Spawn(func(t *Task) {
		idx := t.Prialt(false, RecvOp(r1), RecvOp(r2))
		result <- idx
	})

	time.Sleep(50 * time.Millisecond)
	w2.Release() // drop the only writer ref on r2's channel

	select {
	case idx := <-result:
		require.Equal(t, -2, idx) // op index 2 (1-based) died
	case <-time.After(2 * time.Second):
		t.Fatal("prialt never woke on close")
	}

	w1.Release()
	r1.Release()
	r2.Release()
}

func TestTrySendNoReaderFails(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	done := make(chan bool, 1)
	rt.Spawn(func(t *Task) {
		w, _ := NewChan[int](t.Rt())
		done <- w.TrySend(t, 1)
	})

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("trysend blocked")
	}
}

func TestChannelRefcountReleaseWakesReader(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	w, r := NewChan[int](rt)
	done := make(chan bool, 1)
	rt.Spawn(func(t *Task) {
		_, ok := r.Recv(t)
		done <- ok
	})
	time.Sleep(20 * time.Millisecond)
	w.Release()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("recv never woke after release")
	}
}

func TestYieldRunsOtherLocalWork(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	var order []int
	done := make(chan struct{})
	rt.Spawn(func(t *Task) {
		t.Spawn(func(t *Task) {
			order = append(order, 2)
			close(done)
		})
		order = append(order, 1)
		t.Yield()
		order = append(order, 3)
	})

	select {
	case <-done:
		time.Sleep(10 * time.Millisecond)
		require.Equal(t, []int{1, 2, 3}, order)
	case <-time.After(2 * time.Second):
		t.Fatal("yield scenario never completed")
	}
}

func TestSleepBlocksCallerOnly(t *testing.T) {
	rt := InitRuntime(WithProcs(2))
	defer rt.ShutdownRuntime()

	fast := make(chan time.Time, 1)
	slow := make(chan time.Time, 1)
	rt.Spawn(func(t *Task) {
		t.Sleep(5 * time.Millisecond)
		fast <- time.Now()
	})
	rt.Spawn(func(t *Task) {
		t.Sleep(60 * time.Millisecond)
		slow <- time.Now()
	})

	ft := <-fast
	st := <-slow
	require.True(t, ft.Before(st))
}

func TestChannelRefcountConservation(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	defer rt.ShutdownRuntime()

	w, r := NewChan[int](rt)
	require.EqualValues(t, 1, w.c.eps[epWriter].refcount)

	w2 := w.AddRef()
	w3 := w.AddRef()
	require.EqualValues(t, 3, w.c.eps[epWriter].refcount)

	w2.Release()
	require.EqualValues(t, 2, w.c.eps[epWriter].refcount)
	require.True(t, w.c.alive(epWriter))

	w3.Release()
	require.EqualValues(t, 1, w.c.eps[epWriter].refcount)
	require.True(t, w.c.alive(epWriter))

	w.Release()
	require.EqualValues(t, 0, w.c.eps[epWriter].refcount)
	require.False(t, w.c.alive(epWriter))

	r.Release()
}

func TestAltQueueMembershipExclusiveAfterPhase3(t *testing.T) {
	rt := InitRuntime(WithProcs(2))
	defer rt.ShutdownRuntime()

	w, r := NewChan[int](rt)
	done := make(chan struct{})

	rt.Spawn(func(task *Task) {
		// Registers as a Phase-2 waiter, then is woken by the matching
		// send below. Once doAlt returns, this g must no longer be
		// present on r's waiters ring — Phase 3 removes every
		// registration it made, regardless of which op matched.
		idx := task.Prialt(false, RecvOp(r))
		require.Equal(t, 1, idx)
		close(done)
	})

	time.Sleep(20 * time.Millisecond) // let the reader register before the send
	rt.Spawn(func(task *Task) {
		w.Send(task, 9)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("alt never matched")
	}

	time.Sleep(10 * time.Millisecond) // let Phase 3's cleanup run before inspecting
	require.True(t, r.c.eps[epReader].waiters.Empty())
}

func TestShutdownRejectsNewSpawn(t *testing.T) {
	rt := InitRuntime(WithProcs(1))
	rt.ShutdownRuntime()

	require.PanicsWithValue(t, ErrShutdown, func() {
		rt.Spawn(func(t *Task) {})
	})
}
