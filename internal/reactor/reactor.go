// Package reactor implements the per-worker event loop from spec.md §4.4:
// a worker owns a disjoint slice of connections and drives them to
// completion, with a 100ms heartbeat enforcing the global stop condition
// and draining connections that stall past their deadline.
//
// Grounded on the teacher's client/worker.go goroutine-per-connection
// dispatch and its heartbeat/stats ticker; translated from the original's
// single-threaded epoll callback loop to one goroutine per connection since
// Go's netpoller already performs the readiness multiplexing that loop
// existed to provide. The heartbeat keeps its original role unchanged: it
// alone decides when to start shutdown and which connections to kill.
package reactor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaygalon/htt2/internal/budget"
	"github.com/shaygalon/htt2/internal/conn"
	"github.com/sirupsen/logrus"
)

// heartbeatInterval matches spec.md §4.4's "every 100 ms".
const heartbeatInterval = 100 * time.Millisecond

// minAvgReqTime is substituted when a worker has not yet completed a single
// request at shutdown time (spec.md §4.4: "if num_success == 0, uses 0.1s").
const minAvgReqTime = 100 * time.Millisecond

// maxAvgReqTime clamps the computed average so one abnormally slow worker
// cannot stretch every other worker's drain window (spec.md §4.4: "clamped
// to [-, 1.0]s").
const maxAvgReqTime = time.Second

// drainMultiple is the deadline multiplier past which a still-active
// connection is presumed stuck (spec.md §4.4, §4.7: "bounded by 4 ×
// avg_req_time").
const drainMultiple = 4

// Worker owns a disjoint slice of connections plus the counters and budget
// they all feed into. One Worker corresponds to one partition of the -c
// connection count across the engine's thread pool.
type Worker struct {
	ID       int
	Conns    []*conn.Conn
	Counters *conn.Counters
	Budget   *budget.Budget
	Log      *logrus.Logger

	startTime          time.Time
	shutdownInProgress atomic.Bool
	avgReqTime         atomic.Int64 // nanoseconds, set once at shutdown start
}

// New builds a Worker over an already-constructed connection slice; the
// caller (the orchestrator) is responsible for partitioning connections and
// building each Conn against a shared session.Pool and this Worker's own
// Counters.
func New(id int, conns []*conn.Conn, counters *conn.Counters, b *budget.Budget, log *logrus.Logger) *Worker {
	return &Worker{
		ID:       id,
		Conns:    conns,
		Counters: counters,
		Budget:   b,
		Log:      log,
	}
}

// Run spawns one goroutine per connection and drives the heartbeat loop
// until every connection reports done. It blocks until the worker has fully
// wound down, so the orchestrator calls it from its own per-worker
// goroutine and joins via sync.WaitGroup.
func (w *Worker) Run() {
	w.startTime = time.Now()

	var wg sync.WaitGroup
	wg.Add(len(w.Conns))
	for _, c := range w.Conns {
		c := c
		go func() {
			defer wg.Done()
			c.Run()
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-allDone:
			return
		case <-ticker.C:
			w.heartbeat()
		}
	}
}

// heartbeat is the body of every 100ms trip: on the first trip after the
// global stop condition fires it freezes avg_req_time and flips
// shutdown_in_progress; every trip after that drains stuck connections.
// shutdown_in_progress is sticky (spec.md §3), so the freeze happens
// exactly once.
func (w *Worker) heartbeat() {
	if !w.shutdownInProgress.Load() {
		if !w.Budget.Exhausted() {
			return
		}
		w.armShutdown()
		return
	}
	w.drain()
}

func (w *Worker) armShutdown() {
	if !w.shutdownInProgress.CompareAndSwap(false, true) {
		return
	}
	w.avgReqTime.Store(int64(w.computeAvgReqTime()))
}

// computeAvgReqTime implements spec.md §4.4 step 1 verbatim:
// "avg_req_time = (now - worker_start) * num_conn / num_success, clamped to
// [-, 1.0]s; if num_success == 0, uses 0.1s".
func (w *Worker) computeAvgReqTime() time.Duration {
	numSuccess := w.Counters.NumSuccess.Load()
	if numSuccess == 0 {
		return minAvgReqTime
	}
	elapsed := time.Since(w.startTime)
	avg := elapsed * time.Duration(len(w.Conns)) / time.Duration(numSuccess)
	if avg > maxAvgReqTime {
		avg = maxAvgReqTime
	}
	return avg
}

// drain implements spec.md §4.4's bounded-wait kill: any not-done connection
// idle past 4×avg_req_time is hard-killed; everything else is left alone to
// make cooperative progress, since a goroutine blocked in a socket Read/Write
// needs no explicit re-arm the way a callback-driven reactor would.
func (w *Worker) drain() {
	deadline := time.Duration(w.avgReqTime.Load()) * drainMultiple
	now := time.Now()
	for _, c := range w.Conns {
		if c.Done() {
			continue
		}
		if c.IdleFor(now) > deadline {
			c.Kill()
		}
	}
}
