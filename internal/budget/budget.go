// Package budget implements the global request-initiation budget shared by
// every worker: a fixed request count, a wall-clock deadline, or no limit at
// all. More is the only hot-path shared write in the whole engine, so the
// counter lives alone on its own cache line (see the pad fields of Budget).
package budget

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Mode selects how More decides a run is finished.
type Mode int

const (
	// ModeCount stops once the counter exceeds NumRequests.
	ModeCount Mode = iota
	// ModeTime stops once the wall clock passes StartTime+RunTime.
	ModeTime
	// ModeInfinite never stops on its own.
	ModeInfinite
)

// progressMinStep below which progress lines are suppressed, ported
// verbatim from the original heartbeat_cb's progress_step>=10 guard.
const progressMinStep = 10

// Budget is the process-wide termination criterion. NumRequests, RunTime,
// Mode and Quiet are immutable after New; after Start, the only fields that
// change are counter (More), lastProgressPrint (Time-mode progress) and
// forceStop (Stop).
type Budget struct {
	_ [64]byte // cache-line pad: isolate counter from whatever precedes it

	counter atomic.Int64

	_ [56]byte // cache-line pad: isolate counter from the fields below

	Mode         Mode
	NumRequests  int64
	RunTime      time.Duration
	StartTime    time.Time
	Quiet        bool
	ProgressStep int64

	lastProgressPrint atomic.Int64 // unix nanos, Time-mode throttle
	forceStop         atomic.Bool  // set by signal handling on SIGINT/SIGTERM
}

// New constructs a Budget. For ModeCount, ProgressStep is derived as
// min(50000, numRequests/4), and progress printing is disabled entirely when
// that step would fall below progressMinStep (matches httpress's
// config.progress_step computation).
func New(mode Mode, numRequests int64, runTime time.Duration, quiet bool) *Budget {
	b := &Budget{
		Mode:        mode,
		NumRequests: numRequests,
		RunTime:     runTime,
		Quiet:       quiet,
	}
	if mode == ModeCount {
		step := numRequests / 4
		if step > 50000 {
			step = 50000
		}
		b.ProgressStep = step
	}
	return b
}

// Start records the wall-clock origin used by ModeTime and progress
// throttling. Call once, immediately before spawning workers.
func (b *Budget) Start() {
	b.StartTime = time.Now()
}

// More atomically claims the next request slot and reports whether the
// caller is allowed to proceed. Every request-initiation site in the
// reactor must call this exactly once before dialing or rearming.
func (b *Budget) More() bool {
	if b.forceStop.Load() {
		return false
	}

	n := b.counter.Add(1)

	switch b.Mode {
	case ModeInfinite:
		return true
	case ModeTime:
		ok := time.Since(b.StartTime) < b.RunTime
		b.maybePrintTimed()
		return ok
	default: // ModeCount
		ok := n <= b.NumRequests
		b.maybePrintCount(n)
		return ok
	}
}

// Count returns the number of requests initiated so far.
func (b *Budget) Count() int64 {
	return b.counter.Load()
}

// Exhausted peeks the stop condition without claiming a request slot, for the
// heartbeat's global-stop check (spec.md §4.4): "checks global stop
// conditions (budget reached in Count mode; wall clock past
// start_time+run_time in Time mode)".
func (b *Budget) Exhausted() bool {
	if b.forceStop.Load() {
		return true
	}
	switch b.Mode {
	case ModeInfinite:
		return false
	case ModeTime:
		return time.Since(b.StartTime) >= b.RunTime
	default: // ModeCount
		return b.counter.Load() >= b.NumRequests
	}
}

// Stop forces Exhausted to report true regardless of mode, for the
// orchestrator's SIGINT/SIGTERM handler (spec.md §5): the heartbeat picks
// this up on its next 100ms trip and begins the normal drain sequence, so an
// interrupted run still produces a consistent report instead of aborting
// mid-request.
func (b *Budget) Stop() {
	b.forceStop.Store(true)
}

func (b *Budget) maybePrintCount(n int64) {
	if b.Quiet || b.ProgressStep < progressMinStep {
		return
	}
	if n%b.ProgressStep == 0 || n == b.NumRequests {
		fmt.Fprintf(os.Stdout, "progress: %d of %d requests\n", n, b.NumRequests)
	}
}

// maybePrintTimed prints at most once every 4s, per spec.md §4.5.
func (b *Budget) maybePrintTimed() {
	if b.Quiet {
		return
	}
	now := time.Now().UnixNano()
	last := b.lastProgressPrint.Load()
	if now-last < int64(4*time.Second) {
		return
	}
	if !b.lastProgressPrint.CompareAndSwap(last, now) {
		return
	}
	fmt.Fprintf(os.Stdout, "progress: %s elapsed\n", time.Since(b.StartTime).Round(time.Second))
}
