package conn

import (
	"sync/atomic"
	"time"
)

// monoBase is the process-start reference that atomicTime offsets are
// measured from; it carries a monotonic clock reading.
var monoBase = time.Now()

// atomicTime stores a monotonic-clock time.Time as nanoseconds since
// monoBase, written by a connection's own goroutine and read concurrently by
// the worker's drain goroutine (spec.md §4.4).
type atomicTime struct {
	nanos atomic.Int64
}

func (a *atomicTime) Store(t time.Time) { a.nanos.Store(int64(t.Sub(monoBase))) }
func (a *atomicTime) Load() time.Time   { return monoBase.Add(time.Duration(a.nanos.Load())) }

// atomicBool is a small wrapper for readability at call sites; Go's
// atomic.Bool already provides this, kept as a type alias for clarity.
type atomicBool = atomic.Bool
