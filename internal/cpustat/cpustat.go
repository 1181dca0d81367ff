// Package cpustat samples system-wide CPU utilization once a second for
// the final report (spec.md §6: "Reads /proc/stat once per second in a side
// thread for CPU percentage sampling"). Named out of scope for the core
// engine, but still an ambient concern every run reports on, so it is
// implemented here against gopsutil rather than a hand-rolled /proc/stat
// reader — the same dependency the rest of the retrieval pack reaches for
// whenever it needs portable host metrics.
package cpustat

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// sampleInterval matches spec.md §6's "once per second".
const sampleInterval = time.Second

// Sampler accumulates a running mean of system-wide CPU percent, sampled
// from a side goroutine until Stop is called.
type Sampler struct {
	cancel context.CancelFunc
	done   chan struct{}

	samples int
	sum     float64
	last    float64
}

// Start launches the sampling goroutine. The caller stops it with Stop once
// every worker has exited (spec.md §5's stop_cpu_stats flag).
func Start() *Sampler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sampler{cancel: cancel, done: make(chan struct{})}
	go s.run(ctx)
	return s
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			percents, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil || len(percents) == 0 {
				continue
			}
			s.last = percents[0]
			s.sum += percents[0]
			s.samples++
		}
	}
}

// Stop signals the sampling goroutine to exit and blocks until it has,
// corresponding to any worker setting spec.md §5's stop_cpu_stats flag.
func (s *Sampler) Stop() {
	s.cancel()
	<-s.done
}

// Average returns the mean of every sample taken. With no samples counted it
// returns the last recorded sample instead, which is 0 for a Sampler that
// never took one (a run shorter than one second).
func (s *Sampler) Average() float64 {
	if s.samples == 0 {
		return s.last
	}
	return s.sum / float64(s.samples)
}
