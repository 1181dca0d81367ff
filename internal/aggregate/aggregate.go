// Package aggregate combines every worker's counters and every connection's
// success count into the final run report (spec.md §4.7). Grounded on the
// teacher's client/stats.go summation pass, generalized from its fixed
// latency-histogram merge to the counter/ratio set this engine reports.
package aggregate

import "time"

// Totals is the sum of every worker's Counters plus the derived rates
// spec.md §4.7 defines.
type Totals struct {
	NumConnect          int64
	NumSuccess          int64
	NumFail             int64
	NumBytesReceived    int64
	NumOverheadReceived int64

	Duration        time.Duration
	RPS             float64
	KBPS            float64
	AvgReqTime      time.Duration
	RealConcurrency int
	RealConcurrency1 int
}

// CounterSource is the subset of *conn.Counters the aggregator reads; it is
// an interface purely so this package never imports conn, keeping the
// dependency direction one-way (conn has no knowledge of aggregate).
type CounterSource interface {
	Load() (numConnect, numSuccess, numFail, numBytesReceived, numOverheadReceived int64)
}

// Sum folds every worker's counters and every connection's final
// success_count into a Totals, given the wall-clock duration of the run and
// the -n value used to size real_concurrency₁'s threshold.
func Sum(counters []CounterSource, successCounts []int64, duration time.Duration, numRequests int64) Totals {
	var t Totals
	for _, c := range counters {
		nc, ns, nf, nb, no := c.Load()
		t.NumConnect += nc
		t.NumSuccess += ns
		t.NumFail += nf
		t.NumBytesReceived += nb
		t.NumOverheadReceived += no
	}
	t.Duration = duration

	secs := duration.Seconds()
	if secs > 0 {
		t.RPS = float64(t.NumSuccess) / secs
		t.KBPS = float64(t.NumBytesReceived+t.NumOverheadReceived) / secs / 1024
	}

	numConns := len(successCounts)
	if t.NumSuccess > 0 && numConns > 0 {
		t.AvgReqTime = time.Duration(float64(duration) * float64(numConns) / float64(t.NumSuccess))
	}

	threshold := numRequestsPerConnTenth(numRequests, numConns)
	for _, sc := range successCounts {
		if sc >= 1 {
			t.RealConcurrency++
		}
		if sc >= threshold {
			t.RealConcurrency1++
		}
	}
	return t
}

// numRequestsPerConnTenth implements spec.md §4.7's
// max(2, num_requests/num_connections/10) threshold.
func numRequestsPerConnTenth(numRequests int64, numConns int) int64 {
	if numConns == 0 {
		return 2
	}
	v := numRequests / int64(numConns) / 10
	if v < 2 {
		return 2
	}
	return v
}
