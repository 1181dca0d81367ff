// Package report renders the final run summary to standard output, in the
// shape of the original httpress's closing TOTALS/TRAFFIC/CPUSTAT/TIMING
// printfs (original_source/httpress.c), translated to Go's fmt verbs and
// sirupsen/logrus for everything that is a diagnostic rather than the
// report itself.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shaygalon/htt2/internal/aggregate"
)

// Write prints the four summary lines httpress prints at exit: connection
// and request totals, average and total byte traffic, CPU utilization, and
// throughput timing (spec.md §6: "one-line final report is written to
// standard output" — expanded here to the teacher corpus's multi-line
// TOTALS/TRAFFIC/CPUSTAT/TIMING block, since that is the complete report
// the distilled single-line summary was drawn from).
func Write(w io.Writer, t aggregate.Totals, keepAlive bool, cpuAvg float64) {
	fmt.Fprintf(w, "TOTALS:  %d connect, %d requests, %d success, %d fail, %d (%d) real concurrency, keepalive %v\n",
		t.NumConnect, t.NumSuccess+t.NumFail, t.NumSuccess, t.NumFail, t.RealConcurrency, t.RealConcurrency1, keepAlive)

	var avgBytes, avgOverhead int64
	if t.NumSuccess > 0 {
		avgBytes = t.NumBytesReceived / t.NumSuccess
		avgOverhead = t.NumOverheadReceived / t.NumSuccess
	}
	fmt.Fprintf(w, "TRAFFIC: %d avg bytes, %d avg overhead, %d bytes, %d overhead\n",
		avgBytes, avgOverhead, t.NumBytesReceived, t.NumOverheadReceived)

	fmt.Fprintf(w, "CPUSTAT: %.1f avg\n", cpuAvg)

	sec := int(t.Duration / time.Second)
	millisec := int((t.Duration % time.Second) / time.Millisecond)
	if t.RPS > 100 {
		fmt.Fprintf(w, "TIMING:  %d.%03d seconds, %d rps, %.0f kbps, %.1f ms avg req time\n",
			sec, millisec, int(t.RPS), t.KBPS, float64(t.AvgReqTime)/float64(time.Millisecond))
	} else {
		fmt.Fprintf(w, "TIMING:  %d.%03d seconds, %.2f rps, %.0f kbps, %.1f ms avg req time\n",
			sec, millisec, t.RPS, t.KBPS, float64(t.AvgReqTime)/float64(time.Millisecond))
	}
}
