package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shaygalon/htt2/internal/aggregate"
)

func TestWriteProducesFourLines(t *testing.T) {
	totals := aggregate.Totals{
		NumConnect:          10,
		NumSuccess:          100,
		NumFail:             2,
		NumBytesReceived:    30000,
		NumOverheadReceived: 3000,
		Duration:            5 * time.Second,
		RPS:                 20,
		KBPS:                6.4,
		AvgReqTime:          50 * time.Millisecond,
		RealConcurrency:     10,
		RealConcurrency1:    8,
	}

	var buf bytes.Buffer
	Write(&buf, totals, true, 42.0)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Write produced %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "TOTALS:") {
		t.Fatalf("first line = %q, want TOTALS prefix", lines[0])
	}
	if !strings.HasPrefix(lines[1], "TRAFFIC:") {
		t.Fatalf("second line = %q, want TRAFFIC prefix", lines[1])
	}
	if !strings.HasPrefix(lines[2], "CPUSTAT:") {
		t.Fatalf("third line = %q, want CPUSTAT prefix", lines[2])
	}
	if !strings.HasPrefix(lines[3], "TIMING:") {
		t.Fatalf("fourth line = %q, want TIMING prefix", lines[3])
	}
}

func TestWriteHighRPSUsesIntegerFormat(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, aggregate.Totals{NumSuccess: 1, RPS: 500, Duration: time.Second}, false, 0)
	if !strings.Contains(buf.String(), "500 rps") {
		t.Fatalf("high-rps report missing integer rps formatting: %s", buf.String())
	}
}

func TestWriteLowRPSUsesDecimalFormat(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, aggregate.Totals{NumSuccess: 1, RPS: 12.5, Duration: time.Second}, false, 0)
	if !strings.Contains(buf.String(), "12.50 rps") {
		t.Fatalf("low-rps report missing decimal rps formatting: %s", buf.String())
	}
}

func TestWriteZeroSuccessAvoidsDivideByZero(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, aggregate.Totals{Duration: time.Second}, true, 0)
	if !strings.Contains(buf.String(), "0 avg bytes, 0 avg overhead") {
		t.Fatalf("zero-success report should show zero averages: %s", buf.String())
	}
}
