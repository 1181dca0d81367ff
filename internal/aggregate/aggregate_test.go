package aggregate

import (
	"testing"
	"time"
)

type fakeCounters struct {
	numConnect, numSuccess, numFail, numBytesReceived, numOverheadReceived int64
}

func (f fakeCounters) Load() (int64, int64, int64, int64, int64) {
	return f.numConnect, f.numSuccess, f.numFail, f.numBytesReceived, f.numOverheadReceived
}

func TestSumRatesAndConcurrency(t *testing.T) {
	counters := []CounterSource{
		fakeCounters{numConnect: 2, numSuccess: 40, numBytesReceived: 4000, numOverheadReceived: 400},
		fakeCounters{numConnect: 3, numSuccess: 60, numBytesReceived: 6000, numOverheadReceived: 600},
	}
	successCounts := []int64{5, 0, 1}

	got := Sum(counters, successCounts, 10*time.Second, 1000)

	if got.NumSuccess != 100 {
		t.Fatalf("NumSuccess = %d, want 100", got.NumSuccess)
	}
	if got.NumConnect != 5 {
		t.Fatalf("NumConnect = %d, want 5", got.NumConnect)
	}
	if got.RPS != 10 {
		t.Fatalf("RPS = %v, want 10", got.RPS)
	}
	wantKBPS := float64(4000+400+6000+600) / 10 / 1024
	if got.KBPS != wantKBPS {
		t.Fatalf("KBPS = %v, want %v", got.KBPS, wantKBPS)
	}
	// real_concurrency: connections with success_count >= 1 -> 2 of 3.
	if got.RealConcurrency != 2 {
		t.Fatalf("RealConcurrency = %d, want 2", got.RealConcurrency)
	}
	// threshold = max(2, 1000/3/10) = max(2, 33) = 33; neither surviving
	// connection reaches it.
	if got.RealConcurrency1 != 0 {
		t.Fatalf("RealConcurrency1 = %d, want 0", got.RealConcurrency1)
	}

	wantAvg := time.Duration(float64(10*time.Second) * 3 / 100)
	if got.AvgReqTime != wantAvg {
		t.Fatalf("AvgReqTime = %v, want %v", got.AvgReqTime, wantAvg)
	}
}

func TestSumZeroDurationAvoidsDivideByZero(t *testing.T) {
	got := Sum(nil, nil, 0, 100)
	if got.RPS != 0 || got.KBPS != 0 || got.AvgReqTime != 0 {
		t.Fatalf("zero-duration Sum produced non-zero rates: %+v", got)
	}
}

func TestNumRequestsPerConnTenthFloor(t *testing.T) {
	if v := numRequestsPerConnTenth(10, 5); v != 2 {
		t.Fatalf("numRequestsPerConnTenth(10,5) = %d, want 2 (floor)", v)
	}
	if v := numRequestsPerConnTenth(10000, 10); v != 100 {
		t.Fatalf("numRequestsPerConnTenth(10000,10) = %d, want 100", v)
	}
}
