package dsp

import (
	"math"
	"testing"
)

func TestAnalyzeZeroWindow(t *testing.T) {
	values := make([]float64, 20)
	m := Analyze(values, 200)
	if m.RMS != 0 || m.RailPercent != 0 || m.Variance != 0 {
		t.Fatalf("expected zero metrics for zero window, got %+v", m)
	}
}

func TestAnalyzeTooSmallWindow(t *testing.T) {
	values := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100} // 9 samples
	m := Analyze(values, 200)
	if m.RMS != 0 || m.RailPercent != 0 || m.Variance != 0 {
		t.Fatalf("expected zero metrics below 10 samples, got %+v", m)
	}
}

func TestAnalyzeFullyRailedWindow(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		// Every value beyond 0.95 x scale, alternating sign.
		values[i] = 199
		if i%2 == 1 {
			values[i] = -199
		}
	}
	m := Analyze(values, 200)
	if m.RailPercent != 100 {
		t.Fatalf("expected rail percentage 100, got %v", m.RailPercent)
	}
	if math.Abs(m.RMS-199) > 1e-9 {
		t.Fatalf("expected RMS 199, got %v", m.RMS)
	}
}

func TestAnalyzeRMSAndVariance(t *testing.T) {
	// Constant offset: RMS equals the offset, variance is zero.
	values := make([]float64, 100)
	for i := range values {
		values[i] = 42
	}
	m := Analyze(values, 200)
	if math.Abs(m.RMS-42) > 1e-9 {
		t.Fatalf("expected RMS 42, got %v", m.RMS)
	}
	if math.Abs(m.Variance) > 1e-9 {
		t.Fatalf("expected zero variance, got %v", m.Variance)
	}
	if m.RailPercent != 0 {
		t.Fatalf("expected no railed samples, got %v%%", m.RailPercent)
	}
}

func TestRailTrackerDecay(t *testing.T) {
	tracker := NewRailTracker(2)

	// One frame at 100% from a prior 0 decays to exactly 30.
	got := tracker.Update(0, 100)
	if math.Abs(got-30) > 1e-9 {
		t.Fatalf("expected decayed value 30, got %v", got)
	}

	// The other channel is untouched.
	if tracker.Percent(1) != 0 {
		t.Fatalf("expected untouched channel to stay at 0, got %v", tracker.Percent(1))
	}

	// Repeated 100% frames converge toward 100.
	for i := 0; i < 50; i++ {
		tracker.Update(0, 100)
	}
	if tracker.Percent(0) < 99.9 {
		t.Fatalf("expected convergence toward 100, got %v", tracker.Percent(0))
	}
}

func TestRailTrackerSeverity(t *testing.T) {
	tracker := NewRailTracker(1)
	if tracker.Severity(0) != RailClean {
		t.Fatalf("expected clean at 0%%")
	}

	tracker.percent[0] = 5
	if tracker.Severity(0) != Railed {
		t.Fatalf("expected railed at 5%%")
	}
	if tracker.Label(0) != "Railed 5.00% " {
		t.Fatalf("unexpected label: %q", tracker.Label(0))
	}

	tracker.percent[0] = 60
	if tracker.Severity(0) != NearRailed {
		t.Fatalf("expected near-railed at 60%%")
	}
	if tracker.Label(0) != "Near Railed 60.00% " {
		t.Fatalf("unexpected label: %q", tracker.Label(0))
	}

	tracker.percent[0] = 95
	if tracker.Severity(0) != SevereRailed {
		t.Fatalf("expected severe at 95%%")
	}
}
