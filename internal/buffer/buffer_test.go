package buffer

import (
	"testing"
)

func TestAppendEvictsOldestAtCapacity(t *testing.T) {
	buf := New(5)
	for i := 0; i < 5; i++ {
		buf.Append(Sample{Timestamp: float64(i), Values: []float64{float64(i)}})
	}
	if buf.Len() != 5 {
		t.Fatalf("expected 5 buffered samples, got %d", buf.Len())
	}

	// One more append must evict exactly the oldest.
	buf.Append(Sample{Timestamp: 5, Values: []float64{5}})
	if buf.Len() != 5 {
		t.Fatalf("length grew past capacity: %d", buf.Len())
	}

	snap := buf.Snapshot()
	if snap[0].Timestamp != 1 {
		t.Fatalf("expected oldest timestamp 1 after eviction, got %v", snap[0].Timestamp)
	}
	if snap[len(snap)-1].Timestamp != 5 {
		t.Fatalf("expected newest timestamp 5, got %v", snap[len(snap)-1].Timestamp)
	}
}

func TestChannelWindowRelativeTimestamps(t *testing.T) {
	buf := New(100)
	now := 1000.0
	window := 5.0

	// Samples spanning 10 seconds; only the last 5 seconds qualify.
	for i := 0; i < 100; i++ {
		ts := now - 10 + float64(i)*0.1
		buf.Append(Sample{Timestamp: ts, Values: []float64{1.0, 2.0}})
	}

	times, values, _ := buf.ChannelWindow(0, now, window, 190)
	if len(times) == 0 {
		t.Fatal("expected a non-empty window")
	}
	if len(times) != len(values) {
		t.Fatalf("times and values out of step: %d vs %d", len(times), len(values))
	}
	for _, rel := range times {
		if rel < -window || rel > 0 {
			t.Fatalf("relative timestamp %v outside [-%v, 0]", rel, window)
		}
	}
}

func TestChannelWindowSkipsNarrowSamples(t *testing.T) {
	buf := New(10)
	buf.Append(Sample{Timestamp: 10, Values: []float64{1, 2}})
	buf.Append(Sample{Timestamp: 11, Values: []float64{3}}) // no channel 1

	_, values, _ := buf.ChannelWindow(1, 11, 5, 190)
	if len(values) != 1 {
		t.Fatalf("expected narrow sample to be skipped, got %d values", len(values))
	}
	if values[0] != 2 {
		t.Fatalf("expected value 2, got %v", values[0])
	}
}

func TestChannelWindowRailCount(t *testing.T) {
	buf := New(10)
	buf.Append(Sample{Timestamp: 1, Values: []float64{100}})
	buf.Append(Sample{Timestamp: 2, Values: []float64{195}})
	buf.Append(Sample{Timestamp: 3, Values: []float64{-199}})

	_, _, rails := buf.ChannelWindow(0, 3, 5, 190)
	if rails.Total != 3 {
		t.Fatalf("expected 3 counted samples, got %d", rails.Total)
	}
	if rails.Railed != 2 {
		t.Fatalf("expected 2 railed samples, got %d", rails.Railed)
	}
	if got := rails.Percent(); got < 66.6 || got > 66.7 {
		t.Fatalf("unexpected rail percent: %v", got)
	}
}

func TestWindowRailCountEmpty(t *testing.T) {
	var rails WindowRailCount
	if rails.Percent() != 0 {
		t.Fatalf("empty window should report 0%%, got %v", rails.Percent())
	}
}
