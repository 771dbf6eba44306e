// Package buffer implements the bounded, time-ordered sample buffer shared
// between the ingest sources and the frame renderer.
package buffer

import (
	"sync"
)

// Sample is one multi-channel reading. Values are microvolts, one entry per
// channel. A Sample is never mutated after it has been appended.
type Sample struct {
	Timestamp float64   // Wall-clock seconds
	Values    []float64 // Per-channel readings in uV
}

// Buffer is a bounded ring of Samples. There is a single writer (the ingest
// source) and concurrent readers (the renderer); reads take a snapshot under
// a read lock so the renderer never observes a partial append.
type Buffer struct {
	mu       sync.RWMutex
	data     []Sample
	head     int // index of the oldest sample
	count    int
	capacity int
}

// New creates a Buffer holding at most capacity samples.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		data:     make([]Sample, capacity),
		capacity: capacity,
	}
}

// Append adds a sample at the tail, evicting the oldest sample once the
// buffer is at capacity.
func (b *Buffer) Append(s Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := (b.head + b.count) % b.capacity
	b.data[tail] = s
	if b.count == b.capacity {
		b.head = (b.head + 1) % b.capacity
	} else {
		b.count++
	}
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Capacity returns the maximum number of buffered samples.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Snapshot returns the buffered samples in insertion order.
func (b *Buffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Sample, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(b.head+i)%b.capacity]
	}
	return out
}

// WindowRailCount tracks how many samples of an extracted window were railed
// against the total extracted. It feeds the decayed rail percentage and is
// kept separate from the per-call quality metrics.
type WindowRailCount struct {
	Railed int
	Total  int
}

// Percent returns the railed share of the window as a percentage, or 0 for
// an empty window.
func (w WindowRailCount) Percent() float64 {
	if w.Total == 0 {
		return 0
	}
	return 100 * float64(w.Railed) / float64(w.Total)
}

// ChannelWindow extracts the sliding window for one channel: every buffered
// sample with Timestamp >= now-window, timestamps rewritten relative to now
// (zero or negative). Samples narrower than ch+1 channels are skipped.
// railScale is the threshold above which |value| counts as railed for the
// returned WindowRailCount (0.95 x vertical scale).
func (b *Buffer) ChannelWindow(ch int, now, window, railScale float64) (times, values []float64, rails WindowRailCount) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := now - window
	for i := 0; i < b.count; i++ {
		s := b.data[(b.head+i)%b.capacity]
		if s.Timestamp < start {
			continue
		}
		if ch >= len(s.Values) {
			continue
		}
		v := s.Values[ch]
		times = append(times, s.Timestamp-now)
		values = append(values, v)
		rails.Total++
		if v > railScale || v < -railScale {
			rails.Railed++
		}
	}
	return times, values, rails
}
