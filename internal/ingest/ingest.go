// Package ingest feeds the shared sample buffer from one of three sources:
// a line-oriented stream (stdin), a replayed CSV session file, or a
// synthetic generator. All sources run as background goroutines, honor a
// streaming gate, and exit promptly on context cancellation.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/buffer"
)

// minStreamFields is the minimum field count of a delimited input row:
// a timestamp followed by 16 channel values.
const minStreamFields = 17

// streamChannels is how many channel columns a delimited row carries.
const streamChannels = 16

// DecodeLine decodes one input line as either a JSON object with a "ch"
// value array, or a delimited timestamp,ch1..ch16 row. The JSON form has no
// embedded timestamp; now is used instead. The second return is false for
// malformed lines, which callers drop silently.
func DecodeLine(line string, now float64) (buffer.Sample, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return buffer.Sample{}, false
	}

	// Structured form first.
	var tagged struct {
		Ch []float64 `json:"ch"`
	}
	if err := json.Unmarshal([]byte(line), &tagged); err == nil && tagged.Ch != nil {
		return buffer.Sample{Timestamp: now, Values: tagged.Ch}, true
	}

	// Fall back to the fixed-column delimited form.
	fields := strings.Split(line, ",")
	if len(fields) < minStreamFields {
		return buffer.Sample{}, false
	}
	ts, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return buffer.Sample{}, false
	}
	values := make([]float64, streamChannels)
	for i := 0; i < streamChannels; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return buffer.Sample{}, false
		}
		values[i] = v
	}
	return buffer.Sample{Timestamp: ts, Values: values}, true
}

// Source is a background sample producer attached to a shared buffer.
type Source struct {
	buf *buffer.Buffer

	streaming atomic.Bool
	flowing   atomic.Bool
	count     atomic.Int64

	mu          sync.Mutex
	lastReset   time.Time
	lastAppend  time.Time
	rateReports io.Writer
}

// NewSource creates a Source writing into buf. Streaming starts stopped
// unless autoStart is set.
func NewSource(buf *buffer.Buffer, autoStart bool) *Source {
	s := &Source{
		buf:         buf,
		lastReset:   time.Now(),
		rateReports: os.Stderr,
	}
	s.streaming.Store(autoStart)
	return s
}

// SetStreaming opens or closes the streaming gate. A paused source keeps
// running but sleeps instead of producing samples.
func (s *Source) SetStreaming(on bool) { s.streaming.Store(on) }

// Streaming reports whether the gate is open.
func (s *Source) Streaming() bool { return s.streaming.Load() }

// Flowing reports whether a sample has been appended within the last second.
func (s *Source) Flowing() bool { return s.flowing.Load() }

// append records one decoded sample.
func (s *Source) append(sample buffer.Sample) {
	s.buf.Append(sample)
	s.count.Add(1)
	s.flowing.Store(true)
	s.mu.Lock()
	s.lastAppend = time.Now()
	s.mu.Unlock()
}

// checkLiveness clears the flowing flag when no sample has arrived for over
// one second, reporting the observed data rate before the counter resets.
func (s *Source) checkLiveness() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastReset) <= time.Second {
		return
	}
	if s.flowing.Load() && now.Sub(s.lastAppend) > time.Second {
		s.flowing.Store(false)
	}
	if n := s.count.Swap(0); n > 0 {
		rate := float64(n) / now.Sub(s.lastReset).Seconds()
		fmt.Fprintf(s.rateReports, "Data rate: %.1f samples/sec\n", rate)
	}
	s.lastReset = now
}

// RunStream reads lines from r (normally stdin) until ctx is cancelled or r
// is exhausted. Malformed lines are dropped silently.
func (s *Source) RunStream(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.checkLiveness()
		case line, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			if !s.streaming.Load() {
				continue
			}
			if sample, ok := DecodeLine(line, nowSeconds()); ok {
				s.append(sample)
			}
			s.checkLiveness()
		}
	}
}

// RunFile replays a recorded CSV session file, paced to the nominal sample
// rate rather than as fast as the file can be read. At end of file it keeps
// polling so a file that is still being written continues to play.
func (s *Source) RunFile(ctx context.Context, path string, sampleRate int, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read replay header: %w", err)
	}

	if speed <= 0 {
		speed = 1.0
	}
	interval := time.Duration(float64(time.Second) / (float64(sampleRate) * speed))

	for {
		if err := sleepCtx(ctx, 0); err != nil {
			return err
		}
		if !s.streaming.Load() {
			if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
				return err
			}
			continue
		}

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			s.checkLiveness()
			if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
				return err
			}
			continue
		} else if err != nil && err != io.EOF {
			return fmt.Errorf("replay read error: %w", err)
		}

		if sample, ok := DecodeLine(line, nowSeconds()); ok {
			s.append(sample)
		}
		s.checkLiveness()

		if err := sleepCtx(ctx, interval); err != nil {
			return err
		}
	}
}

// RunSynthetic generates simulated multi-channel data: a distinct sine per
// channel plus Gaussian noise, with every third channel occasionally pinned
// near the vertical scale to exercise the rail indicators.
func (s *Source) RunSynthetic(ctx context.Context, channels, sampleRate int, verticalScale float64) error {
	const baseFreq = 10.0
	interval := time.Second / time.Duration(sampleRate)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		if !s.streaming.Load() {
			if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
				return err
			}
			continue
		}

		now := nowSeconds()
		values := make([]float64, channels)
		for ch := 0; ch < channels; ch++ {
			freq := baseFreq + float64(ch)*1.5
			amp := 30 + float64((ch*5)%150)
			noise := rng.NormFloat64() * 10
			v := amp*math.Sin(2*math.Pi*freq*math.Mod(now, 1)) + noise
			if ch%3 == 0 && rng.Float64() < 0.1 {
				v = verticalScale * 0.98 * sign(v)
			}
			values[ch] = v
		}
		s.append(buffer.Sample{Timestamp: now, Values: values})
		s.checkLiveness()

		if err := sleepCtx(ctx, interval); err != nil {
			return err
		}
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
