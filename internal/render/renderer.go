// Package render drives the fixed-tick frame loop: every frame it extracts
// each channel's sliding window from the shared buffer, recomputes quality
// metrics and the magnitude spectrum, and publishes the resulting visual
// state to a display sink. Actual drawing is the sink's concern.
package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/buffer"
	"github.com/MarinDushku/experiment-management-system-final/internal/config"
	"github.com/MarinDushku/experiment-management-system-final/internal/dsp"
)

// IndicatorColor is the per-channel signal state shown next to each trace.
type IndicatorColor string

const (
	IndicatorNoSignal IndicatorColor = "gray"  // RMS < 0.1
	IndicatorRailed   IndicatorColor = "red"   // decayed rail > 50%
	IndicatorStrong   IndicatorColor = "lime"  // RMS > 50
	IndicatorNormal   IndicatorColor = "green" // everything else
)

// TracePoint is one displayed sample: time relative to now (<= 0) and the
// display-path value (filtered/smoothed when those toggles are on).
type TracePoint struct {
	Time  float64
	Value float64
}

// ChannelState is the per-channel visual state recomputed every frame.
type ChannelState struct {
	Trace         []TracePoint
	Metrics       dsp.QualityMetrics // computed on raw, unsmoothed values
	RailPercent   float64            // decayed value
	RMSText       string             // e.g. "Near Railed 61.20% 12.41 uVrms"
	Indicator     IndicatorColor
	SpectrumFreqs []float64
	SpectrumMags  []float64
	HeadIntensity float64 // RMS normalized by the frame's max RMS
	HeadRailed    bool    // decayed rail > 50%
}

// Frame is the complete visual state of one tick.
type Frame struct {
	Channels  []ChannelState
	Clock     string  // HH:MM:SS
	Elapsed   string  // MM:SS
	FPS       float64 // measured over rolling 1-second windows
	Flowing   bool    // liveness flag from the ingest source
	Streaming bool
}

// Display receives finished frames. Implementations must not block.
type Display interface {
	Update(*Frame)
}

// Flow reports whether the ingest source is alive and streaming; the
// ingest.Source satisfies it.
type Flow interface {
	Flowing() bool
	Streaming() bool
	SetStreaming(bool)
}

// Renderer owns the frame loop and the display toggles.
type Renderer struct {
	cfg      config.DisplayConfig
	rate     int
	buf      *buffer.Buffer
	flow     Flow
	display  Display
	bandpass *dsp.Bandpass
	rails    *dsp.RailTracker

	mu        sync.Mutex
	smoothing bool
	start     time.Time

	fpsCount  int
	fpsWindow time.Time
	fps       float64
}

// New creates a Renderer over the shared buffer.
func New(cfg config.DisplayConfig, sampleRate int, buf *buffer.Buffer, flow Flow, display Display) *Renderer {
	bp := dsp.NewBandpass(1.0, 50.0, float64(sampleRate))
	bp.SetEnabled(cfg.Filtering)
	return &Renderer{
		cfg:       cfg,
		rate:      sampleRate,
		buf:       buf,
		flow:      flow,
		display:   display,
		bandpass:  bp,
		rails:     dsp.NewRailTracker(cfg.ChannelCount()),
		smoothing: cfg.Smoothing,
		start:     time.Now(),
		fpsWindow: time.Now(),
	}
}

// SetStreaming toggles the ingest gate (Stopped <-> Streaming).
func (r *Renderer) SetStreaming(on bool) { r.flow.SetStreaming(on) }

// ToggleSmoothing flips the display-only smoothing toggle.
func (r *Renderer) ToggleSmoothing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.smoothing = !r.smoothing
	return r.smoothing
}

// ToggleFiltering flips the display-only bandpass toggle.
func (r *Renderer) ToggleFiltering() bool {
	enabled := !r.bandpass.Enabled()
	r.bandpass.SetEnabled(enabled)
	return enabled
}

// Run ticks the frame loop until the context is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			frame := r.RenderFrame(float64(now.UnixNano()) / 1e9)
			if r.display != nil {
				r.display.Update(frame)
			}
		}
	}
}

// RenderFrame computes the visual state for one tick at the given wall
// time (seconds). Exposed for tests; Run calls it on each tick.
func (r *Renderer) RenderFrame(now float64) *Frame {
	r.mu.Lock()
	smoothing := r.smoothing
	r.mu.Unlock()

	channels := r.cfg.ChannelCount()
	railThreshold := r.cfg.VerticalScale * dsp.RailThresholdRatio
	frame := &Frame{
		Channels:  make([]ChannelState, channels),
		Flowing:   r.flow.Flowing(),
		Streaming: r.flow.Streaming(),
	}

	maxRMS := 0.0
	for ch := 0; ch < channels; ch++ {
		times, values, rails := r.buf.ChannelWindow(ch, now, r.cfg.TimeWindow, railThreshold)
		state := &frame.Channels[ch]

		if len(values) == 0 {
			state.Indicator = IndicatorNoSignal
			state.RMSText = "0.00 uVrms"
			continue
		}

		// Display path only: filter, then smooth. Metrics always see the
		// raw values.
		display := r.bandpass.Apply(values)
		if smoothing {
			display = dsp.Smooth(display, 5)
		}
		state.Trace = make([]TracePoint, len(times))
		for i := range times {
			state.Trace[i] = TracePoint{Time: times[i], Value: display[i]}
		}

		state.Metrics = dsp.Analyze(values, r.cfg.VerticalScale)
		if rails.Total > 0 {
			r.rails.Update(ch, rails.Percent())
		}
		state.RailPercent = r.rails.Percent(ch)
		state.RMSText = fmt.Sprintf("%s%.2f uVrms", r.rails.Label(ch), state.Metrics.RMS)
		state.Indicator = r.indicator(ch, state.Metrics.RMS)

		if len(values) > r.rate/4 {
			state.SpectrumFreqs, state.SpectrumMags = dsp.Spectrum(values, r.rate, r.cfg.MaxFrequency)
		}
		if state.Metrics.RMS > maxRMS {
			maxRMS = state.Metrics.RMS
		}
	}

	// Head-map intensities: each channel's RMS normalized by the frame's
	// maximum, with a floor to avoid division by zero.
	if maxRMS < 0.1 {
		maxRMS = 0.1
	}
	for ch := 0; ch < channels; ch++ {
		state := &frame.Channels[ch]
		state.HeadIntensity = state.Metrics.RMS / maxRMS
		state.HeadRailed = r.rails.Percent(ch) > 50
	}

	r.updateFPS()
	frame.FPS = r.fps
	frame.Clock = time.Now().Format("15:04:05")
	frame.Elapsed = formatElapsed(time.Since(r.start))
	return frame
}

func (r *Renderer) indicator(ch int, rms float64) IndicatorColor {
	switch {
	case rms < 0.1:
		return IndicatorNoSignal
	case r.rails.Percent(ch) > 50:
		return IndicatorRailed
	case rms > 50:
		return IndicatorStrong
	default:
		return IndicatorNormal
	}
}

func (r *Renderer) updateFPS() {
	r.fpsCount++
	if elapsed := time.Since(r.fpsWindow); elapsed >= time.Second {
		r.fps = float64(r.fpsCount) / elapsed.Seconds()
		r.fpsCount = 0
		r.fpsWindow = time.Now()
	}
}

func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// HeadColor returns the RGBA head-map color for a channel: red when the
// channel's decayed rail percentage exceeds 50%, otherwise a linear
// blue-to-red gradient by normalized intensity (the alpha carries the
// intensity either way).
func HeadColor(intensity float64, railed bool) [4]float64 {
	if railed {
		return [4]float64{1, 0, 0, intensity}
	}
	return [4]float64{intensity, 0, 1 - intensity, intensity}
}
