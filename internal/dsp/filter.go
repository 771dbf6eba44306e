package dsp

import (
	"math"
)

// biquad is one second-order IIR section in direct form I.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (q biquad) apply(in []float64) []float64 {
	out := make([]float64, len(in))
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := q.b0*x + q.b1*x1 + q.b2*x2 - q.a1*y1 - q.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// butterworthQ is the quality factor of a second-order Butterworth section.
const butterworthQ = math.Sqrt2 / 2

func lowpassBiquad(cutoff, sampleRate float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	a0 := 1 + alpha
	return biquad{
		b0: (1 - cosW0) / 2 / a0,
		b1: (1 - cosW0) / a0,
		b2: (1 - cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

func highpassBiquad(cutoff, sampleRate float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosW0) / 2 / a0,
		b1: -(1 + cosW0) / a0,
		b2: (1 + cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// Bandpass is a 4th-order Butterworth-style bandpass filter (a highpass and
// a lowpass second-order section in cascade) applied forward and backward
// for zero phase distortion. It affects the display path only; metrics are
// always computed on unfiltered values.
type Bandpass struct {
	sections []biquad
	enabled  bool
}

// NewBandpass builds a bandpass filter with the given passband. The default
// EEG passband is 1-50 Hz.
func NewBandpass(lowCut, highCut, sampleRate float64) *Bandpass {
	return &Bandpass{
		sections: []biquad{
			highpassBiquad(lowCut, sampleRate),
			lowpassBiquad(highCut, sampleRate),
		},
		enabled: true,
	}
}

// SetEnabled toggles the filter. A disabled filter passes input through
// untouched.
func (f *Bandpass) SetEnabled(enabled bool) { f.enabled = enabled }

// Enabled reports whether filtering is active.
func (f *Bandpass) Enabled() bool { return f.enabled }

// Apply runs the zero-phase bandpass over values and returns the filtered
// copy. Windows shorter than 10 samples, or a disabled filter, return the
// input unchanged.
func (f *Bandpass) Apply(values []float64) []float64 {
	if !f.enabled || len(values) < 10 {
		return values
	}
	out := values
	for _, s := range f.sections {
		// Forward pass, then backward pass over the reversed signal.
		out = s.apply(out)
		reverse(out)
		out = s.apply(out)
		reverse(out)
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

// Smooth applies a symmetric moving average of the given window size,
// returning a slice of the same length (zero-padded at the edges, matching
// a "same" mode convolution). Windows of 3 samples or fewer are returned
// unchanged.
func Smooth(values []float64, window int) []float64 {
	if len(values) <= 3 || window < 2 {
		return values
	}
	out := make([]float64, len(values))
	half := window / 2
	for i := range values {
		var sum float64
		for j := i - half; j <= i-half+window-1; j++ {
			if j >= 0 && j < len(values) {
				sum += values[j]
			}
		}
		out[i] = sum / float64(window)
	}
	return out
}
