// Package dsp implements the signal-quality and spectral estimators used by
// the frame renderer.
package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// RailThresholdRatio is the fraction of the vertical scale above which a
	// reading counts as railed (pinned against the amplifier extreme).
	RailThresholdRatio = 0.95

	// minQualityWindow is the smallest window the quality estimator will
	// analyze; anything shorter yields zero metrics.
	minQualityWindow = 10
)

// QualityMetrics holds the per-channel scalar metrics recomputed every frame.
type QualityMetrics struct {
	RMS         float64 // Root-mean-square amplitude in uV
	RailPercent float64 // Share of readings beyond 0.95 x scale, 0-100
	Variance    float64 // Population variance
}

// Analyze computes quality metrics for one channel's window. Windows shorter
// than 10 samples return zero metrics.
func Analyze(values []float64, scale float64) QualityMetrics {
	if len(values) < minQualityWindow {
		return QualityMetrics{}
	}

	var sumSquares float64
	threshold := scale * RailThresholdRatio
	railed := 0
	for _, v := range values {
		sumSquares += v * v
		if math.Abs(v) > threshold {
			railed++
		}
	}

	return QualityMetrics{
		RMS:         math.Sqrt(sumSquares / float64(len(values))),
		RailPercent: 100 * float64(railed) / float64(len(values)),
		Variance:    stat.PopVariance(values, nil),
	}
}

// RailSeverity classifies a channel's decayed rail percentage for display.
type RailSeverity int

const (
	RailClean      RailSeverity = iota // <= 1%
	Railed                             // > 1%
	NearRailed                         // > 50%
	SevereRailed                       // > 90%
)

// RailTracker maintains the per-channel decayed rail percentage. Each frame
// folds the current window's rail ratio into a running average with weight
// 0.7 previous / 0.3 current.
type RailTracker struct {
	percent []float64
}

// NewRailTracker creates a tracker for the given channel count.
func NewRailTracker(channels int) *RailTracker {
	return &RailTracker{percent: make([]float64, channels)}
}

// Update folds the current frame's rail percentage into channel ch and
// returns the new decayed value.
func (t *RailTracker) Update(ch int, current float64) float64 {
	t.percent[ch] = 0.7*t.percent[ch] + 0.3*current
	return t.percent[ch]
}

// Percent returns the decayed rail percentage for channel ch.
func (t *RailTracker) Percent(ch int) float64 {
	return t.percent[ch]
}

// Severity classifies channel ch's decayed rail percentage.
func (t *RailTracker) Severity(ch int) RailSeverity {
	switch p := t.percent[ch]; {
	case p > 90:
		return SevereRailed
	case p > 50:
		return NearRailed
	case p > 1:
		return Railed
	default:
		return RailClean
	}
}

// Label returns the display prefix for channel ch, matching the OpenBCI GUI
// convention ("Railed 93.10% ", "Near Railed 61.20% ", or empty when clean).
func (t *RailTracker) Label(ch int) string {
	p := t.percent[ch]
	switch t.Severity(ch) {
	case SevereRailed, Railed:
		return fmt.Sprintf("Railed %.2f%% ", p)
	case NearRailed:
		return fmt.Sprintf("Near Railed %.2f%% ", p)
	default:
		return ""
	}
}
