package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Hamming returns an n-point Hamming window.
func Hamming(n int) []float64 {
	win := make([]float64, n)
	if n == 1 {
		win[0] = 1
		return win
	}
	for i := range win {
		win[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return win
}

// Spectrum computes the windowed magnitude spectrum of one channel's window.
// Fewer than sampleRate/2 samples (half a second of data) yields zero-filled
// frequency and magnitude slices of length sampleRate/2. Otherwise a Hamming
// window is applied, the real-input FFT magnitude is normalized by the sample
// count, and both slices are truncated to bins at or below maxFreq.
func Spectrum(values []float64, sampleRate int, maxFreq float64) (freqs, mags []float64) {
	minSamples := sampleRate / 2
	if len(values) < minSamples {
		return make([]float64, minSamples), make([]float64, minSamples)
	}

	n := len(values)
	win := Hamming(n)
	windowed := make([]float64, n)
	for i, v := range values {
		windowed[i] = v * win[i]
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, windowed)

	binWidth := float64(sampleRate) / float64(n)
	for i, c := range coeffs {
		f := float64(i) * binWidth
		if f > maxFreq {
			break
		}
		freqs = append(freqs, f)
		mags = append(mags, cmplx.Abs(c)/float64(n))
	}
	return freqs, mags
}

// DominantFrequency returns the frequency of the largest magnitude bin, or 0
// for an empty spectrum.
func DominantFrequency(freqs, mags []float64) float64 {
	best := 0.0
	bestMag := math.Inf(-1)
	for i, m := range mags {
		if m > bestMag {
			bestMag = m
			best = freqs[i]
		}
	}
	if math.IsInf(bestMag, -1) {
		return 0
	}
	return best
}
