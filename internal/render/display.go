package render

import (
	"fmt"
	"io"
	"time"
)

// StatusDisplay is a minimal display sink that writes a one-line summary of
// each channel's state to a writer, throttled to once per interval. It
// stands in for a real plotting surface.
type StatusDisplay struct {
	w        io.Writer
	interval time.Duration
	last     time.Time
}

// NewStatusDisplay creates a StatusDisplay writing to w at most once per
// interval.
func NewStatusDisplay(w io.Writer, interval time.Duration) *StatusDisplay {
	return &StatusDisplay{w: w, interval: interval}
}

// Update prints the frame summary when the throttle allows.
func (d *StatusDisplay) Update(f *Frame) {
	now := time.Now()
	if now.Sub(d.last) < d.interval {
		return
	}
	d.last = now

	flowing := "no data"
	if f.Flowing {
		flowing = "flowing"
	}
	fmt.Fprintf(d.w, "[%s] elapsed %s fps %.0f (%s)\n", f.Clock, f.Elapsed, f.FPS, flowing)
	for ch, state := range f.Channels {
		if state.Trace == nil {
			continue
		}
		fmt.Fprintf(d.w, "  ch %2d: %-32s %-5s head %.2f\n",
			ch+1, state.RMSText, state.Indicator, state.HeadIntensity)
	}
}
