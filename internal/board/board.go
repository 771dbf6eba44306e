// Package board wraps the acquisition hardware behind a session-shaped
// interface and handles the two known hardware configurations (Cyton with
// and without the daisy module).
package board

import (
	"fmt"
	"strings"

	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
)

// Descriptor identifies one hardware configuration.
type Descriptor struct {
	BoardType    string // "cyton" or "cyton_daisy"
	Channels     int    // EEG channel count
	SamplingRate int    // Samples per second
}

// Descriptors returns the known hardware configurations in probe order. The
// daisy variant is tried first; the first configuration that prepares a
// session wins.
func Descriptors() []Descriptor {
	return []Descriptor{
		{BoardType: "cyton_daisy", Channels: 16, SamplingRate: 125},
		{BoardType: "cyton", Channels: 8, SamplingRate: 250},
	}
}

// Board is the session lifecycle exposed by an acquisition device.
type Board interface {
	// PrepareSession establishes the device session.
	PrepareSession() error
	// StartStream begins sample acquisition.
	StartStream() error
	// Read drains and returns the rows buffered since the last call.
	Read() ([]recording.Row, error)
	// StopStream halts acquisition; buffered rows remain readable.
	StopStream() error
	// ReleaseSession tears the session down.
	ReleaseSession() error

	Descriptor() Descriptor
}

// Opener constructs a Board for a serial port and hardware configuration.
// Tests and development substitute a simulated opener.
type Opener func(serialPort string, desc Descriptor) (Board, error)

// TryEach attempts each configuration in order with open, then prepare, and
// returns the first Board whose session prepares successfully. When every
// attempt fails the returned error concatenates all underlying failures.
func TryEach(open Opener, serialPort string, descs []Descriptor) (Board, error) {
	var failures []string
	for _, desc := range descs {
		b, err := open(serialPort, desc)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", desc.BoardType, err))
			continue
		}
		if err := b.PrepareSession(); err != nil {
			b.ReleaseSession()
			failures = append(failures, fmt.Sprintf("%s: %v", desc.BoardType, err))
			continue
		}
		return b, nil
	}
	return nil, fmt.Errorf("could not connect to any board type: %s", strings.Join(failures, ", "))
}
