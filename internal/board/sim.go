package board

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
)

// Sim is a simulated acquisition board for tests and development. It
// synthesizes one sine per channel at the configuration's nominal rate,
// accumulating rows while streaming exactly like the hardware driver.
type Sim struct {
	desc Descriptor

	mu        sync.Mutex
	prepared  bool
	streaming bool
	start     time.Time
	lastRead  float64 // seconds of generated data already drained
}

// OpenSim is an Opener producing simulated boards.
func OpenSim(serialPort string, desc Descriptor) (Board, error) {
	return &Sim{desc: desc}, nil
}

// Descriptor returns the simulated hardware configuration.
func (s *Sim) Descriptor() Descriptor { return s.desc }

// PrepareSession marks the session established.
func (s *Sim) PrepareSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepared = true
	return nil
}

// StartStream begins generating data.
func (s *Sim) StartStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.prepared {
		return fmt.Errorf("session not prepared")
	}
	if s.streaming {
		return fmt.Errorf("stream already started")
	}
	s.streaming = true
	s.start = time.Now()
	s.lastRead = 0
	return nil
}

// Read synthesizes every row that would have been produced since the last
// drain: a 10 Hz sine offset per channel, 50 uV amplitude.
func (s *Sim) Read() ([]recording.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streaming {
		return nil, nil
	}

	elapsed := time.Since(s.start).Seconds()
	interval := 1.0 / float64(s.desc.SamplingRate)
	base := float64(s.start.UnixNano()) / 1e9

	var rows []recording.Row
	for t := s.lastRead; t+interval <= elapsed; t += interval {
		values := make([]float64, s.desc.Channels)
		for ch := range values {
			values[ch] = 50 * math.Sin(2*math.Pi*(10+float64(ch))*t)
		}
		rows = append(rows, recording.Row{Timestamp: base + t, Values: values})
		s.lastRead = t + interval
	}
	return rows, nil
}

// StopStream halts generation.
func (s *Sim) StopStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	return nil
}

// ReleaseSession tears the simulated session down.
func (s *Sim) ReleaseSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepared = false
	s.streaming = false
	return nil
}
