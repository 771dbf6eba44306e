// Package bridge implements the transport adapter: board session lifecycle
// operations against the acquisition hardware, CSV persistence of captured
// sessions, and the sample relay stream consumed by the host process.
package bridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/board"
	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
)

// Session owns the connection handle, the active board configuration, and
// the streaming flag. All transport operations go through one Session so
// the lifecycle (connect -> stream -> disconnect) has a single owner.
type Session struct {
	open           board.Opener
	serialPort     string
	experimentName string
	writer         *recording.Writer
	diag           io.Writer // diagnostic output, never the result line
	relay          io.Writer // framed sample stream, nil to disable

	mu        sync.Mutex
	board     board.Board
	streaming bool
	relayStop chan struct{}
	relayDone chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithRelay forwards streamed samples to w as framed EEG_DATA lines.
func WithRelay(w io.Writer) Option {
	return func(s *Session) { s.relay = w }
}

// WithDiagnostics redirects diagnostic output (default os.Stderr).
func WithDiagnostics(w io.Writer) Option {
	return func(s *Session) { s.diag = w }
}

// WithExperimentName sets the experiment name carried by relayed samples.
func WithExperimentName(name string) Option {
	return func(s *Session) { s.experimentName = name }
}

// NewSession creates a transport session for the given serial port. The
// opener is board.OpenSerial in production and a simulated opener in tests.
func NewSession(open board.Opener, serialPort string, writer *recording.Writer, opts ...Option) *Session {
	s := &Session{
		open:       open,
		serialPort: serialPort,
		writer:     writer,
		diag:       os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Streaming reports whether a stream is active.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Connect probes the known hardware configurations and reports which board
// answered. The session is released immediately so later operations start
// clean, matching the acquisition library's session semantics.
func (s *Session) Connect() Result {
	fmt.Fprintf(s.diag, "Attempting to connect to board on port: %s\n", s.serialPort)
	b, err := board.TryEach(s.open, s.serialPort, board.Descriptors())
	if err != nil {
		return Errorf("%v", err)
	}
	desc := b.Descriptor()
	b.ReleaseSession()
	return Result{
		Status:    "success",
		Message:   fmt.Sprintf("%s board connected successfully", desc.BoardType),
		BoardType: desc.BoardType,
	}
}

// CheckConnection verifies the board answers without keeping a session.
func (s *Session) CheckConnection() Result {
	fmt.Fprintf(s.diag, "Checking connection on port: %s\n", s.serialPort)
	b, err := board.TryEach(s.open, s.serialPort, board.Descriptors())
	connected := err == nil
	if err != nil {
		r := Errorf("%v", err)
		r.Connected = &connected
		return r
	}
	desc := b.Descriptor()
	b.ReleaseSession()
	return Result{
		Status:    "success",
		Connected: &connected,
		BoardType: desc.BoardType,
	}
}

// StartRecording prepares a session, starts streaming, and (when a relay
// writer is configured) begins forwarding samples.
func (s *Session) StartRecording() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return Errorf("recording already in progress")
	}

	fmt.Fprintf(s.diag, "Starting recording on port: %s\n", s.serialPort)
	b, err := board.TryEach(s.open, s.serialPort, board.Descriptors())
	if err != nil {
		return Errorf("could not start recording: %v", err)
	}
	if err := b.StartStream(); err != nil {
		b.ReleaseSession()
		return Errorf("could not start stream on %s: %v", b.Descriptor().BoardType, err)
	}

	s.board = b
	s.streaming = true
	if s.relay != nil {
		s.relayStop = make(chan struct{})
		s.relayDone = make(chan struct{})
		go s.relayLoop(b, s.relayStop, s.relayDone)
	}

	desc := b.Descriptor()
	return Result{
		Status:    "success",
		Message:   fmt.Sprintf("Recording started with %s board", desc.BoardType),
		Timestamp: time.Now().Format(time.RFC3339),
		BoardType: desc.BoardType,
	}
}

// relayLoop forwards buffered rows as framed lines, paced roughly at the
// board's nominal sample rate.
func (s *Session) relayLoop(b board.Board, stop, done chan struct{}) {
	defer close(done)

	desc := b.Descriptor()
	interval := time.Second / time.Duration(desc.SamplingRate)
	var index int64

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		rows, err := b.Read()
		if err != nil {
			fmt.Fprintf(s.diag, "relay read error: %v\n", err)
			return
		}
		for _, row := range rows {
			payload := RelayPayload{
				Type:           "eeg_data",
				Timestamp:      row.Timestamp,
				ExperimentName: s.experimentName,
				Data:           row.Values,
				SampleIndex:    index,
				BoardType:      desc.BoardType,
			}
			if err := WriteRelayLine(s.relay, payload); err != nil {
				return
			}
			index++
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}
}

// StopRecording blocks for the capture duration so buffered hardware
// samples accumulate, drains them, writes the session CSV, and tears the
// stream down. An empty capture is reported as its own error, distinct
// from hardware failure.
func (s *Session) StopRecording(ctx context.Context, duration time.Duration, experimentID, outputFile string) Result {
	s.mu.Lock()
	b := s.board
	stop, done := s.relayStop, s.relayDone
	s.mu.Unlock()

	// A stop issued in a fresh process has no live handle; acquire one and
	// stream for the capture duration, as the acquisition library allows.
	if b == nil {
		fmt.Fprintf(s.diag, "Stopping recording on port: %s\n", s.serialPort)
		var err error
		b, err = board.TryEach(s.open, s.serialPort, board.Descriptors())
		if err != nil {
			return Errorf("could not stop recording: %v", err)
		}
		if err := b.StartStream(); err != nil {
			b.ReleaseSession()
			return Errorf("could not stop recording: %v", err)
		}
	}

	fmt.Fprintf(s.diag, "Waiting %v to collect data...\n", duration)
	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}

	if stop != nil {
		close(stop)
		<-done
	}

	rows, readErr := b.Read()
	desc := b.Descriptor()
	if err := b.StopStream(); err != nil {
		fmt.Fprintf(s.diag, "stream stop error: %v\n", err)
	}
	if err := b.ReleaseSession(); err != nil {
		fmt.Fprintf(s.diag, "session release error: %v\n", err)
	}

	s.mu.Lock()
	s.board = nil
	s.streaming = false
	s.relayStop, s.relayDone = nil, nil
	s.mu.Unlock()

	if readErr != nil {
		return Errorf("failed to retrieve captured data: %v", readErr)
	}
	if len(rows) == 0 {
		return Errorf("no samples captured during recording")
	}

	now := time.Now()
	filename := s.writer.Filename(experimentID, outputFile, now)
	fmt.Fprintf(s.diag, "Saving data to %s\n", filename)
	path, err := s.writer.WriteSession(filename, desc.Channels, rows)
	if err != nil {
		return Errorf("failed to save session: %v", err)
	}

	return Result{
		Status:       "success",
		Message:      "Recording stopped and data saved",
		Filename:     filename,
		FilePath:     path,
		Timestamp:    now.Format(time.RFC3339),
		Channels:     desc.Channels,
		Samples:      len(rows),
		SamplingRate: desc.SamplingRate,
		BoardType:    desc.BoardType,
	}
}

// Disconnect tears everything down best effort: stream stop and session
// release are attempted regardless of tracked state, and cleanup errors are
// swallowed. Only a total failure to reach any board configuration yields
// an error result, with both attempts' failures concatenated.
func (s *Session) Disconnect() Result {
	s.mu.Lock()
	b := s.board
	stop, done := s.relayStop, s.relayDone
	s.board = nil
	s.streaming = false
	s.relayStop, s.relayDone = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	fmt.Fprintf(s.diag, "Disconnecting from board on port: %s\n", s.serialPort)

	if b == nil {
		var failures []string
		for _, desc := range board.Descriptors() {
			opened, err := s.open(s.serialPort, desc)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", desc.BoardType, err))
				continue
			}
			b = opened
			break
		}
		if b == nil {
			return Errorf("could not disconnect from any board type: %v", failures)
		}
	}

	desc := b.Descriptor()
	if err := b.StopStream(); err != nil {
		fmt.Fprintf(s.diag, "stream stop error (ignored): %v\n", err)
	}
	if err := b.ReleaseSession(); err != nil {
		fmt.Fprintf(s.diag, "session release error (ignored): %v\n", err)
	}

	return Result{
		Status:    "success",
		Message:   fmt.Sprintf("%s board disconnected", desc.BoardType),
		BoardType: desc.BoardType,
	}
}
