package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/board"
	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	writer := recording.NewWriter(t.TempDir(), "eeg")
	opts = append([]Option{WithDiagnostics(io.Discard)}, opts...)
	return NewSession(board.OpenSim, "/dev/ttyUSB0", writer, opts...)
}

func TestConnectReportsBoardType(t *testing.T) {
	s := newTestSession(t)
	r := s.Connect()
	if !r.Success() {
		t.Fatalf("expected success, got %+v", r)
	}
	if r.BoardType != "cyton_daisy" {
		t.Fatalf("expected first probe configuration, got %q", r.BoardType)
	}
	if !strings.Contains(r.Message, "connected successfully") {
		t.Fatalf("unexpected message: %q", r.Message)
	}
}

func TestConnectFailureAggregated(t *testing.T) {
	failing := func(port string, desc board.Descriptor) (board.Board, error) {
		return nil, fmt.Errorf("open %s: no such device", port)
	}
	writer := recording.NewWriter(t.TempDir(), "eeg")
	s := NewSession(failing, "/dev/ttyBAD", writer, WithDiagnostics(io.Discard))

	r := s.Connect()
	if r.Success() {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(r.Message, "could not connect to any board type") {
		t.Fatalf("unexpected message: %q", r.Message)
	}
}

func TestCheckConnection(t *testing.T) {
	s := newTestSession(t)
	r := s.CheckConnection()
	if !r.Success() {
		t.Fatalf("expected success, got %+v", r)
	}
	if r.Connected == nil || !*r.Connected {
		t.Fatalf("expected connected=true, got %+v", r.Connected)
	}
}

func TestRecordingRoundTrip(t *testing.T) {
	s := newTestSession(t)

	start := s.StartRecording()
	if !start.Success() {
		t.Fatalf("start failed: %+v", start)
	}
	if !s.Streaming() {
		t.Fatal("expected streaming after start")
	}

	stop := s.StopRecording(context.Background(), 100*time.Millisecond, "42", "")
	if !stop.Success() {
		t.Fatalf("stop failed: %+v", stop)
	}
	if s.Streaming() {
		t.Fatal("expected streaming cleared after stop")
	}
	if stop.Channels != 16 || stop.SamplingRate != 125 {
		t.Fatalf("unexpected capture shape: %+v", stop)
	}
	if stop.Samples == 0 {
		t.Fatal("expected captured samples after 100ms")
	}
	if !strings.HasPrefix(stop.Filename, "eeg_42_") || !strings.HasSuffix(stop.Filename, ".csv") {
		t.Fatalf("unexpected filename: %q", stop.Filename)
	}

	channels, rows, err := recording.ReadSession(stop.FilePath)
	if err != nil {
		t.Fatalf("failed to read saved session: %v", err)
	}
	if channels != stop.Channels || len(rows) != stop.Samples {
		t.Fatalf("saved session does not match the result: %d channels, %d rows", channels, len(rows))
	}
}

func TestStopRecordingWithoutStartAcquiresBoard(t *testing.T) {
	s := newTestSession(t)
	r := s.StopRecording(context.Background(), 100*time.Millisecond, "7", "explicit.csv")
	if !r.Success() {
		t.Fatalf("expected a fresh-handle stop to succeed, got %+v", r)
	}
	if r.Filename != "explicit.csv" {
		t.Fatalf("explicit filename should win, got %q", r.Filename)
	}
}

func TestStartRecordingTwiceRejected(t *testing.T) {
	s := newTestSession(t)
	if r := s.StartRecording(); !r.Success() {
		t.Fatalf("first start failed: %+v", r)
	}
	if r := s.StartRecording(); r.Success() {
		t.Fatal("second start should be rejected")
	}
	s.Disconnect()
}

func TestDisconnectBestEffort(t *testing.T) {
	s := newTestSession(t)

	// Disconnect without a live handle still reaches a board and succeeds.
	r := s.Disconnect()
	if !r.Success() {
		t.Fatalf("expected success, got %+v", r)
	}
	if r.BoardType == "" {
		t.Fatal("expected a board type in the disconnect result")
	}
}

func TestRelayForwardsSamples(t *testing.T) {
	var relayed bytes.Buffer
	s := newTestSession(t, WithRelay(&relayed), WithExperimentName("pilot"))

	if r := s.StartRecording(); !r.Success() {
		t.Fatalf("start failed: %+v", r)
	}
	time.Sleep(300 * time.Millisecond)
	s.Disconnect()

	scanner := bufio.NewScanner(&relayed)
	var payloads []RelayPayload
	for scanner.Scan() {
		p, ok := ParseRelayLine(scanner.Text())
		if !ok {
			t.Fatalf("non-framed line in relay output: %q", scanner.Text())
		}
		payloads = append(payloads, p)
	}
	if len(payloads) == 0 {
		t.Fatal("expected relayed samples after 300ms")
	}
	for i, p := range payloads {
		if p.Type != "eeg_data" {
			t.Fatalf("unexpected payload type: %q", p.Type)
		}
		if p.ExperimentName != "pilot" {
			t.Fatalf("unexpected experiment name: %q", p.ExperimentName)
		}
		if p.BoardType != "cyton_daisy" {
			t.Fatalf("unexpected board type: %q", p.BoardType)
		}
		if p.SampleIndex != int64(i) {
			t.Fatalf("sample index not monotonic: got %d at position %d", p.SampleIndex, i)
		}
		if len(p.Data) != 16 {
			t.Fatalf("expected 16 channels, got %d", len(p.Data))
		}
	}
}

func TestRelayLineRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := RelayPayload{
		Type:           "eeg_data",
		Timestamp:      1690000000.5,
		ExperimentName: "pilot",
		Data:           []float64{1.5, -2.25},
		SampleIndex:    7,
		BoardType:      "cyton",
	}
	if err := WriteRelayLine(&buf, in); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	line := strings.TrimSuffix(buf.String(), "\n")
	if strings.Contains(line, "\n") {
		t.Fatal("relay line must not contain embedded newlines")
	}
	out, ok := ParseRelayLine(line)
	if !ok {
		t.Fatal("expected the framed line to parse")
	}
	if out.Timestamp != in.Timestamp || out.SampleIndex != in.SampleIndex || len(out.Data) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	if _, ok := ParseRelayLine("Data rate: 250.0 samples/sec"); ok {
		t.Fatal("diagnostic lines must not parse as relay frames")
	}
	if _, ok := ParseRelayLine(" " + RelayMarker + "{}"); ok {
		t.Fatal("marker must start at column 0")
	}
}

func TestResultPrintSingleJSONLine(t *testing.T) {
	var buf bytes.Buffer
	connected := true
	r := Result{Status: "success", Connected: &connected, BoardType: "cyton"}
	if err := r.Print(&buf); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["status"] != "success" || decoded["connected"] != true {
		t.Fatalf("unexpected fields: %v", decoded)
	}
	if _, present := decoded["samples"]; present {
		t.Fatal("zero-valued optional fields should be omitted")
	}
}

func TestErrorfResult(t *testing.T) {
	r := Errorf("port %s busy", "/dev/ttyUSB0")
	if r.Success() {
		t.Fatal("error result must not report success")
	}
	if r.Message != "port /dev/ttyUSB0 busy" {
		t.Fatalf("unexpected message: %q", r.Message)
	}
}
