package recording

import (
	"math"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "eeg")

	rows := make([]Row, 25)
	for i := range rows {
		values := make([]float64, 8)
		for ch := range values {
			values[ch] = float64(i)*1.5 + float64(ch)*0.25
		}
		rows[i] = Row{Timestamp: 1690000000.0 + float64(i)*0.004, Values: values}
	}

	path, err := w.WriteSession("session.csv", 8, rows)
	if err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	channels, got, err := ReadSession(path)
	if err != nil {
		t.Fatalf("failed to read session back: %v", err)
	}
	if channels != 8 {
		t.Fatalf("expected 8 channels, got %d", channels)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i, row := range got {
		if math.Abs(row.Timestamp-rows[i].Timestamp) > 1e-9 {
			t.Fatalf("row %d timestamp mismatch: %v != %v", i, row.Timestamp, rows[i].Timestamp)
		}
		for ch := range row.Values {
			if math.Abs(row.Values[ch]-rows[i].Values[ch]) > 1e-9 {
				t.Fatalf("row %d channel %d mismatch: %v != %v", i, ch, row.Values[ch], rows[i].Values[ch])
			}
		}
	}
}

func TestWriteSessionHeader(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "eeg")

	path, err := w.WriteSession("header.csv", 3, nil)
	if err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	first := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	if first != "timestamp,channel_1,channel_2,channel_3" {
		t.Fatalf("unexpected header: %q", first)
	}
}

func TestWriteSessionPadsShortRows(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "eeg")

	rows := []Row{{Timestamp: 1, Values: []float64{5}}}
	path, err := w.WriteSession("short.csv", 4, rows)
	if err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	channels, got, err := ReadSession(path)
	if err != nil {
		t.Fatalf("failed to read session back: %v", err)
	}
	if channels != 4 {
		t.Fatalf("expected 4 channels, got %d", channels)
	}
	if got[0].Values[0] != 5 || got[0].Values[3] != 0 {
		t.Fatalf("expected short row zero-padded, got %v", got[0].Values)
	}
}

func TestFilename(t *testing.T) {
	w := NewWriter("uploads/eeg", "eeg")
	now := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	if got := w.Filename("42", "", now); got != "eeg_42_20260830_140509.csv" {
		t.Fatalf("unexpected generated filename: %q", got)
	}
	if got := w.Filename("42", "custom.csv", now); got != "custom.csv" {
		t.Fatalf("explicit filename should win, got %q", got)
	}
}

func TestReadSessionRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.csv"
	if err := os.WriteFile(path, []byte("time,ch1\n1,2\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, _, err := ReadSession(path); err == nil {
		t.Fatal("expected an error for a non-session header")
	}
}

func TestReadSessionSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/mixed.csv"
	content := "timestamp,channel_1,channel_2\n" +
		"1.0,10,20\n" +
		"bad,10,20\n" +
		"2.0,x,20\n" +
		"3.0,30,40\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, rows, err := ReadSession(path)
	if err != nil {
		t.Fatalf("failed to read session: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 valid rows, got %d", len(rows))
	}
	if rows[1].Timestamp != 3.0 {
		t.Fatalf("expected surviving row at t=3, got %v", rows[1].Timestamp)
	}
}
