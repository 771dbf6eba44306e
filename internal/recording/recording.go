// Package recording persists captured EEG sessions as delimited text files
// and reads them back for replay and inspection.
package recording

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Row is one recorded sample: a timestamp and one value per channel.
type Row struct {
	Timestamp float64
	Values    []float64
}

// Writer writes session files under a fixed output directory.
type Writer struct {
	outputDir string
	prefix    string
}

// NewWriter creates a Writer rooted at outputDir with the given filename
// prefix.
func NewWriter(outputDir, prefix string) *Writer {
	return &Writer{outputDir: outputDir, prefix: prefix}
}

// Filename returns the session filename for an experiment: the explicit name
// when given, otherwise {prefix}_{experimentID}_{YYYYMMDD_HHMMSS}.csv.
func (w *Writer) Filename(experimentID, explicit string, now time.Time) string {
	if explicit != "" {
		return explicit
	}
	return fmt.Sprintf("%s_%s_%s.csv", w.prefix, experimentID, now.Format("20060102_150405"))
}

// WriteSession writes rows to the named file under the output directory,
// creating the directory as needed, and returns the full path. The header
// row is timestamp,channel_1,...,channel_N.
func (w *Writer) WriteSession(filename string, channels int, rows []Row) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := make([]string, channels+1)
	header[0] = "timestamp"
	for i := 0; i < channels; i++ {
		header[i+1] = fmt.Sprintf("channel_%d", i+1)
	}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, channels+1)
	for _, row := range rows {
		record[0] = strconv.FormatFloat(row.Timestamp, 'f', -1, 64)
		for i := 0; i < channels; i++ {
			v := 0.0
			if i < len(row.Values) {
				v = row.Values[i]
			}
			record[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write sample row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush session file: %w", err)
	}
	return path, nil
}

// ReadSession reads a session file back, returning the channel count and all
// recorded rows.
func ReadSession(path string) (int, []Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if len(records) == 0 {
		return 0, nil, fmt.Errorf("session file is empty")
	}

	header := records[0]
	if len(header) < 2 || header[0] != "timestamp" {
		return 0, nil, fmt.Errorf("invalid session header")
	}
	channels := len(header) - 1

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < channels+1 {
			continue
		}
		ts, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		values := make([]float64, channels)
		ok := true
		for i := 0; i < channels; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}
		rows = append(rows, Row{Timestamp: ts, Values: values})
	}
	return channels, rows, nil
}
