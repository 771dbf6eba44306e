package bridge

import (
	"encoding/json"
	"fmt"
	"io"
)

// Result is the uniform outcome record of every transport operation. It is
// printed as exactly one JSON object on the final stdout line; consumers
// must treat any earlier output as diagnostics.
type Result struct {
	Status       string `json:"status"` // "success" or "error"
	Message      string `json:"message,omitempty"`
	Connected    *bool  `json:"connected,omitempty"`
	BoardType    string `json:"board_type,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Filename     string `json:"filename,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	Samples      int    `json:"samples,omitempty"`
	SamplingRate int    `json:"sampling_rate,omitempty"`
}

// Success reports whether the operation succeeded.
func (r Result) Success() bool { return r.Status == "success" }

// Errorf builds an error Result with a formatted message.
func Errorf(format string, args ...interface{}) Result {
	return Result{Status: "error", Message: fmt.Sprintf(format, args...)}
}

// Print writes the result as a single JSON line.
func (r Result) Print(w io.Writer) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
