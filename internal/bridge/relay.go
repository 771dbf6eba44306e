package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// RelayMarker prefixes every forwarded sample line. Framing is strict: the
// marker must start at column 0 and is followed by a single-line JSON
// object terminated by LF. Consumers ignore any line not matching the
// prefix exactly; the payload itself can never collide with the marker
// because it contains no newlines.
const RelayMarker = "EEG_DATA:"

// RelayPayload is the structured body of one forwarded sample.
type RelayPayload struct {
	Type           string    `json:"type"`
	Timestamp      float64   `json:"timestamp"`
	ExperimentName string    `json:"experiment_name"`
	Data           []float64 `json:"data"`
	SampleIndex    int64     `json:"sample_index"`
	BoardType      string    `json:"board_type"`
}

// WriteRelayLine emits one framed sample.
func WriteRelayLine(w io.Writer, p RelayPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode relay payload: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s%s\n", RelayMarker, body)
	return err
}

// ParseRelayLine decodes one line of relay output. The second return is
// false for any line that is not a framed sample.
func ParseRelayLine(line string) (RelayPayload, bool) {
	if !strings.HasPrefix(line, RelayMarker) {
		return RelayPayload{}, false
	}
	var p RelayPayload
	if err := json.Unmarshal([]byte(line[len(RelayMarker):]), &p); err != nil {
		return RelayPayload{}, false
	}
	return p, true
}
