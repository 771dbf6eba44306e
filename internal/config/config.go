// Package config provides configuration structures and defaults for the EEG toolkit
package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Board     BoardConfig     `yaml:"board"`     // Acquisition board settings
	Ingest    IngestConfig    `yaml:"ingest"`    // Data source settings
	Display   DisplayConfig   `yaml:"display"`   // Visualization settings
	Recording RecordingConfig `yaml:"recording"` // Session persistence settings
}

// BoardConfig contains acquisition board configuration parameters
type BoardConfig struct {
	SerialPort string        `yaml:"serial_port"` // Serial port device path (e.g. /dev/ttyUSB0, COM3)
	BaudRate   int           `yaml:"baud_rate"`   // Serial communication baud rate
	Timeout    time.Duration `yaml:"timeout"`     // Timeout for the board to answer a soft reset
}

// IngestConfig contains data source configuration parameters
type IngestConfig struct {
	Source      string  `yaml:"source"`       // Data source: "stdin", "csv", or "synthetic"
	CSVFile     string  `yaml:"csv_file"`     // CSV file to replay (for "csv" source)
	SampleRate  int     `yaml:"sample_rate"`  // Nominal sample rate in Hz
	BufferSize  int     `yaml:"buffer_size"`  // Maximum number of buffered samples
	ReplaySpeed float64 `yaml:"replay_speed"` // CSV replay speed multiplier
}

// DisplayConfig contains visualization configuration parameters
type DisplayConfig struct {
	BoardType      string        `yaml:"board_type"`      // "cyton" (8 channels) or "cyton_daisy" (16 channels)
	ExperimentName string        `yaml:"experiment_name"` // Experiment name shown in the header
	VerticalScale  float64       `yaml:"vertical_scale"`  // Vertical scale in microvolts
	TimeWindow     float64       `yaml:"time_window"`     // Display window in seconds
	MaxFrequency   float64       `yaml:"max_frequency"`   // Maximum frequency shown in the spectrum (Hz)
	MaxUVFFT       float64       `yaml:"max_uv_fft"`      // Maximum spectrum amplitude (microvolts)
	Smoothing      bool          `yaml:"smoothing"`       // Moving-average smoothing of the displayed trace
	Filtering      bool          `yaml:"filtering"`       // Bandpass filtering of the displayed trace
	FrameInterval  time.Duration `yaml:"frame_interval"`  // Frame tick interval
}

// RecordingConfig contains session persistence configuration parameters
type RecordingConfig struct {
	OutputDir    string `yaml:"output_dir"`    // Output directory for session files
	FilePrefix   string `yaml:"file_prefix"`   // Prefix for generated filenames
	ExperimentID string `yaml:"experiment_id"` // Experiment identifier for filenames
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{
			SerialPort: "/dev/ttyUSB0",  // Common USB dongle path
			BaudRate:   115200,          // Cyton dongle baud rate
			Timeout:    5 * time.Second, // Soft-reset prompt timeout
		},
		Ingest: IngestConfig{
			Source:      "stdin", // Read relayed samples from stdin by default
			CSVFile:     "",      // No replay file by default
			SampleRate:  250,     // Cyton sample rate
			BufferSize:  10000,   // Ring buffer capacity in samples
			ReplaySpeed: 1.0,     // Real-time replay
		},
		Display: DisplayConfig{
			BoardType:      "cyton",               // 8 channels
			ExperimentName: "Unnamed Experiment",  // Header label
			VerticalScale:  200.0,                 // +/- 200 uV
			TimeWindow:     5.0,                   // 5 second window
			MaxFrequency:   60.0,                  // Show spectrum up to 60 Hz
			MaxUVFFT:       100.0,                 // Spectrum amplitude ceiling
			Smoothing:      true,                  // Smoothing on by default
			Filtering:      true,                  // Filtering on by default
			FrameInterval:  33 * time.Millisecond, // ~30 FPS
		},
		Recording: RecordingConfig{
			OutputDir:    "uploads/eeg", // Fixed session output directory
			FilePrefix:   "eeg",         // eeg_<experiment>_<timestamp>.csv
			ExperimentID: "test",        // Default experiment identifier
		},
	}
}

// ChannelCount returns the channel count implied by the configured board type.
func (d DisplayConfig) ChannelCount() int {
	if d.BoardType == "cyton_daisy" {
		return 16
	}
	return 8
}
