// EEG Reader - utility to display contents of recorded EEG session files
// This program reads a session CSV and shows its shape and per-channel
// statistics, useful for verifying a capture before analysis.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MarinDushku/experiment-management-system-final/internal/dsp"
	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
	"github.com/MarinDushku/experiment-management-system-final/internal/version"

	"github.com/spf13/cobra"
)

var (
	showStats     bool
	verticalScale float64
	showVersion   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "eeg-reader [file.csv]",
	Short: "Display contents of recorded EEG session files",
	Long: `EEG Reader displays the shape and per-channel signal statistics of a
recorded session file. Useful for verifying captures and spotting railed
channels after the fact.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("EEG Reader"))
			return
		}
		if len(args) == 0 {
			fmt.Fprintf(os.Stderr, "Error: filename required\n")
			cmd.Usage()
			os.Exit(1)
		}
		if err := displayFile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().BoolVar(&showStats, "stats", true, "show per-channel signal statistics")
	rootCmd.Flags().Float64Var(&verticalScale, "vertical_scale", 200, "vertical scale in microvolts for rail detection")
}

// displayFile reads and displays the contents of a session file
func displayFile(filename string) error {
	fileInfo, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	} else if err != nil {
		return err
	}

	channels, rows, err := recording.ReadSession(filename)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	fmt.Printf("EEG SESSION READER %s\n\n", version.GetFullVersion())
	fmt.Printf("File: %s\n", filepath.Base(filename))
	fmt.Printf("Size: %d bytes\n", fileInfo.Size())
	fmt.Printf("Channels: %d\n", channels)
	fmt.Printf("Samples: %d\n", len(rows))
	if len(rows) > 1 {
		span := rows[len(rows)-1].Timestamp - rows[0].Timestamp
		fmt.Printf("Duration: %.2f s\n", span)
		if span > 0 {
			fmt.Printf("Effective rate: %.1f samples/sec\n", float64(len(rows)-1)/span)
		}
	}

	if !showStats || len(rows) == 0 {
		return nil
	}

	fmt.Printf("\nPer-channel statistics:\n")
	values := make([]float64, len(rows))
	for ch := 0; ch < channels; ch++ {
		for i, row := range rows {
			values[i] = row.Values[ch]
		}
		m := dsp.Analyze(values, verticalScale)
		fmt.Printf("  channel_%-2d  rms %8.2f uV  railed %6.2f%%  variance %10.2f\n",
			ch+1, m.RMS, m.RailPercent, m.Variance)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
