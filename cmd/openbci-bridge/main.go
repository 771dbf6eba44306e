// OpenBCI Bridge - board session lifecycle CLI
// Each invocation performs one transport action against the acquisition
// board and prints exactly one JSON result object as its final stdout line;
// everything else goes to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/board"
	"github.com/MarinDushku/experiment-management-system-final/internal/bridge"
	"github.com/MarinDushku/experiment-management-system-final/internal/config"
	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
	"github.com/MarinDushku/experiment-management-system-final/internal/version"

	"github.com/spf13/cobra"
)

// Command line flag variables
var (
	action         string // Transport action to perform
	serialPort     string // Serial port of the board dongle
	experimentID   string // Experiment identifier used in filenames
	experimentName string // Experiment name carried by relayed samples
	duration       int    // Capture duration in seconds for stop_recording
	outputFile     string // Explicit output filename
	relay          bool   // Forward streamed samples as EEG_DATA lines
	showVersion    bool   // Show version information
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "openbci-bridge",
	Short: "OpenBCI board session lifecycle CLI",
	Long: `OpenBCI Bridge performs one transport action per invocation against the
acquisition board, trying the Cyton+Daisy (16 channel) configuration before
plain Cyton (8 channel). The final stdout line is a JSON result object.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("OpenBCI Bridge"))
			return
		}
		os.Exit(runAction())
	},
}

func init() {
	rootCmd.Flags().StringVar(&action, "action", "", "action: connect, check_connection, start_recording, stop_recording, disconnect")
	rootCmd.Flags().StringVar(&serialPort, "serial_port", "", "serial port for the board (e.g. COM3, /dev/ttyUSB0)")
	rootCmd.Flags().StringVar(&experimentID, "experiment_id", "test", "experiment ID for saving data")
	rootCmd.Flags().StringVar(&experimentName, "experiment_name", "", "experiment name carried by relayed samples")
	rootCmd.Flags().IntVar(&duration, "duration", 5, "duration to record in seconds")
	rootCmd.Flags().StringVar(&outputFile, "output_file", "", "output filename for saving data")
	rootCmd.Flags().BoolVar(&relay, "relay", false, "forward streamed samples to stdout as EEG_DATA lines")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.MarkFlagRequired("action")
	rootCmd.MarkFlagRequired("serial_port")
}

// runAction dispatches the requested transport action and prints its result.
// The exit code is 0 even for error results: the consumer parses the result
// line, and a structured error is a normal outcome.
func runAction() int {
	cfg := config.DefaultConfig()
	writer := recording.NewWriter(cfg.Recording.OutputDir, cfg.Recording.FilePrefix)

	opts := []bridge.Option{bridge.WithExperimentName(experimentName)}
	if relay {
		opts = append(opts, bridge.WithRelay(os.Stdout))
	}
	session := bridge.NewSession(board.OpenSerial, serialPort, writer, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
		cancel()
	}()

	var result bridge.Result
	switch action {
	case "connect":
		result = session.Connect()
	case "check_connection":
		result = session.CheckConnection()
	case "start_recording":
		result = session.StartRecording()
		if result.Success() && relay {
			// Keep relaying until interrupted, then tear down cleanly.
			<-ctx.Done()
			session.Disconnect()
		}
	case "stop_recording":
		result = session.StopRecording(ctx, time.Duration(duration)*time.Second, experimentID, outputFile)
	case "disconnect":
		result = session.Disconnect()
	default:
		result = bridge.Errorf("Unknown action: %s", action)
	}

	if err := result.Print(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
