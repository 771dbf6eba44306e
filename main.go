// Brainwave Visualizer - live EEG signal quality and spectrum view
// This program consumes timestamped multi-channel samples from stdin, a
// replayed CSV session, or a synthetic generator, and drives the fixed-tick
// rendering loop over a shared sample buffer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarinDushku/experiment-management-system-final/internal/buffer"
	"github.com/MarinDushku/experiment-management-system-final/internal/config"
	"github.com/MarinDushku/experiment-management-system-final/internal/ingest"
	"github.com/MarinDushku/experiment-management-system-final/internal/render"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command line flag variables
var (
	cfgFile        string  // Configuration file path
	boardType      string  // cyton (8 channels) or cyton_daisy (16 channels)
	experimentName string  // Experiment label for the header
	verticalScale  float64 // Vertical scale in microvolts
	timeWindow     float64 // Display window in seconds
	maxFrequency   float64 // Maximum spectrum frequency (Hz)
	maxUVFFT       float64 // Maximum spectrum amplitude (uV)
	smoothing      bool    // Moving-average smoothing of the displayed trace
	filtering      bool    // Bandpass filtering of the displayed trace
	testMode       bool    // Use the synthetic generator instead of stdin
	autoStart      bool    // Open the streaming gate on launch
	csvFile        string  // Replay a recorded CSV session instead of stdin
	verbose        bool    // Enable verbose logging
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brainwave-visualizer",
	Short: "Live EEG signal quality and spectrum view",
	Long: `Brainwave Visualizer consumes timestamped multi-channel EEG samples and
recomputes per-channel trace, RMS/rail metrics, magnitude spectrum, and a
spatial head-map on a fixed ~30 Hz tick.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runVisualizer(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// init initializes the CLI flags and configuration
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVar(&boardType, "board_type", "cyton", "board type: cyton (8 channels) or cyton_daisy (16 channels)")
	rootCmd.Flags().StringVar(&experimentName, "experiment_name", "Unnamed Experiment", "experiment name for display purposes")
	rootCmd.Flags().Float64Var(&verticalScale, "vertical_scale", 200, "vertical scale in microvolts")
	rootCmd.Flags().Float64Var(&timeWindow, "time_window", 5.0, "time window to display in seconds")
	rootCmd.Flags().Float64Var(&maxFrequency, "max_frequency", 60, "maximum frequency to display in the spectrum (Hz)")
	rootCmd.Flags().Float64Var(&maxUVFFT, "max_uv_fft", 100, "maximum amplitude for the spectrum display (uV)")
	rootCmd.Flags().BoolVar(&smoothing, "smoothing", true, "enable signal smoothing")
	rootCmd.Flags().BoolVar(&filtering, "filtering", true, "enable bandpass filtering")
	rootCmd.Flags().BoolVar(&testMode, "test_mode", false, "run with simulated data instead of reading from stdin")
	rootCmd.Flags().BoolVar(&autoStart, "auto_start", false, "automatically start the data stream on launch")
	rootCmd.Flags().StringVar(&csvFile, "csv_file", "", "read data from a recorded CSV session instead of stdin")

	viper.BindPFlag("display.board_type", rootCmd.Flags().Lookup("board_type"))
	viper.BindPFlag("display.experiment_name", rootCmd.Flags().Lookup("experiment_name"))
	viper.BindPFlag("display.vertical_scale", rootCmd.Flags().Lookup("vertical_scale"))
	viper.BindPFlag("display.time_window", rootCmd.Flags().Lookup("time_window"))
	viper.BindPFlag("display.max_frequency", rootCmd.Flags().Lookup("max_frequency"))
	viper.BindPFlag("display.max_uv_fft", rootCmd.Flags().Lookup("max_uv_fft"))
	viper.BindPFlag("display.smoothing", rootCmd.Flags().Lookup("smoothing"))
	viper.BindPFlag("display.filtering", rootCmd.Flags().Lookup("filtering"))
	viper.BindPFlag("ingest.csv_file", rootCmd.Flags().Lookup("csv_file"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// runVisualizer is the main application logic
func runVisualizer() error {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Display.BoardType = boardType
	cfg.Display.ExperimentName = experimentName
	cfg.Display.VerticalScale = verticalScale
	cfg.Display.TimeWindow = timeWindow
	cfg.Display.MaxFrequency = maxFrequency
	cfg.Display.MaxUVFFT = maxUVFFT
	cfg.Display.Smoothing = smoothing
	cfg.Display.Filtering = filtering

	if cfg.Display.BoardType != "cyton" && cfg.Display.BoardType != "cyton_daisy" {
		return fmt.Errorf("invalid board type: %s (must be 'cyton' or 'cyton_daisy')", cfg.Display.BoardType)
	}
	if cfg.Display.TimeWindow <= 0 {
		return fmt.Errorf("time window must be positive")
	}

	channels := cfg.Display.ChannelCount()
	fmt.Fprintf(os.Stderr, "Starting visualization with %d channels for experiment: %s\n",
		channels, cfg.Display.ExperimentName)

	buf := buffer.New(cfg.Ingest.BufferSize)
	source := ingest.NewSource(buf, autoStart)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on interrupt: every background task observes the
	// cancelled context at its next suspension point.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
		cancel()
	}()

	// Start the configured data source.
	switch {
	case csvFile != "":
		fmt.Fprintf(os.Stderr, "Using CSV file as data source: %s\n", csvFile)
		go func() {
			if err := source.RunFile(ctx, csvFile, cfg.Ingest.SampleRate, cfg.Ingest.ReplaySpeed); err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "CSV replay stopped: %v\n", err)
			}
		}()
	case testMode:
		fmt.Fprintf(os.Stderr, "Starting in TEST MODE with simulated data\n")
		go func() {
			if err := source.RunSynthetic(ctx, channels, cfg.Ingest.SampleRate, cfg.Display.VerticalScale); err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "Test data generation stopped: %v\n", err)
			}
		}()
	default:
		fmt.Fprintf(os.Stderr, "Using stdin as data source\n")
		go func() {
			if err := source.RunStream(ctx, os.Stdin); err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "Data input stopped: %v\n", err)
			}
		}()
	}

	display := render.NewStatusDisplay(os.Stderr, time.Second)
	renderer := render.New(cfg.Display, cfg.Ingest.SampleRate, buf, source, display)

	if err := renderer.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("render loop failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Visualization stopped\n")
	return nil
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
