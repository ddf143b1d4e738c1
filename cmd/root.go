package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/omotivaudio/vocalbooth/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	pipeline     string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "vocalbooth [backing-track]",
	Short: "Vocal recording booth with backing track playback and mixing",
	Long: `VocalBooth is a CLI tool for recording vocal takes over backing tracks.

It captures microphone input with live level monitoring, plays backing
tracks with optional trim windows, and mixes recorded takes over backing
tracks into export files.

When a backing track is provided, it acts as 'vocalbooth run [backing-track]'.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		// Use default config path if not specified
		if cfgFile == "" {
			cfgFile = os.ExpandEnv("$HOME/.config/vocalbooth.yaml")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := validatePipeline(); err != nil {
			return err
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// If a backing track is provided, delegate to run command
		if len(args) == 1 {
			return runCmd.RunE(cmd, args)
		}
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/vocalbooth.yaml)")
	rootCmd.PersistentFlags().StringVarP(&pipeline, "pipeline", "p", "", "pipeline steps: r=record, m=mix, p=play (e.g., 'rmp', 'rm')")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	// Add flags for direct backing track execution
	rootCmd.Flags().Float64P("backing-gain", "b", 1.0, "backing track gain for mixing")
	rootCmd.Flags().Float64P("take-gain", "t", 1.0, "take gain for mixing")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(mixCmd)
	rootCmd.AddCommand(takesCmd)
	rootCmd.AddCommand(backingtracksCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	// Text handler for clean terminal output
	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

func validatePipeline() error {
	if pipeline == "" {
		return nil
	}
	for _, step := range strings.ToLower(pipeline) {
		switch step {
		case 'r', 'm', 'p':
		default:
			return fmt.Errorf("unknown pipeline step: '%c' (valid: r=record, m=mix, p=play)", step)
		}
	}
	return nil
}
