package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "voxguard",
	Short: "Audio spoof detection and speaker verification",
	Long: `voxguard - near-real-time audio monitoring for proctored sessions.

It scores microphone audio chunks for signal quality and spoofing
indicators (playback, muted microphone, synthetic audio), tracks
per-session risk history, and enrolls/verifies speaker identities
against reference voice embeddings.

Examples:
  # Run the server with a config file
  voxguard serve -c config.yaml

  # Enroll and verify a speaker from raw PCM16 files
  voxguard enroll --user alice sample.pcm
  voxguard verify --user alice check.pcm

  # One-shot risk report for a recording
  voxguard analyze sample.pcm`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
