package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpaola2/show-notes/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "show-notes",
	Short: "Podcast transcription and summarization server",
	Long: `Show Notes - podcast episode transcription and summarization.

Episodes moved into a user's library are transcribed with speaker labels
and summarized into timestamped sections and notable quotes. Processing
runs asynchronously through a persistent job queue with bounded
transcription concurrency and automatic retry on upstream rate limits.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(loadConfig)
}

// loadConfig loads the configuration when a command needs it
func loadConfig() {
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}
