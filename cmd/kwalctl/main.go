// Kwalctl is a command-line companion for kwal light and audio sculptures.
//
// It connects to a controller on the local network, mirrors its live state
// over the push channel, and offers direct commands for patterns, colors,
// brightness, and audio. Running without arguments opens the live watch
// panel.
//
// Usage:
//
//	kwalctl [command] [flags]
//
// See 'kwalctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwal/kwalctl/internal/logging"
	"github.com/kwal/kwalctl/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kwalctl",
	Short: "Kwal Controller Companion",
	Long: `A command-line companion for kwal light and audio sculptures.

Mirrors the controller's live state over its push channel and provides
direct commands for patterns, colors, brightness, volume, and audio.

If no command is specified, the live watch panel opens.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kwalctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
