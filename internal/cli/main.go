// Package cli implements the narrate command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexiqai/narration-pipeline/internal/observability"
)

// Main runs the narrate command and exits non-zero on failure.
func Main() {
	root := NewRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Results go to the command's output
// writer; logs always go to stderr.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "narrate",
		Short:         "Segment, transcribe and export narration audio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			pretty, _ := cmd.Flags().GetBool("pretty")
			observability.InitLoggerTo(cmd.ErrOrStderr(), level, pretty)
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("pretty", false, "Human-readable logs")

	root.AddCommand(
		newSegmentCommand(),
		newSplitCommand(),
		newTranscribeCommand(),
		newCaptionsCommand(),
		newExportCommand(),
	)
	return root
}
