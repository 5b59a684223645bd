package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/timeline"
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <edl|srt|vtt|fcpxml> <request.json>",
		Short: "Render entries or cues as an edit list, caption file or FCPXML",
		Args:  cobra.ExactArgs(2),
		RunE:  runExport,
	}
	cmd.Flags().String("out", "", "Write here instead of stdout")
	cmd.Flags().Float64("fps", 0, "Frame rate (default TIMELINE_FPS)")
	cmd.Flags().String("title", "", "Title or project name")
	cmd.Flags().String("audio", "", "Narration audio path for FCPXML")
	cmd.Flags().Float64("audio-duration", 0, "Narration duration in seconds for FCPXML")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	format := args[0]
	if _, ok := timeline.ContentType(format); !ok {
		return fmt.Errorf("%w %q", timeline.ErrUnknownFormat, format)
	}

	var req timeline.ExportRequest
	if err := readJSON(args[1], &req); err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetFloat64("fps"); v > 0 {
		req.FPS = v
	}
	if v, _ := cmd.Flags().GetString("title"); v != "" {
		req.Title = v
	}
	if v, _ := cmd.Flags().GetString("audio"); v != "" {
		req.AudioPath = v
	}
	if v, _ := cmd.Flags().GetFloat64("audio-duration"); v > 0 {
		req.AudioDuration = v
	}

	out, err := timeline.Export(format, req, pipeline.CaptionConstraints(cfg), cfg.TimelineFPS)
	observability.RecordExport(format, err == nil)
	if err != nil {
		return err
	}
	outPath, _ := cmd.Flags().GetString("out")
	return writeOutput(cmd, outPath, []byte(out))
}
