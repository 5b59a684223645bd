package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/stt"
	"github.com/lexiqai/narration-pipeline/internal/timeline"
)

func newCaptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captions <result.json>",
		Short: "Group a transcribed timeline into caption cues",
		Args:  cobra.ExactArgs(1),
		RunE:  runCaptions,
	}
	cmd.Flags().String("format", "json", "Output format: json, srt or vtt")
	cmd.Flags().String("out", "", "Write here instead of stdout")
	cmd.Flags().Int("max-words", -1, "Words per cue, 0 disables (default CAPTION_MAX_WORDS)")
	cmd.Flags().Int("max-chars", -1, "Characters per cue, 0 disables (default CAPTION_MAX_CHARS)")
	cmd.Flags().Float64("max-duration", -1, "Seconds per cue, 0 disables (default CAPTION_MAX_DURATION)")
	cmd.Flags().Bool("no-sentence-break", false, "Do not close cues at sentence ends")
	return cmd
}

// wordsDocument accepts a run result, a bare timeline or a word list.
type wordsDocument struct {
	Timeline *pipeline.Timeline `json:"timeline"`
	Words    []stt.Word         `json:"words"`
}

func runCaptions(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	c := pipeline.CaptionConstraints(cfg)
	if v, _ := cmd.Flags().GetInt("max-words"); v >= 0 {
		c.MaxWords = v
	}
	if v, _ := cmd.Flags().GetInt("max-chars"); v >= 0 {
		c.MaxChars = v
	}
	if v, _ := cmd.Flags().GetFloat64("max-duration"); v >= 0 {
		c.MaxDuration = v
	}
	if v, _ := cmd.Flags().GetBool("no-sentence-break"); v {
		c.BreakOnSentenceEnd = false
	}

	var doc wordsDocument
	if err := readJSON(args[0], &doc); err != nil {
		return err
	}
	words := doc.Words
	if doc.Timeline != nil {
		words = doc.Timeline.Words
	}
	cues := captions.Group(words, c)

	switch format {
	case "json":
		return writeJSONOutput(cmd, outPath, cues)
	case "srt", "vtt":
		out, err := timeline.Export(format, timeline.ExportRequest{Cues: cues}, c, cfg.TimelineFPS)
		if err != nil {
			return err
		}
		return writeOutput(cmd, outPath, []byte(out))
	}
	return fmt.Errorf("unknown caption format %q (want json, srt or vtt)", format)
}
