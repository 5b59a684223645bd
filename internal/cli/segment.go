package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexiqai/narration-pipeline/internal/audio"
	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/progress"
	"github.com/lexiqai/narration-pipeline/internal/storage"
)

func newSegmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment <input>",
		Short: "Cut a source into canonical WAV segments and print a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd, args[0], false)
		},
	}
	addSegmentFlags(cmd)
	return cmd
}

func newSplitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <input.wav>",
		Short: "Split a PCM WAV into sub-containers without decoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd, args[0], true)
		},
	}
	addSegmentFlags(cmd)
	return cmd
}

func addSegmentFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "segments", "Directory for segment files")
	cmd.Flags().String("upload", "", "Upload segments to gs://bucket/prefix instead of --out")
	cmd.Flags().String("manifest", "", "Write the manifest here instead of stdout")
	cmd.Flags().Float64("seconds", 0, "Segment duration in seconds (default SEGMENT_SECONDS)")
	cmd.Flags().String("run", "", "Run id used to name segments (default: random)")
}

func runSegment(cmd *cobra.Command, input string, containerOnly bool) error {
	cfg, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if seconds, _ := cmd.Flags().GetFloat64("seconds"); seconds > 0 {
		cfg.SegmentSeconds = seconds
	}
	outDir, _ := cmd.Flags().GetString("out")
	upload, _ := cmd.Flags().GetString("upload")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		runID = observability.NewRunID()
	}

	logger := observability.WithRunID(runID)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, gcsStore, closeSources, err := sources(ctx, cfg, input, upload)
	if err != nil {
		return err
	}
	defer closeSources()

	var sink storage.Sink = &storage.FileStore{Dir: outDir}
	if upload != "" {
		bucket, prefix, err := storage.ParseGCSDestination(upload)
		if err != nil {
			return err
		}
		gcsStore.Bucket, gcsStore.Prefix = bucket, prefix
		sink = gcsStore
	}

	src, err := readInput(ctx, resolver, input)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg, resolver, sink, nil, logger)
	if err := runner.Segmenter.CheckCeiling(); err != nil {
		return err
	}
	report := progress.WithRunID(runID, progress.Log(logger))

	var (
		segments []audio.Segment
		mode     string
	)
	if containerOnly {
		seg := *runner.Segmenter
		seg.Progress = report
		segments, err = seg.SplitContainer(src)
		mode = pipeline.ModeContainer
	} else {
		segments, mode, err = runner.Segment(src, baseName(input), report)
	}
	if err != nil {
		return err
	}

	refs, err := runner.Stage(ctx, runID, segments)
	if err != nil {
		return err
	}
	for _, s := range segments {
		if s.Level.Silent {
			logger.Info().Int("segment", s.Index).Float64("rms", s.Level.RMS).Msg("Segment is near-silent")
		}
	}
	logger.Info().Str("mode", mode).Int("segments", len(refs)).Msg("Segments written")

	return writeJSONOutput(cmd, manifestPath, pipeline.Manifest{
		RunID:    runID,
		Source:   input,
		Mode:     mode,
		Segments: refs,
	})
}
