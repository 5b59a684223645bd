package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/progress"
	"github.com/lexiqai/narration-pipeline/internal/storage"
	"github.com/lexiqai/narration-pipeline/internal/stt"
)

func newTranscribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <input|manifest.json>",
		Short: "Transcribe a source, or the segments of a manifest, into a timeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscribe,
	}
	cmd.Flags().Bool("manifest", false, "Treat the argument as a manifest written by segment")
	cmd.Flags().String("out", "", "Write the result here instead of stdout")
	cmd.Flags().String("run", "", "Run id (default: random, or the manifest's)")
	return cmd
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fromManifest, _ := cmd.Flags().GetBool("manifest")
	outPath, _ := cmd.Flags().GetString("out")
	runID, _ := cmd.Flags().GetString("run")

	var manifest pipeline.Manifest
	refs := []string{args[0]}
	if fromManifest {
		if err := readJSON(args[0], &manifest); err != nil {
			return err
		}
		if runID == "" {
			runID = manifest.RunID
		}
		for _, s := range manifest.Segments {
			refs = append(refs, s.URI)
		}
	}
	if runID == "" {
		runID = observability.NewRunID()
	}

	logger := observability.WithRunID(runID)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := stt.NewStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	resolver, _, closeSources, err := sources(ctx, cfg, refs...)
	if err != nil {
		return err
	}
	defer closeSources()

	mem := storage.NewMemStore()
	resolver.Register("mem", mem)
	runner := pipeline.NewRunner(cfg, resolver, mem, stack.Transcriber, logger)

	if !fromManifest {
		src, err := readInput(ctx, resolver, args[0])
		if err != nil {
			return err
		}
		result, err := runner.Run(ctx, runID, src, baseName(args[0]))
		if err != nil {
			return err
		}
		return writeJSONOutput(cmd, outPath, result)
	}

	orch := *runner.Orchestrator
	orch.Progress = progress.WithRunID(runID, progress.Log(logger))
	orch.Metrics = observability.NewRunMetrics(runID)
	timeline, err := orch.Transcribe(ctx, manifest.Segments)
	if err != nil {
		return err
	}
	manifest.RunID = runID
	return writeJSONOutput(cmd, outPath, pipeline.Result{
		Manifest: manifest,
		Timeline: timeline,
		Captions: captions.Group(timeline.Words, runner.Captions),
	})
}
