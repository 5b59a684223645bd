package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/progress"
	"github.com/lexiqai/narration-pipeline/internal/server"
	"github.com/lexiqai/narration-pipeline/internal/storage"
	"github.com/lexiqai/narration-pipeline/internal/stt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("grpc_port", cfg.GRPCPort).
		Str("transcriber", cfg.Transcriber).
		Float64("segment_seconds", cfg.SegmentSeconds).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Narration pipeline service starting")

	ctx := context.Background()

	stack, err := stt.NewStack(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure transcriber")
	}
	defer stack.Close()

	// Segments cut by the service are staged in memory; gs:// references
	// are resolved when Google credentials are available.
	mem := storage.NewMemStore()
	var gcsStore *storage.GCSStore
	if cfg.GoogleCredentialsFile != "" {
		gcsStore, err = storage.NewGCSStore(ctx, "", "", cfg.GoogleClientOptions()...)
		if err != nil {
			logger.Warn().Err(err).Msg("Cloud Storage references disabled")
		} else {
			defer gcsStore.Close()
		}
	}
	resolver := storage.NewDefaultResolver(mem, gcsStore)

	runner := pipeline.NewRunner(cfg, resolver, mem, stack.Transcriber, observability.WithComponent("pipeline"))
	if err := runner.Segmenter.CheckCeiling(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid segmentation settings")
	}

	hub := progress.NewHub(observability.WithComponent("progress"))
	srv := &server.Server{
		Runner:         runner,
		Hub:            hub,
		Checks:         stack.Checks,
		Captions:       pipeline.CaptionConstraints(cfg),
		FPS:            cfg.TimelineFPS,
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         observability.WithComponent("http"),
	}
	if cfg.MetricsEnabled {
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. Transcription requests hold the
	// connection for the whole run, so writes are bounded by the run itself.
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health service for orchestrators that probe over gRPC
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		logger.Fatal().Err(err).Str("grpc_port", cfg.GRPCPort).Msg("Failed to listen for gRPC")
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/v1/transcriptions", cfg.Port)).
			Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	grpcServer.GracefulStop()

	logger.Info().Msg("Server exited gracefully")
}
