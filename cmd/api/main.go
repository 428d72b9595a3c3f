package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/tx-categorizer/internal/api/handlers"
	"github.com/dvloznov/tx-categorizer/internal/api/middleware"
	"github.com/dvloznov/tx-categorizer/internal/categorize"
	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/jobs"
	"github.com/dvloznov/tx-categorizer/internal/jobs/inmemory"
	"github.com/dvloznov/tx-categorizer/internal/logger"
	"github.com/dvloznov/tx-categorizer/internal/provider"
	"github.com/dvloznov/tx-categorizer/internal/source/factory"
)

func main() {
	// Parse command-line flags
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		configPath = flag.String("config", os.Getenv("TXCAT_CONFIG"), "Path to a TOML config file (or set TXCAT_CONFIG env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx := context.Background()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Create job handler for processing categorization runs. The source and
	// provider client are rebuilt per job so a credential or config rotation
	// takes effect on the next run.
	jobHandler := func(ctx context.Context, job jobs.Job) (*categorize.Result, error) {
		runJob, ok := job.(*jobs.CategorizeRunJob)
		if !ok {
			return nil, fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", runJob.JobID).
			Msg("Processing categorization run")

		src, err := factory.New(ctx, cfg, log)
		if err != nil {
			log.Error().Err(err).Str("job_id", runJob.JobID).Msg("Failed to open record source")
			return nil, err
		}

		client, err := provider.New(cfg)
		if err != nil {
			log.Error().Err(err).Str("job_id", runJob.JobID).Msg("Failed to create provider client")
			return nil, err
		}

		runner := categorize.NewRunner(cfg, src, client, log)
		result := runner.Run(logger.WithContext(ctx, log))

		log.Info().
			Str("job_id", runJob.JobID).
			Str("run_id", result.RunID).
			Str("status", result.Status).
			Int("updated", result.UpdatedCount).
			Msg("Categorization run finished")

		return &result, nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting run worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Run worker stopped with error")
		}
	}()

	// Initialize handlers
	runsHandler := handlers.NewRunsHandler(jobStore, jobQueue, log)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(log)

	// Create router
	mux := http.NewServeMux()

	// Runs endpoints
	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			runsHandler.CreateRun(w, r)
		case http.MethodGet:
			runsHandler.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
				return
			}
			runsHandler.GetRun(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Diagnostics endpoint
	mux.HandleFunc("/api/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			diagnosticsHandler.GetDiagnostics(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for the in-flight run
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
