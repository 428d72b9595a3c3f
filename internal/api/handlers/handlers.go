package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/tx-categorizer/internal/api/middleware"
	"github.com/dvloznov/tx-categorizer/internal/jobs"
	"github.com/dvloznov/tx-categorizer/internal/provider"
)

// RunsHandler handles categorization run endpoints.
type RunsHandler struct {
	store     jobs.JobStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store jobs.JobStore, publisher jobs.Publisher, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// CreateRun handles POST /api/runs
// It enqueues a categorization run and returns immediately; runs execute
// one at a time in the background worker.
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	job := &jobs.CategorizeRunJob{}

	if err := h.publisher.PublishCategorizeRun(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue categorization run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue categorization run")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Categorization run enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get run")
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	runs, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// DiagnosticsHandler exposes the most recent provider interaction.
type DiagnosticsHandler struct {
	log zerolog.Logger
}

// NewDiagnosticsHandler creates a new diagnostics handler.
func NewDiagnosticsHandler(log zerolog.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{log: log}
}

// GetDiagnostics handles GET /api/diagnostics
// It returns the last recorded provider request/response pair, successful
// or not, so a failing run can be inspected without provider-side access.
func (h *DiagnosticsHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	interaction, ok := provider.LastInteraction()
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No provider interaction recorded yet")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, interaction)
}
