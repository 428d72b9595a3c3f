package categorize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/domain"
	"github.com/dvloznov/tx-categorizer/internal/logger"
	"github.com/dvloznov/tx-categorizer/internal/provider"
	"github.com/dvloznov/tx-categorizer/internal/source"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusNoWork    = "no_work"
)

// Failure kinds, used by callers to decide how to present a failed run.
const (
	FailureConfiguration = "configuration"
	FailureSource        = "source"
	FailureProvider      = "provider"
	FailureResponse      = "response"
	FailureInternal      = "internal"
)

// Result summarizes one categorization run.
type Result struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	Detail       string `json:"detail,omitempty"`
	Kind         string `json:"kind,omitempty"`
	UpdatedCount int    `json:"updated_count"`
}

// errNoWork stops the pipeline early when no rows need categorization.
var errNoWork = errors.New("no transactions pending categorization")

// runState holds the shared state across all run steps.
type runState struct {
	table       source.Table
	batch       []domain.UncategorizedTransaction
	index       *BatchIndex
	registry    Registry
	corpus      []domain.ReferenceTransaction
	instruction string
	request     domain.CategorizationRequest
	suggestions []domain.SuggestedTransaction
	decisions   []domain.RowUpdateDecision
	updated     int
}

// runStep is a single step in the categorization run.
type runStep interface {
	Execute(ctx context.Context, state *runState) error
}

// Runner executes full categorization runs against one source and provider.
type Runner struct {
	cfg    *config.Config
	src    source.RecordSource
	client provider.Categorizer
	log    zerolog.Logger
}

// NewRunner wires a runner from an already-constructed source and provider
// client so callers (and tests) control both ends.
func NewRunner(cfg *config.Config, src source.RecordSource, client provider.Categorizer, log zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, src: src, client: client, log: log}
}

// Run executes one complete categorization run and always returns a Result,
// even on failure. A run that finds nothing to categorize reports no_work
// without ever contacting the provider.
func (r *Runner) Run(ctx context.Context) (result Result) {
	runID := uuid.NewString()
	log := logger.WithRun(r.log, runID)
	ctx = logger.WithContext(ctx, log)

	result = Result{RunID: runID}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Run aborted by panic")
			result.Status = StatusFailed
			result.Kind = FailureInternal
			result.Message = "The run stopped unexpectedly. No changes were written."
			result.Detail = fmt.Sprintf("panic: %v", rec)
		}
	}()

	log.Info().
		Str("provider", r.client.Name()).
		Int("max_batch_size", r.cfg.MaxBatchSize).
		Msg("Starting categorization run")

	state := &runState{}
	steps := []runStep{
		&loadTableStep{src: r.src},
		&selectBatchStep{maxBatch: r.cfg.MaxBatchSize},
		&loadRegistryStep{src: r.src},
		&buildCorpusStep{maxRefs: r.cfg.MaxReferenceCount, order: r.cfg.ReferenceOrder},
		&composeStep{},
		&callProviderStep{client: r.client},
		&reconcileStep{updateDescriptions: r.cfg.UpdateDescriptions},
		&applyStep{src: r.src},
	}

	for _, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			if errors.Is(err, errNoWork) {
				log.Info().Msg("No transactions pending categorization")
				result.Status = StatusNoWork
				result.Message = "All transactions are already categorized."
				return result
			}
			return r.failure(log, result, err)
		}
	}

	log.Info().
		Int("batch_size", len(state.batch)).
		Int("updated", state.updated).
		Msg("Categorization run complete")

	result.Status = StatusSucceeded
	result.UpdatedCount = state.updated
	result.Message = fmt.Sprintf("Categorized %d of %d transactions.", state.updated, len(state.batch))
	return result
}

// failure classifies the error into a failure kind with a message a
// non-developer can act on; Detail carries the underlying error text.
func (r *Runner) failure(log zerolog.Logger, result Result, err error) Result {
	log.Error().Err(err).Msg("Categorization run failed")

	result.Status = StatusFailed
	result.Detail = err.Error()

	var (
		missingColumn *source.MissingColumnError
		missingTable  *source.MissingTableError
		invalidConfig *config.InvalidConfigError
		missingCred   *provider.MissingCredentialError
		providerErr   *provider.ProviderError
		malformed     *provider.MalformedResponseError
	)
	switch {
	case errors.As(err, &missingColumn):
		result.Kind = FailureConfiguration
		result.Message = fmt.Sprintf("The %s table is missing the required %q column.", missingColumn.Table, missingColumn.Column)
	case errors.As(err, &missingTable):
		result.Kind = FailureConfiguration
		result.Message = fmt.Sprintf("The %s table could not be found in the configured source.", missingTable.Table)
	case errors.As(err, &invalidConfig):
		result.Kind = FailureConfiguration
		result.Message = "The run configuration is invalid. Check the settings and try again."
	case errors.As(err, &missingCred):
		result.Kind = FailureConfiguration
		result.Message = fmt.Sprintf("No API key is configured for %s.", missingCred.Provider)
	case errors.As(err, &providerErr):
		result.Kind = FailureProvider
		result.Message = fmt.Sprintf("The %s request failed. No changes were written.", providerErr.Provider)
	case errors.As(err, &malformed):
		result.Kind = FailureResponse
		result.Message = fmt.Sprintf("The %s response could not be understood. No changes were written.", malformed.Provider)
	default:
		result.Kind = FailureSource
		result.Message = "The run failed before any changes were written."
	}

	return result
}

// Step 1: loadTableStep reads the transactions table and checks its shape.
type loadTableStep struct {
	src source.RecordSource
}

func (s *loadTableStep) Execute(ctx context.Context, state *runState) error {
	table, err := s.src.TransactionRows(ctx)
	if err != nil {
		return err
	}
	for _, column := range source.RequiredColumns {
		if !table.HasColumn(column) {
			return &source.MissingColumnError{Table: "transactions", Column: column}
		}
	}
	state.table = table
	return nil
}

// Step 2: selectBatchStep picks the rows still needing categorization.
type selectBatchStep struct {
	maxBatch int
}

func (s *selectBatchStep) Execute(ctx context.Context, state *runState) error {
	batch, index, err := SelectBatch(state.table, s.maxBatch)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return errNoWork
	}
	state.batch = batch
	state.index = index

	log := logger.FromContext(ctx)
	log.Info().
		Int("batch_size", len(batch)).
		Int("total_rows", len(state.table.Rows)).
		Msg("Selected pending transactions")
	return nil
}

// Step 3: loadRegistryStep reads the category labels from the source.
type loadRegistryStep struct {
	src source.RecordSource
}

func (s *loadRegistryStep) Execute(ctx context.Context, state *runState) error {
	labels, err := s.src.CategoryLabels(ctx)
	if err != nil {
		return err
	}
	state.registry = NewRegistry(labels)
	return nil
}

// Step 4: buildCorpusStep collects already-categorized rows as references.
type buildCorpusStep struct {
	maxRefs int
	order   string
}

func (s *buildCorpusStep) Execute(ctx context.Context, state *runState) error {
	state.corpus = BuildReferenceCorpus(state.table, s.maxRefs, s.order)

	log := logger.FromContext(ctx)
	log.Debug().
		Int("reference_count", len(state.corpus)).
		Int("category_count", state.registry.Len()).
		Msg("Built reference corpus")
	return nil
}

// Step 5: composeStep assembles the instruction and the request payload.
type composeStep struct{}

func (s *composeStep) Execute(ctx context.Context, state *runState) error {
	state.instruction = BuildInstruction(state.registry)
	state.request = BuildRequest(state.batch, state.corpus)
	return nil
}

// Step 6: callProviderStep sends the request to the configured provider.
type callProviderStep struct {
	client provider.Categorizer
}

func (s *callProviderStep) Execute(ctx context.Context, state *runState) error {
	suggestions, err := s.client.Categorize(ctx, state.instruction, state.request)
	if err != nil {
		return err
	}
	state.suggestions = suggestions

	log := logger.FromContext(ctx)
	log.Info().
		Int("suggestion_count", len(suggestions)).
		Msg("Provider returned suggestions")
	return nil
}

// Step 7: reconcileStep filters the suggestions down to safe row updates.
type reconcileStep struct {
	updateDescriptions bool
	now                func() time.Time
}

func (s *reconcileStep) Execute(ctx context.Context, state *runState) error {
	state.decisions = Reconcile(ctx, state.suggestions, state.index, state.registry, ReconcileOptions{
		UpdateDescriptions: s.updateDescriptions,
		Now:                s.now,
	})
	return nil
}

// Step 8: applyStep writes the decisions back through the source.
type applyStep struct {
	src source.RecordSource
}

func (s *applyStep) Execute(ctx context.Context, state *runState) error {
	updated, err := ApplyDecisions(ctx, s.src, state.table, state.index, state.decisions)
	if err != nil {
		return err
	}
	state.updated = updated
	return nil
}
