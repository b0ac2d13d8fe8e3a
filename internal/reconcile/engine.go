package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cmsimport/internal/cms"
	"cmsimport/internal/dataset"
	"cmsimport/internal/logging"
	"cmsimport/internal/lookup"
	"cmsimport/internal/retry"
	"cmsimport/internal/services"
)

// Authorizer is the authentication state the engine consults before each
// remote call.
type Authorizer interface {
	HasAuthentication() bool
	Reauthenticate(ctx context.Context) error
}

// Observer receives run telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveOutcome(variant string, outcome Outcome)
	ObserveSearch(variant string, calls int, elapsed time.Duration, err error)
}

// Options configures an Engine.
type Options struct {
	Variant Variant
	Store   cms.Store
	// Auth gates remote calls and re-authenticates after authorization
	// faults. Nil disables gating.
	Auth Authorizer
	// Folders is shared across engines for the life of the process. Nil
	// creates a private cache.
	Folders *lookup.Cache
	Policy  retry.Policy
	// Sleeper overrides retry pauses (useful for tests).
	Sleeper           func(context.Context, time.Duration) error
	GroupSize         int
	MaxParallelGroups int
	MaxSearchTerms    int
	TaxonomyDelimiter string
	Logger            *slog.Logger
	Observer          Observer
}

// Engine reconciles batches against the remote store for one variant.
type Engine struct {
	variant           Variant
	store             cms.Store
	auth              Authorizer
	folders           *lookup.Cache
	taxonomies        *lookup.Cache
	executor          *retry.Executor
	resolver          *resolver
	coordinator       coordinator
	taxonomyDelimiter string
	logger            *slog.Logger
	observer          Observer
}

// New constructs an engine.
func New(opts Options) (*Engine, error) {
	if opts.Variant == nil {
		return nil, errors.New("reconcile: variant is required")
	}
	if opts.Store == nil {
		return nil, errors.New("reconcile: store is required")
	}

	logger := logging.NewComponentLogger(opts.Logger, "reconcile")

	execOpts := []retry.Option{retry.WithLogger(opts.Logger)}
	if opts.Auth != nil {
		execOpts = append(execOpts, retry.WithReauth(opts.Auth.Reauthenticate))
	}
	if opts.Sleeper != nil {
		execOpts = append(execOpts, retry.WithSleeper(opts.Sleeper))
	}
	policy := opts.Policy
	if policy.Classify == nil && policy.MaxTimeoutAttempts == 0 && policy.TimeoutDelay == 0 && policy.CommunicationDelay == 0 {
		policy = retry.DefaultPolicy()
	}
	executor := retry.NewExecutor(policy, execOpts...)

	folders := opts.Folders
	if folders == nil {
		folders = lookup.NewFolderCache(opts.Store, opts.Logger)
	}

	maxTerms := opts.MaxSearchTerms
	if maxTerms <= 0 {
		maxTerms = DefaultMaxSearchTerms
	}

	e := &Engine{
		variant:           opts.Variant,
		store:             opts.Store,
		auth:              opts.Auth,
		folders:           folders,
		taxonomies:        lookup.NewTaxonomyCache(opts.Store, opts.Logger),
		executor:          executor,
		coordinator:       coordinator{groupSize: opts.GroupSize, maxParallelGroups: opts.MaxParallelGroups},
		taxonomyDelimiter: opts.TaxonomyDelimiter,
		logger:            logger,
		observer:          opts.Observer,
	}
	e.resolver = &resolver{search: e.search, maxTerms: maxTerms, logger: logger}
	return e, nil
}

// Variant returns the engine's destination variant.
func (e *Engine) Variant() Variant { return e.variant }

// Receive imports batch. It fails only for schema, empty-batch, or search
// errors; per-row failures are reported in the returned Report.
func (e *Engine) Receive(ctx context.Context, batch *dataset.Batch) (*Report, error) {
	ctx = services.WithVariant(ctx, e.variant.Name())
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	if err := ValidateBatch(batch, e.variant.Required()); err != nil {
		logging.ErrorWithContext(logger, "batch rejected", "batch_invalid",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the input columns; no rows were imported"),
		)
		return nil, fmt.Errorf("%s: %w", e.variant.Name(), err)
	}

	distinct := Dedup(batch.Rows)
	logger.Info("receiving batch",
		logging.String("batch", batch.Name),
		logging.Int("rows", batch.Len()),
		logging.Int("distinct", len(distinct)),
	)

	var (
		existing []cms.Item
		calls    int
		err      error
	)
	if e.authenticated() {
		searchStart := time.Now()
		existing, calls, err = e.resolver.resolve(ctx, e.variant, distinct)
		if e.observer != nil {
			e.observer.ObserveSearch(e.variant.Name(), calls, time.Since(searchStart), err)
		}
	} else {
		logging.WarnWithContext(logger, "no authentication held; skipping existing item search", "auth_missing",
			logging.String(logging.FieldErrorHint, "check CMS credentials; the initial authentication failed"),
			logging.String(logging.FieldImpact, "every row in the batch will fail"),
		)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "existing item search failed", "search_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check CMS availability; no rows were imported"),
		)
		return nil, err
	}

	index := newItemIndex(existing)
	outcomes := e.coordinator.run(ctx, distinct, func(ctx context.Context, row dataset.Row) Outcome {
		return e.dispatch(ctx, row, index, batch.Columns)
	})

	report := &Report{
		Batch:       batch.Name,
		Variant:     e.variant.Name(),
		Rows:        batch.Len(),
		Distinct:    len(distinct),
		Existing:    len(existing),
		SearchCalls: calls,
		Started:     started,
		Finished:    time.Now(),
		Outcomes:    outcomes,
	}
	logger.Info("batch complete",
		logging.String("batch", batch.Name),
		logging.Int(string(ActionCreated), report.Count(ActionCreated)),
		logging.Int(string(ActionUpdated), report.Count(ActionUpdated)),
		logging.Int(string(ActionSkipped), report.Count(ActionSkipped)),
		logging.Int(string(ActionFailed), report.Count(ActionFailed)),
		logging.Duration("elapsed", report.Duration()),
	)
	return report, nil
}

func (e *Engine) authenticated() bool {
	return e.auth == nil || e.auth.HasAuthentication()
}

// search runs one existence query through the same auth gate and retry
// policy as row calls.
func (e *Engine) search(ctx context.Context, req cms.SearchRequest) ([]cms.Item, error) {
	var items []cms.Item
	err := e.call(ctx, e.logger, &rowTracker{}, "search content", func(ctx context.Context) error {
		found, err := e.store.SearchContent(ctx, req)
		items = found
		return err
	})
	return items, err
}

// Plan is the offline result of validating and deduplicating a batch.
type Plan struct {
	Rows     int `json:"rows"`
	Distinct int `json:"distinct"`
	Groups   int `json:"groups"`
	New      int `json:"new"`
	Updates  int `json:"updates"`
}

// PlanBatch validates batch for v and reports how it would be processed
// without contacting the store.
func PlanBatch(v Variant, batch *dataset.Batch, groupSize int) (Plan, error) {
	if err := ValidateBatch(batch, v.Required()); err != nil {
		return Plan{}, fmt.Errorf("%s: %w", v.Name(), err)
	}
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	distinct := Dedup(batch.Rows)
	plan := Plan{
		Rows:     batch.Len(),
		Distinct: len(distinct),
		Groups:   len(partition(distinct, groupSize)),
	}
	for _, row := range distinct {
		if row.IsNew() {
			plan.New++
		} else {
			plan.Updates++
		}
	}
	return plan, nil
}
