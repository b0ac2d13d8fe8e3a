package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"cmsimport/internal/cms"
	"cmsimport/internal/dataset"
	"cmsimport/internal/logging"
	"cmsimport/internal/retry"
	"cmsimport/internal/services"
)

// rowTracker records retry accounting for the latest remote call of a row.
// It is owned by the goroutine processing that row.
type rowTracker struct {
	attempts int
	class    retry.Class
}

// dispatch creates or updates the item for one row.
func (e *Engine) dispatch(ctx context.Context, row dataset.Row, index *itemIndex, columns []dataset.Column) Outcome {
	ctx = services.WithRowIndex(ctx, row.Index())
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldTitle, row.Title()),
		logging.String(logging.FieldFolderPath, row.FolderPath()),
	)
	outcome := Outcome{
		Index:      row.Index(),
		Key:        KeyOf(row).String(),
		Title:      row.Title(),
		FolderPath: row.FolderPath(),
		ContentID:  row.ContentID(),
	}

	if ctx.Err() != nil {
		outcome.Action = ActionFailed
		outcome.Reason = ReasonCanceled
		e.logOutcome(logger, outcome)
		return outcome
	}

	if !e.authenticated() {
		outcome.Action = ActionFailed
		outcome.Reason = ReasonNoAuthentication
		e.logOutcome(logger, outcome)
		return outcome
	}

	tracker := &rowTracker{}
	env := Env{
		Store:             e.store,
		Taxonomies:        e.taxonomies,
		Columns:           columns,
		TaxonomyDelimiter: e.taxonomyDelimiter,
		Logger:            logger,
		call: func(ctx context.Context, op string, fn func(context.Context) error) error {
			return e.call(ctx, logger, tracker, op, fn)
		},
	}

	if existing := index.match(row); existing != nil {
		e.update(ctx, env, row, existing, tracker, &outcome)
	} else {
		e.create(ctx, env, row, tracker, &outcome)
	}

	outcome.Attempts = tracker.attempts
	e.logOutcome(logger, outcome)
	return outcome
}

func (e *Engine) update(ctx context.Context, env Env, row dataset.Row, existing *cms.Item, tracker *rowTracker, outcome *Outcome) {
	item := existing.Clone()
	outcome.ContentID = item.ID
	if err := e.variant.MapExisting(ctx, env, row, &item); err != nil {
		e.fail(outcome, tracker, err)
		return
	}
	err := env.Call(ctx, "update content", func(ctx context.Context) error {
		return e.store.UpdateContent(ctx, &item)
	})
	if err != nil {
		e.fail(outcome, tracker, err)
		return
	}
	outcome.Action = ActionUpdated
}

func (e *Engine) create(ctx context.Context, env Env, row dataset.Row, tracker *rowTracker, outcome *Outcome) {
	item, err := e.variant.MapNew(ctx, env, row)
	if errors.Is(err, ErrUpdateOnly) {
		outcome.Action = ActionFailed
		outcome.Reason = ReasonNoExistingItem
		return
	}
	if err != nil {
		e.fail(outcome, tracker, err)
		return
	}

	var folderID int64
	err = env.Call(ctx, "resolve folder", func(ctx context.Context) error {
		id, err := e.folders.ID(ctx, row.FolderPath())
		folderID = id
		return err
	})
	if err != nil {
		e.fail(outcome, tracker, err)
		return
	}
	if folderID <= 0 {
		outcome.Action = ActionSkipped
		outcome.Reason = ReasonFolderNotFound
		return
	}
	item.FolderID = folderID
	item.FolderPath = row.FolderPath()

	var created *cms.Item
	err = env.Call(ctx, "add content", func(ctx context.Context) error {
		result, err := e.store.AddContent(ctx, item)
		created = result
		return err
	})
	if err != nil {
		e.fail(outcome, tracker, err)
		return
	}
	outcome.Action = ActionCreated
	if created != nil {
		outcome.ContentID = created.ID
	}
}

// call gates fn on authentication and runs it through the retry executor.
func (e *Engine) call(ctx context.Context, logger *slog.Logger, tracker *rowTracker, op string, fn func(context.Context) error) error {
	if !e.authenticated() {
		logging.WarnWithContext(logger, "skipping remote call without authentication", "auth_missing",
			logging.String("operation", op),
			logging.String(logging.FieldErrorHint, "check CMS credentials; the initial authentication failed"),
		)
		return ErrNoAuthentication
	}
	attempts, err := e.executor.Do(ctx, op, fn)
	tracker.attempts = attempts
	if err != nil {
		tracker.class = retry.ClassOf(err)
	}
	return err
}

func (e *Engine) fail(outcome *Outcome, tracker *rowTracker, err error) {
	outcome.Action = ActionFailed
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome.Reason = ReasonCanceled
	case errors.Is(err, ErrNoAuthentication):
		outcome.Reason = ReasonNoAuthentication
	default:
		outcome.Reason = err.Error()
	}
	var retryErr *retry.Error
	switch {
	case errors.As(err, &retryErr):
		outcome.Class = tracker.class.String()
	case outcome.Reason != ReasonCanceled && outcome.Reason != ReasonNoAuthentication:
		outcome.Class = services.Kind(err)
	}
}

func (e *Engine) logOutcome(logger *slog.Logger, outcome Outcome) {
	attrs := []logging.Attr{
		logging.Int64(logging.FieldContentID, outcome.ContentID),
		logging.Int(logging.FieldAttempts, outcome.Attempts),
	}
	switch outcome.Action {
	case ActionCreated:
		logger.Info("content created", logging.Args(attrs...)...)
	case ActionUpdated:
		logger.Info("content updated", logging.Args(attrs...)...)
	case ActionSkipped:
		attrs = append(attrs,
			logging.String("reason", outcome.Reason),
			logging.String(logging.FieldErrorHint, "create the destination folder or fix folderPath"),
			logging.String(logging.FieldImpact, "row was skipped"),
		)
		logging.WarnWithContext(logger, "row skipped", "row_skipped", attrs...)
	case ActionFailed:
		attrs = append(attrs, logging.String("reason", outcome.Reason))
		if outcome.Class != "" {
			attrs = append(attrs, logging.String("class", outcome.Class))
		}
		hint := "see reason; rerun the batch after fixing the cause"
		switch outcome.Reason {
		case ReasonNoExistingItem:
			hint = "this variant only updates existing items; check contentId, title and folderPath"
		case ReasonNoAuthentication:
			hint = "check CMS credentials; the initial authentication failed"
		case ReasonCanceled:
			hint = "run was interrupted; resubmit the batch"
		}
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
		logging.WarnWithContext(logger, "row failed", "row_failed", attrs...)
	}
	if e.observer != nil {
		e.observer.ObserveOutcome(e.variant.Name(), outcome)
	}
}
