package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cmsimport/internal/auth"
	"cmsimport/internal/cms"
	"cmsimport/internal/config"
	"cmsimport/internal/dataset"
	"cmsimport/internal/journal"
	"cmsimport/internal/logging"
	"cmsimport/internal/lookup"
	"cmsimport/internal/metrics"
	"cmsimport/internal/reconcile"
	"cmsimport/internal/retry"
	"cmsimport/internal/services"
)

// errRowsFailed is returned after a completed run that left failed rows, so
// the process exits non-zero.
var errRowsFailed = errors.New("one or more rows failed")

const userAgent = "cmsimport/1"

func newReceiveCommand(ctx *commandContext) *cobra.Command {
	var (
		variantName string
		inputPath   string
		batchName   string
		dryRun      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Import a CSV batch into the CMS",
		Long: `Import a CSV batch into the CMS.

Header cells are "name" or "name:type" where type is string, int64, or bytes
(base64). Rows with a contentId update that item; rows without one are matched
by title and folderPath and created when no match exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			variant, err := reconcile.VariantByName(strings.TrimSpace(variantName))
			if err != nil {
				return err
			}
			batch, err := dataset.LoadCSV(inputPath, batchName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				plan, err := reconcile.PlanBatch(variant, batch, cfg.Import.GroupSize)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, plan)
				}
				printPlan(out, batch.Name, variant.Name(), plan)
				return nil
			}

			if err := cfg.RequireCMS(); err != nil {
				return err
			}
			lock, err := journal.AcquireLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runID := journal.NewRunID()
			runCtx := services.WithRunID(signalCtx, runID)
			run, report, err := runReceive(runCtx, cfg, logger, variant, batch, runID)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, struct {
					Run      *journal.Run        `json:"run"`
					Outcomes []reconcile.Outcome `json:"outcomes"`
				}{run, report.Outcomes}); err != nil {
					return err
				}
			} else {
				printRun(out, run)
				printOutcomes(out, report.Outcomes, true)
			}
			if report.HasFailures() {
				return errRowsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variantName, "variant", "content", "Destination variant ("+strings.Join(reconcile.VariantNames(), ", ")+")")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV file to import")
	cmd.Flags().StringVar(&batchName, "name", "", "Batch name for logs and the journal (defaults to the file name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and deduplicate without contacting the CMS")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// runReceive wires the engine for one batch and records the result. The
// journal write and metrics push run even when the context was canceled
// part-way through.
func runReceive(ctx context.Context, cfg *config.Config, logger *slog.Logger, variant reconcile.Variant, batch *dataset.Batch, runID string) (*journal.Run, *reconcile.Report, error) {
	logger = logging.WithContext(ctx, logger)

	client, err := cms.NewClient(cms.Config{
		BaseURL:   cfg.CMS.BaseURL,
		Timeout:   cfg.RequestTimeoutDuration(),
		RateLimit: cfg.CMS.RateLimit,
		RateBurst: cfg.CMS.RateBurst,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, nil, err
	}
	authenticator := auth.New(client, cfg.CMS.Username, cfg.CMS.Password, logger)
	client.UseTokens(authenticator)
	if err := authenticator.Authenticate(ctx); err != nil {
		logging.ErrorWithContext(logger, "initial authentication failed", "auth_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cms.username and cms.password"),
			logging.String(logging.FieldImpact, "rows will fail with no authentication"),
		)
	}

	recorder, err := metrics.NewRecorder(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
	if err != nil {
		return nil, nil, err
	}

	engine, err := reconcile.New(reconcile.Options{
		Variant: variant,
		Store:   client,
		Auth:    authenticator,
		Folders: lookup.NewFolderCache(client, logger),
		Policy: retry.Policy{
			MaxTimeoutAttempts: cfg.Import.MaxTimeoutAttempts,
			TimeoutDelay:       cfg.TimeoutRetryDelay(),
			CommunicationDelay: cfg.CommunicationRetryDelayDuration(),
		},
		GroupSize:         cfg.Import.GroupSize,
		MaxParallelGroups: cfg.Import.MaxParallelGroups,
		MaxSearchTerms:    cfg.Import.MaxSearchTerms,
		TaxonomyDelimiter: cfg.Import.TaxonomyDelimiter,
		Logger:            logger,
		Observer:          recorder,
	})
	if err != nil {
		return nil, nil, err
	}

	report, receiveErr := engine.Receive(ctx, batch)
	recorder.ObserveRun(variant.Name(), report, receiveErr)
	pushMetrics(logger, recorder)
	if receiveErr != nil {
		return nil, nil, receiveErr
	}

	store, err := journal.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()
	run, err := store.RecordRun(context.WithoutCancel(ctx), runID, report)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("run recorded", logging.String("journal", store.Path()))
	return run, report, nil
}

func pushMetrics(logger *slog.Logger, recorder *metrics.Recorder) {
	if !recorder.Enabled() {
		return
	}
	if err := recorder.Push(); err != nil {
		logging.WarnWithContext(logger, "metrics push failed", "metrics_push_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.pushgateway_url"),
			logging.String(logging.FieldImpact, "metrics for this run were not published"),
		)
	}
}

func printPlan(out io.Writer, batch, variant string, plan reconcile.Plan) {
	fmt.Fprintf(out, "Dry run: batch %q for variant %s\n", batch, variant)
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Rows", strconv.Itoa(plan.Rows)},
		{"Distinct", strconv.Itoa(plan.Distinct)},
		{"Groups", strconv.Itoa(plan.Groups)},
		{"New rows", strconv.Itoa(plan.New)},
		{"Update rows", strconv.Itoa(plan.Updates)},
	}))
}
