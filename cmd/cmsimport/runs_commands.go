package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cmsimport/internal/journal"
	"cmsimport/internal/reconcile"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded import runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if runs == nil {
						runs = []journal.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.Variant,
						run.Batch,
						strconv.Itoa(run.Rows),
						strconv.Itoa(run.Created),
						strconv.Itoa(run.Updated),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Variant", "Batch", "Rows", "Created", "Updated", "Skipped", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var (
		failedOnly bool
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-row outcomes of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				outcomes, err := store.Outcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, struct {
						Run      *journal.Run        `json:"run"`
						Outcomes []reconcile.Outcome `json:"outcomes"`
					}{run, outcomes})
				}
				out := cmd.OutOrStdout()
				printRun(out, run)
				printOutcomes(out, outcomes, failedOnly)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show rows that were skipped or failed")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printRun(out io.Writer, run *journal.Run) {
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Run", run.ID},
		{"Batch", run.Batch},
		{"Variant", run.Variant},
		{"Started", run.StartedAt.Local().Format(time.RFC3339)},
		{"Duration", run.Duration().Round(time.Millisecond).String()},
		{"Rows", fmt.Sprintf("%d (%d distinct, %d existing)", run.Rows, run.Distinct, run.Existing)},
		{"Search calls", strconv.Itoa(run.SearchCalls)},
		{"Created", strconv.Itoa(run.Created)},
		{"Updated", strconv.Itoa(run.Updated)},
		{"Skipped", strconv.Itoa(run.Skipped)},
		{"Failed", strconv.Itoa(run.Failed)},
	}))
}

// printOutcomes renders outcomes as a table. With problemsOnly, successful
// rows are omitted and nothing is printed when every row succeeded.
func printOutcomes(out io.Writer, outcomes []reconcile.Outcome, problemsOnly bool) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		if problemsOnly && (o.Action == reconcile.ActionCreated || o.Action == reconcile.ActionUpdated) {
			continue
		}
		contentID := ""
		if o.ContentID > 0 {
			contentID = strconv.FormatInt(o.ContentID, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(o.Index + 1),
			o.Title,
			o.FolderPath,
			contentID,
			string(o.Action),
			strconv.Itoa(o.Attempts),
			o.Reason,
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Row", "Title", "Folder", "Content ID", "Action", "Attempts", "Reason"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
