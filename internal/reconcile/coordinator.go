package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cmsimport/internal/dataset"
)

// DefaultGroupSize is the number of rows processed sequentially per goroutine.
const DefaultGroupSize = 10

// coordinator fans row groups out to goroutines and joins them.
type coordinator struct {
	groupSize         int
	maxParallelGroups int
}

// partition splits rows into ordered groups of at most size rows.
func partition(rows []dataset.Row, size int) [][]dataset.Row {
	if size <= 0 {
		size = DefaultGroupSize
	}
	groups := make([][]dataset.Row, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		groups = append(groups, rows[start:end])
	}
	return groups
}

// run processes every row and returns outcomes in row order. Rows within a
// group run in order on one goroutine; groups are unordered relative to each
// other. handle must not fail the group: row errors belong in the Outcome.
func (c coordinator) run(ctx context.Context, rows []dataset.Row, handle func(context.Context, dataset.Row) Outcome) []Outcome {
	outcomes := make([]Outcome, len(rows))
	var g errgroup.Group
	if c.maxParallelGroups > 0 {
		g.SetLimit(c.maxParallelGroups)
	}

	size := c.groupSize
	if size <= 0 {
		size = DefaultGroupSize
	}
	for groupIndex, group := range partition(rows, size) {
		offset := groupIndex * size
		g.Go(func() error {
			for i, row := range group {
				outcomes[offset+i] = handle(ctx, row)
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
