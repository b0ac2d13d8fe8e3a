package reconcile

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"cmsimport/internal/cms"
	"cmsimport/internal/dataset"
	"cmsimport/internal/logging"
)

// DefaultMaxSearchTerms bounds the number of predicate terms per search call.
const DefaultMaxSearchTerms = 50

type searchFunc func(ctx context.Context, req cms.SearchRequest) ([]cms.Item, error)

// resolver finds the remote items that already correspond to a batch.
type resolver struct {
	search   searchFunc
	maxTerms int
	logger   *slog.Logger
}

// BatchClauses groups clauses so that no group exceeds maxTerms terms. A
// clause is never split; one larger than maxTerms is sent on its own.
func BatchClauses(clauses []cms.Clause, maxTerms int) []cms.Predicate {
	if maxTerms <= 0 {
		maxTerms = DefaultMaxSearchTerms
	}
	var (
		batches []cms.Predicate
		current cms.Predicate
		terms   int
	)
	for _, clause := range clauses {
		size := clause.Len()
		if size == 0 {
			continue
		}
		if terms > 0 && terms+size > maxTerms {
			batches = append(batches, current)
			current = cms.Predicate{}
			terms = 0
		}
		current.Clauses = append(current.Clauses, clause)
		terms += size
	}
	if len(current.Clauses) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// resolve returns every existing item matching rows, de-duplicated by id in
// first-seen order, plus the number of search calls issued.
func (r *resolver) resolve(ctx context.Context, v Variant, rows []dataset.Row) ([]cms.Item, int, error) {
	var clauses []cms.Clause
	for _, row := range rows {
		clauses = append(clauses, v.Clauses(row)...)
	}
	batches := BatchClauses(clauses, r.maxTerms)
	if len(batches) == 0 {
		return nil, 0, nil
	}

	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("searching for existing items",
		logging.Int("clauses", len(clauses)),
		logging.Int("calls", len(batches)),
		logging.Int("max_terms", r.maxTerms),
	)

	seen := make(map[int64]struct{})
	var existing []cms.Item
	for i, predicate := range batches {
		items, err := r.search(ctx, cms.SearchRequest{Predicate: predicate, IncludeMetadata: v.IncludeMetadata()})
		if err != nil {
			return nil, i + 1, &SearchError{Call: i, Calls: len(batches), Err: err}
		}
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			existing = append(existing, item)
		}
	}

	r.reportMissing(logger, rows, newItemIndex(existing))
	return existing, len(batches), nil
}

func (r *resolver) reportMissing(logger *slog.Logger, rows []dataset.Row, index *itemIndex) {
	var missingIDs []string
	newRows, matchedNew := 0, 0
	for _, row := range rows {
		if !row.IsNew() {
			if index.match(row) == nil {
				missingIDs = append(missingIDs, strconv.FormatInt(row.ContentID(), 10))
			}
			continue
		}
		newRows++
		if index.match(row) != nil {
			matchedNew++
		}
	}
	if len(missingIDs) > 0 {
		logging.WarnWithContext(logger, "content ids not found by search", "existing_ids_missing",
			logging.String("ids", strings.Join(missingIDs, ",")),
			logging.Int("count", len(missingIDs)),
			logging.String(logging.FieldErrorHint, "verify the contentId column refers to items in this CMS"),
			logging.String(logging.FieldImpact, "rows with these ids are handled as unmatched"),
		)
	}
	logger.Info("existing item search complete",
		logging.Int("update_rows", len(rows)-newRows),
		logging.Int("update_rows_missing", len(missingIDs)),
		logging.Int("new_rows", newRows),
		logging.Int("new_rows_matched", matchedNew),
	)
}

type naturalKey struct {
	title string
	path  string
}

// itemIndex is built once per batch and only read afterwards.
type itemIndex struct {
	items  []cms.Item
	byID   map[int64]int
	byName map[naturalKey]int
}

func newItemIndex(items []cms.Item) *itemIndex {
	idx := &itemIndex{
		items:  items,
		byID:   make(map[int64]int, len(items)),
		byName: make(map[naturalKey]int, len(items)),
	}
	for i, item := range items {
		if _, ok := idx.byID[item.ID]; !ok {
			idx.byID[item.ID] = i
		}
		key := naturalKey{title: item.Title, path: item.FolderPath}
		if _, ok := idx.byName[key]; !ok {
			idx.byName[key] = i
		}
	}
	return idx
}

// match returns the existing item for row, or nil.
func (idx *itemIndex) match(row dataset.Row) *cms.Item {
	var (
		pos int
		ok  bool
	)
	if row.IsNew() {
		pos, ok = idx.byName[naturalKey{title: row.Title(), path: row.FolderPath()}]
	} else {
		pos, ok = idx.byID[row.ContentID()]
	}
	if !ok {
		return nil
	}
	return &idx.items[pos]
}
