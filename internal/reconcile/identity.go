package reconcile

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/zeebo/xxh3"

	"cmsimport/internal/dataset"
)

// Key identifies the equivalence class of a row. Update rows are keyed by
// content id and new rows by (title, folder path); the two never collide.
type Key struct {
	update bool
	id     int64
	title  string
	path   string
}

// KeyOf returns the identity key of row.
func KeyOf(row dataset.Row) Key {
	if !row.IsNew() {
		return Key{update: true, id: row.ContentID()}
	}
	return Key{title: row.Title(), path: row.FolderPath()}
}

// Hash returns an xxh3 digest of the discriminating fields.
func (k Key) Hash() uint64 {
	if k.update {
		return xxh3.HashString("u\x00" + strconv.FormatInt(k.id, 10))
	}
	return xxh3.HashString("n\x00" + k.title + "\x00" + k.path)
}

// String renders the digest as fixed-width hex for logs and the journal.
func (k Key) String() string {
	return fmt.Sprintf("%016x", k.Hash())
}

// Dedup keeps the first row of each equivalence class, preserving input order.
// Rows are bucketed by Hash and compared by Key within a bucket.
func Dedup(rows []dataset.Row) []dataset.Row {
	seen := make(map[uint64][]Key, len(rows))
	distinct := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		key := KeyOf(row)
		sum := key.Hash()
		if slices.Contains(seen[sum], key) {
			continue
		}
		seen[sum] = append(seen[sum], key)
		distinct = append(distinct, row)
	}
	return distinct
}
