// Package dataset builds class indexes over normalized datasets and loads
// datasets from the formats the sampler accepts.
package dataset

import (
	"fmt"

	"github.com/dbsmedya/gobalance/internal/types"
)

// MalformedDatasetError reports a dataset that violates a structural assumption,
// e.g. a record whose annotation container was never populated.
type MalformedDatasetError struct {
	Key    string
	Reason string
}

func (e *MalformedDatasetError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed dataset: %s", e.Reason)
	}
	return fmt.Sprintf("malformed dataset: record %q: %s", e.Key, e.Reason)
}

// Index maps each record key to the distinct classes present in that record.
type Index map[string]types.ClassSet

// BuildIndex collects the class set of every record. Annotations without a
// class label are not class occurrences and are skipped.
func BuildIndex(ds *types.Dataset) (Index, error) {
	if ds == nil {
		return nil, &MalformedDatasetError{Reason: "dataset is nil"}
	}

	idx := make(Index, ds.Len())
	for _, rec := range ds.Records() {
		if rec.Objects == nil {
			return nil, &MalformedDatasetError{Key: rec.Key, Reason: "missing objects container"}
		}
		idx[rec.Key] = rec.Classes()
	}
	return idx, nil
}

// ClassCounts returns how many records contain each class.
func (idx Index) ClassCounts() map[string]int {
	counts := make(map[string]int)
	for _, classes := range idx {
		for name := range classes {
			counts[name]++
		}
	}
	return counts
}
