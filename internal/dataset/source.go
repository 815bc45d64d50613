package dataset

import "github.com/dbsmedya/gobalance/internal/types"

// Source produces a normalized dataset. Parsers for specific annotation
// schemas sit behind this boundary.
type Source interface {
	Load() (*types.Dataset, error)
}
