package sqlite

import "github.com/felixgeelhaar/brainarcade/internal/performance"

// Ensure SQLite stores implement the storage interfaces.
var (
	_ performance.Store = (*PerformanceStore)(nil)
	_ performance.Tx    = (*performanceTx)(nil)
)
