// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package core

import (
	"time"
)

// QueryPerformance aggregates the observed cost of one scheduled
// query across its executions.
type QueryPerformance struct {
	// Executions counts monitored runs of the query.
	Executions int

	// WallTime accumulates wall-clock execution time.
	WallTime time.Duration

	// OutputSize accumulates the byte size of every result set the
	// query has produced.
	OutputSize int

	// UserTime and SystemTime accumulate the CPU tick deltas observed
	// between the before and after process samples.
	UserTime   int64
	SystemTime int64

	// ResidentSize is the process resident set size, in bytes, seen
	// after the most recent monitored run.
	ResidentSize int64
}
