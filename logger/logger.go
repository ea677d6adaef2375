// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package logger delivers emitted result items to their destinations.
package logger

import (
	"github.com/Heyvaert/osquery/core"
)

// ResultSink receives emitted result items. Snapshot and differential
// results are logged through separate methods so sinks can route them
// independently.
type ResultSink interface {
	// LogSnapshot records a snapshot query's full result set.
	LogSnapshot(item core.QueryLogItem) error

	// LogDifferential records a differential query's delta.
	LogDifferential(item core.QueryLogItem) error
}
