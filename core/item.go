// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package core

import (
	"time"
)

// QueryLogItem is one emitted result for a named scheduled query. It
// carries either the full snapshot row set or a differential result,
// never both.
type QueryLogItem struct {
	Name           string `json:"name"`
	HostIdentifier string `json:"hostIdentifier"`
	UnixTime       int64  `json:"unixTime"`
	CalendarTime   string `json:"calendarTime"`

	Snapshot RowSet       `json:"snapshot,omitempty"`
	Results  *DiffResults `json:"diffResults,omitempty"`
}

// AsciiTime formats t the way the result log expects calendar time:
// the ANSI C asctime layout, always in UTC.
func AsciiTime(t time.Time) string {
	return t.UTC().Format(time.ANSIC) + " UTC"
}
