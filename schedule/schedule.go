// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package schedule owns the set of queries the agent runs, their
// jittered intervals, and the per-query performance bookkeeping.
package schedule

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Option names recognised on a scheduled query.
const (
	OptionSnapshot = "snapshot"
	OptionRemoved  = "removed"
)

// ScheduledQuery is one entry in the schedule. SplayedInterval is the
// jittered period actually used for due-checking; it is computed once
// when the schedule is loaded so that queries sharing a nominal
// interval do not all fire on the same tick.
type ScheduledQuery struct {
	Query           string
	Interval        int
	SplayedInterval int

	// Options holds named booleans; a key is present only when the
	// configuration set it explicitly.
	Options map[string]bool
}

// QueryConfig is the configuration document shape of one query.
type QueryConfig struct {
	Query    string `yaml:"query"`
	Interval int    `yaml:"interval"`
	Snapshot *bool  `yaml:"snapshot,omitempty"`
	Removed  *bool  `yaml:"removed,omitempty"`
}

// Schedule is an immutable snapshot of the scheduled queries, keyed
// by unique name and iterated in name order.
type Schedule struct {
	names   []string
	queries map[string]ScheduledQuery
}

// NewSchedule validates queries and builds a schedule, computing every
// query's splayed interval with the given splay percent. Malformed
// entries are rejected here so the tick loop never observes a query it
// cannot schedule.
func NewSchedule(queries map[string]QueryConfig, splayPercent int) (*Schedule, error) {
	sched := &Schedule{queries: make(map[string]ScheduledQuery, len(queries))}
	for name, config := range queries {
		if name == "" {
			return nil, errors.NotValidf("scheduled query with empty name")
		}
		if config.Query == "" {
			return nil, errors.NotValidf("scheduled query %q with empty query text", name)
		}
		if config.Interval <= 0 {
			return nil, errors.NotValidf("scheduled query %q with interval %d", name, config.Interval)
		}
		options := make(map[string]bool)
		if config.Snapshot != nil {
			options[OptionSnapshot] = *config.Snapshot
		}
		if config.Removed != nil {
			options[OptionRemoved] = *config.Removed
		}
		sched.queries[name] = ScheduledQuery{
			Query:           config.Query,
			Interval:        config.Interval,
			SplayedInterval: splayValue(config.Interval, splayPercent),
			Options:         options,
		}
	}
	sched.names = set.NewStrings(keys(sched.queries)...).SortedValues()
	return sched, nil
}

func keys(queries map[string]ScheduledQuery) []string {
	out := make([]string, 0, len(queries))
	for name := range queries {
		out = append(out, name)
	}
	return out
}

// Names returns the query names in iteration order.
func (s *Schedule) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Query returns the named query and whether it exists.
func (s *Schedule) Query(name string) (ScheduledQuery, bool) {
	q, ok := s.queries[name]
	return q, ok
}

// Len returns the number of scheduled queries.
func (s *Schedule) Len() int {
	return len(s.queries)
}
