// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package scheduler runs the agent's tick loop: once per tick it
// works out which scheduled queries are due, executes them, turns
// their results into snapshot or differential items, and emits them.
package scheduler

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/Heyvaert/osquery/core"
	"github.com/Heyvaert/osquery/schedule"
)

// Logger represents the methods the scheduler uses to log.
type Logger interface {
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
}

// ScheduleSource supplies scoped, read-only schedule snapshots. The
// scheduler acquires one per tick and releases it before sleeping.
type ScheduleSource interface {
	Acquire() *schedule.Snapshot
}

// Executor runs one named query, optionally under resource
// monitoring.
type Executor interface {
	Execute(name, query string, monitoringEnabled bool) (core.RowSet, error)
}

// DiffStore turns a query's fresh rows into a delta against its
// stored baseline, replacing the baseline as it goes.
type DiffStore interface {
	AddNewResults(name string, rows core.RowSet) (core.DiffResults, error)
}

// ResultSink receives emitted items.
type ResultSink interface {
	LogSnapshot(item core.QueryLogItem) error
	LogDifferential(item core.QueryLogItem) error
}

// Config holds a Scheduler's dependencies and tunables.
type Config struct {
	Clock    clock.Clock
	Logger   Logger
	Source   ScheduleSource
	Executor Executor
	Store    DiffStore
	Sink     ResultSink

	// HostIdentifier stamps every emitted item.
	HostIdentifier string

	// EnableMonitor turns on per-query resource accounting.
	EnableMonitor bool

	// Timeout bounds the loop in ticks; zero runs unbounded.
	Timeout uint64

	// TickInterval is the inter-tick sleep; zero means one second.
	TickInterval time.Duration
}

// Validate returns an error if the config cannot drive a Scheduler.
func (config Config) Validate() error {
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Source == nil {
		return errors.NotValidf("nil Source")
	}
	if config.Executor == nil {
		return errors.NotValidf("nil Executor")
	}
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}
	if config.Sink == nil {
		return errors.NotValidf("nil Sink")
	}
	if config.HostIdentifier == "" {
		return errors.NotValidf("empty HostIdentifier")
	}
	return nil
}

// Scheduler is the tick-loop worker.
type Scheduler struct {
	catacomb catacomb.Catacomb
	config   Config
}

// New returns a running Scheduler backed by config, or an error.
func New(config Config) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	s := &Scheduler{config: config}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &s.catacomb,
		Work: s.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return s, nil
}

// Kill is part of the worker.Worker interface.
func (s *Scheduler) Kill() {
	s.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (s *Scheduler) Wait() error {
	return s.catacomb.Wait()
}

// loop is the tick loop. The counter starts at the current
// seconds-of-minute so repeated restarts do not realign every query
// on the same phase. Only external cancellation or an exhausted tick
// bound ends it; per-query failures never do.
func (s *Scheduler) loop() error {
	i := uint64(s.config.Clock.Now().Second())
	for ; s.config.Timeout == 0 || i <= s.config.Timeout; i++ {
		s.tick(i)

		// Sleep without holding a schedule snapshot, and leave
		// promptly if killed mid-sleep.
		select {
		case <-s.catacomb.Dying():
			return s.catacomb.ErrDying()
		case <-s.config.Clock.After(s.config.TickInterval):
		}
	}
	return nil
}

// tick runs every query due at tick i, sequentially in schedule
// order.
func (s *Scheduler) tick(i uint64) {
	snapshot := s.config.Source.Acquire()
	defer snapshot.Release()

	sched := snapshot.Schedule()
	for _, name := range sched.Names() {
		query, ok := sched.Query(name)
		if !ok {
			continue
		}
		if i%uint64(query.SplayedInterval) == 0 {
			s.launchQuery(name, query)
		}
	}
}

// launchQuery executes one due query and routes its result. Failures
// are logged and isolated: the query simply contributes nothing this
// tick.
func (s *Scheduler) launchQuery(name string, query schedule.ScheduledQuery) {
	s.config.Logger.Debugf("executing query: %s", query.Query)
	rows, err := s.config.Executor.Execute(name, query.Query, s.config.EnableMonitor)
	if err != nil {
		s.config.Logger.Errorf("error executing query (%s): %v", query.Query, err)
		return
	}

	now := s.config.Clock.Now()
	item := core.QueryLogItem{
		Name:           name,
		HostIdentifier: s.config.HostIdentifier,
		UnixTime:       now.Unix(),
		CalendarTime:   core.AsciiTime(now),
	}

	if query.Options[schedule.OptionSnapshot] {
		// Snapshot queries emit their full row set every run and
		// never touch the baseline store.
		item.Snapshot = rows
		if err := s.config.Sink.LogSnapshot(item); err != nil {
			s.config.Logger.Errorf("error logging snapshot of query (%s): %v", query.Query, err)
		}
		return
	}

	diff, err := s.config.Store.AddNewResults(name, rows)
	if err != nil {
		s.config.Logger.Errorf("error adding new results to database: %v", err)
		return
	}
	if diff.Empty() {
		return
	}

	s.config.Logger.Debugf("found results for query (%s) for host: %s", name, s.config.HostIdentifier)
	if removed, ok := query.Options[schedule.OptionRemoved]; ok && !removed {
		// Display-only suppression: the stored baseline keeps the
		// full row set.
		diff.Removed = nil
	}
	item.Results = &diff
	if err := s.config.Sink.LogDifferential(item); err != nil {
		s.config.Logger.Errorf("error logging the results of query (%s): %v", query.Query, err)
	}
}
