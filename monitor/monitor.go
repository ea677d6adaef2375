// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package monitor wraps query execution with optional self-resource
// accounting: the process's own table row is sampled before and after
// each run and the observed cost handed to a recorder.
package monitor

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/Heyvaert/osquery/core"
)

var logger = loggo.GetLogger("osquery.monitor")

// Executor runs a query and returns its rows.
type Executor interface {
	Execute(query string) (core.RowSet, error)
}

// Sampler produces the running process's own resource row.
type Sampler interface {
	SampleSelf() (core.Row, error)
}

// Recorder receives the cost of one monitored execution.
type Recorder interface {
	RecordQueryPerformance(name string, elapsed time.Duration, size int, before, after core.Row)
}

// Config holds a Monitor's dependencies.
type Config struct {
	Executor Executor
	Sampler  Sampler
	Recorder Recorder
	Clock    clock.Clock
}

// Validate returns an error if the config cannot drive a Monitor.
func (config Config) Validate() error {
	if config.Executor == nil {
		return errors.NotValidf("nil Executor")
	}
	if config.Sampler == nil {
		return errors.NotValidf("nil Sampler")
	}
	if config.Recorder == nil {
		return errors.NotValidf("nil Recorder")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// Monitor executes scheduled queries, with or without resource
// accounting.
type Monitor struct {
	config Config
}

// New returns a Monitor backed by config, or an error.
func New(config Config) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Monitor{config: config}, nil
}

// Execute runs query. With monitoring disabled it delegates straight
// to the executor. With monitoring enabled it samples the process row
// and wall clock around the run and records a performance sample; a
// failed self-sample silently skips recording and never affects the
// query's own result or error.
func (m *Monitor) Execute(name, query string, monitoringEnabled bool) (core.RowSet, error) {
	if !monitoringEnabled {
		return m.config.Executor.Execute(query)
	}

	before, beforeErr := m.config.Sampler.SampleSelf()
	t0 := m.config.Clock.Now()
	rows, err := m.config.Executor.Execute(query)
	t1 := m.config.Clock.Now()
	after, afterErr := m.config.Sampler.SampleSelf()

	if err != nil {
		return nil, errors.Trace(err)
	}
	if beforeErr != nil || afterErr != nil {
		logger.Debugf("skipping performance sample for query %q: before=%v after=%v",
			name, beforeErr, afterErr)
		return rows, nil
	}
	m.config.Recorder.RecordQueryPerformance(name, t1.Sub(t0), rows.ByteSize(), before, after)
	return rows, nil
}
