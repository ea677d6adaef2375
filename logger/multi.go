// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package logger

import (
	"github.com/juju/loggo"

	"github.com/Heyvaert/osquery/core"
)

var logger = loggo.GetLogger("osquery.logger")

// MultiSink fans every item out to all of its sinks. Every sink is
// attempted even when an earlier one fails; the first failure is
// returned.
type MultiSink struct {
	sinks []ResultSink
}

// NewMultiSink returns a sink over sinks.
func NewMultiSink(sinks ...ResultSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// LogDifferential implements ResultSink.
func (s *MultiSink) LogDifferential(item core.QueryLogItem) error {
	return s.each(func(sink ResultSink) error {
		return sink.LogDifferential(item)
	})
}

// LogSnapshot implements ResultSink.
func (s *MultiSink) LogSnapshot(item core.QueryLogItem) error {
	return s.each(func(sink ResultSink) error {
		return sink.LogSnapshot(item)
	})
}

func (s *MultiSink) each(log func(ResultSink) error) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := log(sink); err != nil {
			logger.Warningf("result sink failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
