// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package monitor_test

import (
	"time"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/Heyvaert/osquery/core"
	"github.com/Heyvaert/osquery/monitor"
)

type monitorSuite struct {
	testing.IsolationSuite

	stub     *testing.Stub
	executor *stubExecutor
	sampler  *stubSampler
	recorder *stubRecorder
	clock    *stepClock
}

var _ = gc.Suite(&monitorSuite{})

func (s *monitorSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.stub = &testing.Stub{}
	s.executor = &stubExecutor{stub: s.stub, rows: core.RowSet{{"pid": "1"}}}
	s.sampler = &stubSampler{stub: s.stub, row: core.Row{"user_time": "1"}}
	s.recorder = &stubRecorder{stub: s.stub}
	s.clock = &stepClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *monitorSuite) newMonitor(c *gc.C) *monitor.Monitor {
	m, err := monitor.New(monitor.Config{
		Executor: s.executor,
		Sampler:  s.sampler,
		Recorder: s.recorder,
		Clock:    s.clock,
	})
	c.Assert(err, jc.ErrorIsNil)
	return m
}

func (s *monitorSuite) TestConfigValidation(c *gc.C) {
	_, err := monitor.New(monitor.Config{})
	c.Check(err, gc.ErrorMatches, "nil Executor not valid")
}

func (s *monitorSuite) TestDisabledDelegates(c *gc.C) {
	m := s.newMonitor(c)
	rows, err := m.Execute("procs", "processes", false)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(rows, jc.DeepEquals, core.RowSet{{"pid": "1"}})
	// No sampling, no recording: only the executor ran.
	s.stub.CheckCallNames(c, "Execute")
}

func (s *monitorSuite) TestDisabledPassesErrorThrough(c *gc.C) {
	s.stub.SetErrors(errors.New("no such table"))
	m := s.newMonitor(c)
	_, err := m.Execute("procs", "nonsense", false)
	c.Check(err, gc.ErrorMatches, "no such table")
}

func (s *monitorSuite) TestEnabledRecordsSample(c *gc.C) {
	m := s.newMonitor(c)
	rows, err := m.Execute("procs", "processes", true)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(rows, jc.DeepEquals, core.RowSet{{"pid": "1"}})
	s.stub.CheckCallNames(c, "SampleSelf", "Execute", "SampleSelf", "RecordQueryPerformance")

	record := s.stub.Calls()[3]
	c.Check(record.Args[0], gc.Equals, "procs")
	// The step clock advances one second per Now call.
	c.Check(record.Args[1], gc.Equals, time.Second)
	c.Check(record.Args[2], gc.Equals, core.RowSet{{"pid": "1"}}.ByteSize())
}

func (s *monitorSuite) TestEnabledExecutionErrorSkipsRecording(c *gc.C) {
	s.stub.SetErrors(nil, errors.New("boom")) // first SampleSelf ok, Execute fails
	m := s.newMonitor(c)
	_, err := m.Execute("procs", "processes", true)
	c.Check(err, gc.ErrorMatches, "boom")
	s.stub.CheckCallNames(c, "SampleSelf", "Execute", "SampleSelf")
}

func (s *monitorSuite) TestFailedSampleSkipsRecordingOnly(c *gc.C) {
	s.stub.SetErrors(errors.New("proc unreadable")) // first SampleSelf fails
	m := s.newMonitor(c)
	rows, err := m.Execute("procs", "processes", true)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(rows, jc.DeepEquals, core.RowSet{{"pid": "1"}})
	s.stub.CheckCallNames(c, "SampleSelf", "Execute", "SampleSelf")
}

type stubExecutor struct {
	stub *testing.Stub
	rows core.RowSet
}

func (e *stubExecutor) Execute(query string) (core.RowSet, error) {
	e.stub.AddCall("Execute", query)
	if err := e.stub.NextErr(); err != nil {
		return nil, err
	}
	return e.rows, nil
}

type stubSampler struct {
	stub *testing.Stub
	row  core.Row
}

func (s *stubSampler) SampleSelf() (core.Row, error) {
	s.stub.AddCall("SampleSelf")
	if err := s.stub.NextErr(); err != nil {
		return nil, err
	}
	return s.row, nil
}

type stubRecorder struct {
	stub *testing.Stub
}

func (r *stubRecorder) RecordQueryPerformance(
	name string, elapsed time.Duration, size int, before, after core.Row,
) {
	r.stub.AddCall("RecordQueryPerformance", name, elapsed, size, before, after)
}

// stepClock advances one second every time Now is read, which gives
// monitored executions a deterministic wall time.
type stepClock struct {
	clockAdapter
	now time.Time
}

func (c *stepClock) Now() time.Time {
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}
