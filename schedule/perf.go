// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package schedule

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Heyvaert/osquery/core"
)

var (
	executionsDesc = prometheus.NewDesc(
		"osquery_schedule_executions_total",
		"Monitored executions per scheduled query.",
		[]string{"query"}, nil,
	)
	wallTimeDesc = prometheus.NewDesc(
		"osquery_schedule_wall_time_seconds_total",
		"Accumulated wall-clock execution time per scheduled query.",
		[]string{"query"}, nil,
	)
	outputSizeDesc = prometheus.NewDesc(
		"osquery_schedule_output_bytes_total",
		"Accumulated result payload size per scheduled query.",
		[]string{"query"}, nil,
	)
	residentSizeDesc = prometheus.NewDesc(
		"osquery_schedule_resident_size_bytes",
		"Process resident set size after the most recent monitored run.",
		[]string{"query"}, nil,
	)
)

// Performance records the observed cost of monitored query runs. It
// implements prometheus.Collector so the aggregates can be scraped.
type Performance struct {
	mu    sync.Mutex
	stats map[string]*core.QueryPerformance
}

// NewPerformance returns an empty performance recorder.
func NewPerformance() *Performance {
	return &Performance{stats: make(map[string]*core.QueryPerformance)}
}

// RecordQueryPerformance folds one monitored execution into the
// aggregate for name. The before and after rows are the process's own
// table rows sampled around the run.
func (p *Performance) RecordQueryPerformance(
	name string, elapsed time.Duration, size int, before, after core.Row,
) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.stats[name]
	if st == nil {
		st = &core.QueryPerformance{}
		p.stats[name] = st
	}
	st.Executions++
	st.WallTime += elapsed
	st.OutputSize += size
	st.UserTime += columnDelta(before, after, "user_time")
	st.SystemTime += columnDelta(before, after, "system_time")
	if rss, err := strconv.ParseInt(after["resident_size"], 10, 64); err == nil {
		st.ResidentSize = rss
	}
}

// Query returns a copy of the aggregate for name, if any runs have
// been recorded.
func (p *Performance) Query(name string) (core.QueryPerformance, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.stats[name]
	if !ok {
		return core.QueryPerformance{}, false
	}
	return *st, true
}

// columnDelta returns after[column]-before[column] where both parse
// as integers; anything else, including a counter that went backwards,
// contributes nothing.
func columnDelta(before, after core.Row, column string) int64 {
	b, err := strconv.ParseInt(before[column], 10, 64)
	if err != nil {
		return 0
	}
	a, err := strconv.ParseInt(after[column], 10, 64)
	if err != nil {
		return 0
	}
	if a < b {
		return 0
	}
	return a - b
}

// Describe implements prometheus.Collector.
func (p *Performance) Describe(ch chan<- *prometheus.Desc) {
	ch <- executionsDesc
	ch <- wallTimeDesc
	ch <- outputSizeDesc
	ch <- residentSizeDesc
}

// Collect implements prometheus.Collector.
func (p *Performance) Collect(ch chan<- prometheus.Metric) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, st := range p.stats {
		ch <- prometheus.MustNewConstMetric(
			executionsDesc, prometheus.CounterValue, float64(st.Executions), name)
		ch <- prometheus.MustNewConstMetric(
			wallTimeDesc, prometheus.CounterValue, st.WallTime.Seconds(), name)
		ch <- prometheus.MustNewConstMetric(
			outputSizeDesc, prometheus.CounterValue, float64(st.OutputSize), name)
		ch <- prometheus.MustNewConstMetric(
			residentSizeDesc, prometheus.GaugeValue, float64(st.ResidentSize), name)
	}
}
