// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package tables

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/Heyvaert/osquery/core"
)

// pageSize converts /proc rss pages to bytes.
const pageSize = 4096

// generateProcesses lists every process visible under /proc.
// Processes that vanish mid-scan are skipped.
func generateProcesses() (core.RowSet, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, errors.Annotate(err, "reading /proc")
	}
	var rows core.RowSet
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		row, err := ProcessRow(pid)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ProcessRow builds the processes-table row for one pid from its
// /proc stat file.
func ProcessRow(pid int) (core.Row, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return parseStat(string(data))
}

// parseStat parses a /proc/<pid>/stat line. The comm field is wrapped
// in parentheses and may itself contain spaces or parentheses, so the
// line is split around the last closing paren.
func parseStat(stat string) (core.Row, error) {
	open := strings.IndexByte(stat, '(')
	close := strings.LastIndexByte(stat, ')')
	if open < 0 || close < open {
		return nil, errors.Errorf("malformed stat line %q", stat)
	}
	name := stat[open+1 : close]
	head := strings.Fields(stat[:open])
	tail := strings.Fields(stat[close+1:])
	// tail[0] is field 3 (state); utime/stime are fields 14/15 and
	// rss is field 24 of the full line.
	if len(head) < 1 || len(tail) < 22 {
		return nil, errors.Errorf("truncated stat line %q", stat)
	}
	return core.Row{
		"pid":           head[0],
		"name":          name,
		"state":         tail[0],
		"parent":        tail[1],
		"user_time":     tail[11],
		"system_time":   tail[12],
		"resident_size": scaleRSS(tail[21]),
	}, nil
}

func scaleRSS(pages string) string {
	n, err := strconv.ParseInt(pages, 10, 64)
	if err != nil {
		return pages
	}
	return strconv.FormatInt(n*pageSize, 10)
}

// SelfSampler samples the agent's own process row; the monitor uses
// it to bracket query executions.
type SelfSampler struct{}

// SampleSelf implements the monitor's Sampler contract.
func (SelfSampler) SampleSelf() (core.Row, error) {
	row, err := ProcessRow(os.Getpid())
	return row, errors.Trace(err)
}
