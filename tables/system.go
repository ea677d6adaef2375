// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package tables

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/Heyvaert/osquery/core"
)

// generateSystemInfo reports a single row of host facts.
func generateSystemInfo() (core.RowSet, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Annotate(err, "reading hostname")
	}
	row := core.Row{
		"hostname":  hostname,
		"cpu_count": strconv.Itoa(runtime.NumCPU()),
	}
	if release, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		row["kernel_version"] = strings.TrimSpace(string(release))
	}
	if uptime, err := os.ReadFile("/proc/uptime"); err == nil {
		fields := strings.Fields(string(uptime))
		if len(fields) > 0 {
			row["uptime"] = fields[0]
		}
	}
	return core.RowSet{row}, nil
}

// generateTime reports the agent's current notion of time as a single
// row, using the registry's clock.
func (r *Registry) generateTime() (core.RowSet, error) {
	now := r.clock.Now().UTC()
	return core.RowSet{{
		"year":      strconv.Itoa(now.Year()),
		"month":     strconv.Itoa(int(now.Month())),
		"day":       strconv.Itoa(now.Day()),
		"hour":      strconv.Itoa(now.Hour()),
		"minutes":   strconv.Itoa(now.Minute()),
		"seconds":   strconv.Itoa(now.Second()),
		"weekday":   now.Weekday().String(),
		"unix_time": strconv.FormatInt(now.Unix(), 10),
	}}, nil
}
