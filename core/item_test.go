// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package core_test

import (
	"encoding/json"
	"time"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/Heyvaert/osquery/core"
)

type itemSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&itemSuite{})

func (s *itemSuite) TestAsciiTime(c *gc.C) {
	t := time.Date(2025, 11, 3, 9, 15, 0, 0, time.UTC)
	c.Check(core.AsciiTime(t), gc.Equals, "Mon Nov  3 09:15:00 2025 UTC")
}

func (s *itemSuite) TestSnapshotItemOmitsDiff(c *gc.C) {
	item := core.QueryLogItem{
		Name:           "processes",
		HostIdentifier: "zygmund",
		UnixTime:       100,
		CalendarTime:   "x",
		Snapshot:       core.RowSet{{"pid": "1"}},
	}
	data, err := json.Marshal(item)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), jc.Contains, `"snapshot"`)
	c.Check(string(data), gc.Not(jc.Contains), `"diffResults"`)
}

func (s *itemSuite) TestDifferentialItemOmitsSnapshot(c *gc.C) {
	item := core.QueryLogItem{
		Name:    "mounts",
		Results: &core.DiffResults{Added: core.RowSet{{"dev": "sda"}}},
	}
	data, err := json.Marshal(item)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), jc.Contains, `"diffResults"`)
	c.Check(string(data), gc.Not(jc.Contains), `"snapshot"`)
}
