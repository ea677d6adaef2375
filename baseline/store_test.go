// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package baseline_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/Heyvaert/osquery/baseline"
	"github.com/Heyvaert/osquery/core"
	"github.com/Heyvaert/osquery/storage"
)

type storeSuite struct {
	testing.IsolationSuite

	backend *storage.MemoryBackend
	store   *baseline.Store
}

var _ = gc.Suite(&storeSuite{})

func (s *storeSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.backend = storage.NewMemory()
	s.store = baseline.NewStore(s.backend)
}

func (s *storeSuite) TestFirstRunAddsEverything(c *gc.C) {
	rows := core.RowSet{{"pid": "1"}, {"pid": "2"}}
	diff, err := s.store.AddNewResults("processes", rows)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(diff.Added, gc.HasLen, 2)
	c.Check(diff.Removed, gc.HasLen, 0)

	stored, err := s.store.Baseline("processes")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(stored, gc.HasLen, 2)
}

func (s *storeSuite) TestRemovedRowReported(c *gc.C) {
	_, err := s.store.AddNewResults("processes", core.RowSet{{"pid": "1"}, {"pid": "2"}})
	c.Assert(err, jc.ErrorIsNil)

	diff, err := s.store.AddNewResults("processes", core.RowSet{{"pid": "1"}})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(diff.Added, gc.HasLen, 0)
	c.Assert(diff.Removed, gc.HasLen, 1)
	c.Check(diff.Removed[0], jc.DeepEquals, core.Row{"pid": "2"})

	stored, err := s.store.Baseline("processes")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(stored, gc.HasLen, 1)
	c.Check(stored[0], jc.DeepEquals, core.Row{"pid": "1"})
}

func (s *storeSuite) TestIdenticalResultsYieldEmptyDiff(c *gc.C) {
	rows := core.RowSet{{"pid": "1"}, {"pid": "2"}}
	_, err := s.store.AddNewResults("processes", rows)
	c.Assert(err, jc.ErrorIsNil)

	diff, err := s.store.AddNewResults("processes", rows)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(diff.Empty(), jc.IsTrue)
}

func (s *storeSuite) TestBaselinesAreIndependentPerQuery(c *gc.C) {
	_, err := s.store.AddNewResults("one", core.RowSet{{"a": "1"}})
	c.Assert(err, jc.ErrorIsNil)
	diff, err := s.store.AddNewResults("two", core.RowSet{{"a": "1"}})
	c.Assert(err, jc.ErrorIsNil)
	// Query "two" has never run, so its first result is all-added.
	c.Check(diff.Added, gc.HasLen, 1)
}

func (s *storeSuite) TestMissingBaselineIsEmpty(c *gc.C) {
	stored, err := s.store.Baseline("never-ran")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(stored, gc.HasLen, 0)
}

// failingBackend wraps a working backend and fails writes on demand.
type failingBackend struct {
	storage.Backend
	failPuts bool
}

func (b *failingBackend) Put(key string, value []byte) error {
	if b.failPuts {
		return errors.New("disk full")
	}
	return b.Backend.Put(key, value)
}

func (s *storeSuite) TestWriteFailurePreservesBaseline(c *gc.C) {
	backend := &failingBackend{Backend: s.backend}
	store := baseline.NewStore(backend)

	_, err := store.AddNewResults("processes", core.RowSet{{"pid": "1"}})
	c.Assert(err, jc.ErrorIsNil)

	backend.failPuts = true
	_, err = store.AddNewResults("processes", core.RowSet{{"pid": "2"}})
	c.Assert(err, gc.ErrorMatches, `persisting baseline for query "processes": disk full`)

	// The prior baseline is untouched.
	backend.failPuts = false
	stored, err := store.Baseline("processes")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(stored, gc.HasLen, 1)
	c.Check(stored[0], jc.DeepEquals, core.Row{"pid": "1"})
}
