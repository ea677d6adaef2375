// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package baseline tracks the last-known result set of every
// differential query and turns fresh results into added/removed
// deltas against it.
package baseline

import (
	"encoding/json"

	"github.com/juju/errors"

	"github.com/Heyvaert/osquery/core"
	"github.com/Heyvaert/osquery/storage"
)

// queryPrefix namespaces baseline keys in the shared backend.
const queryPrefix = "query."

// Store persists one baseline row set per query name. It is the sole
// owner of "previous state": callers never cache baselines themselves.
type Store struct {
	backend storage.Backend
}

// NewStore returns a Store over the given backend.
func NewStore(backend storage.Backend) *Store {
	return &Store{backend: backend}
}

// AddNewResults compares rows against the stored baseline for name,
// replaces the baseline with rows, and returns the delta. An absent
// baseline is treated as empty, so a first run reports every row as
// added. The baseline is replaced even when the delta is empty, which
// keeps it fresh when the source re-emits identical data.
//
// On a read or write error the previous baseline is left untouched
// and the caller must not emit a result for this run.
func (s *Store) AddNewResults(name string, rows core.RowSet) (core.DiffResults, error) {
	old, err := s.Baseline(name)
	if err != nil {
		return core.DiffResults{}, errors.Trace(err)
	}

	diff := core.Diff(old, rows)

	data, err := json.Marshal(rows.Dedup())
	if err != nil {
		return core.DiffResults{}, errors.Annotatef(err, "serializing results for query %q", name)
	}
	if err := s.backend.Put(queryPrefix+name, data); err != nil {
		return core.DiffResults{}, errors.Annotatef(err, "persisting baseline for query %q", name)
	}
	return diff, nil
}

// Baseline returns the stored row set for name, or an empty set if
// the query has never completed a run.
func (s *Store) Baseline(name string) (core.RowSet, error) {
	data, found, err := s.backend.Get(queryPrefix + name)
	if err != nil {
		return nil, errors.Annotatef(err, "loading baseline for query %q", name)
	}
	if !found {
		return nil, nil
	}
	var rows core.RowSet
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Annotatef(err, "decoding baseline for query %q", name)
	}
	return rows, nil
}
