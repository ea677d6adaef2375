// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package core

import (
	"encoding/json"

	"github.com/juju/collections/set"
)

// Row is a single result row produced by a query: an ordered mapping
// from column name to string value. Two rows are equal iff every
// column/value pair matches exactly.
type Row map[string]string

// Canonical returns a stable encoding of the row, suitable for keying
// whole-row equality. Column names are emitted in sorted order, so two
// equal rows always produce the same encoding.
func (r Row) Canonical() string {
	// encoding/json sorts map keys, which is exactly the ordering
	// guarantee Canonical needs.
	data, err := json.Marshal(r)
	if err != nil {
		// A map[string]string cannot fail to marshal.
		panic(err)
	}
	return string(data)
}

// ByteSize returns the sum of the character lengths of the row's
// column names and values.
func (r Row) ByteSize() int {
	size := 0
	for column, value := range r {
		size += len(column)
		size += len(value)
	}
	return size
}

// RowSet is a collection of rows with set semantics: order is
// irrelevant and duplicate rows collapse.
type RowSet []Row

// ByteSize returns the sum of the character lengths of every column
// name and value across every row in the set.
func (rs RowSet) ByteSize() int {
	size := 0
	for _, row := range rs {
		size += row.ByteSize()
	}
	return size
}

// index maps each row's canonical encoding back to the row itself,
// collapsing duplicates as it goes.
func (rs RowSet) index() (set.Strings, map[string]Row) {
	keys := set.NewStrings()
	rows := make(map[string]Row, len(rs))
	for _, row := range rs {
		key := row.Canonical()
		keys.Add(key)
		rows[key] = row
	}
	return keys, rows
}

// Dedup returns the set with duplicate rows collapsed, in canonical
// (sorted encoding) order.
func (rs RowSet) Dedup() RowSet {
	keys, rows := rs.index()
	out := make(RowSet, 0, keys.Size())
	for _, key := range keys.SortedValues() {
		out = append(out, rows[key])
	}
	return out
}

// DiffResults holds the outcome of comparing a new row set against a
// stored baseline. Both sets empty means no change.
type DiffResults struct {
	Added   RowSet `json:"added"`
	Removed RowSet `json:"removed"`
}

// Empty reports whether the diff carries no changes at all.
func (d DiffResults) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff computes the set difference between a baseline row set and a
// freshly returned one: Added holds the rows present only in new,
// Removed the rows present only in old, by whole-row equality.
func Diff(old, new RowSet) DiffResults {
	oldKeys, oldRows := old.index()
	newKeys, newRows := new.index()

	var results DiffResults
	for _, key := range newKeys.Difference(oldKeys).SortedValues() {
		results.Added = append(results.Added, newRows[key])
	}
	for _, key := range oldKeys.Difference(newKeys).SortedValues() {
		results.Removed = append(results.Removed, oldRows[key])
	}
	return results
}
