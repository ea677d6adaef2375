// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package tables implements the agent's built-in data sources. The
// query text of a scheduled query names a table; each table generates
// its full current row set on demand.
package tables

import (
	"strings"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/Heyvaert/osquery/core"
)

// GeneratorFunc produces a table's current rows.
type GeneratorFunc func() (core.RowSet, error)

// Registry routes query text to table generators.
type Registry struct {
	clock  clock.Clock
	tables map[string]GeneratorFunc
}

// NewRegistry returns a registry with the built-in tables installed.
func NewRegistry(clk clock.Clock) *Registry {
	r := &Registry{
		clock:  clk,
		tables: make(map[string]GeneratorFunc),
	}
	r.tables["processes"] = generateProcesses
	r.tables["system_info"] = generateSystemInfo
	r.tables["time"] = r.generateTime
	return r
}

// Register installs an additional table. Registering over an existing
// name is an error.
func (r *Registry) Register(name string, gen GeneratorFunc) error {
	if _, ok := r.tables[name]; ok {
		return errors.AlreadyExistsf("table %q", name)
	}
	r.tables[name] = gen
	return nil
}

// Names returns the registered table names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tables))
	for name := range r.tables {
		out = append(out, name)
	}
	return out
}

// Execute implements the query executor contract: the query text
// names a table whose rows are returned in full.
func (r *Registry) Execute(query string) (core.RowSet, error) {
	gen, ok := r.tables[strings.TrimSpace(query)]
	if !ok {
		return nil, errors.NotFoundf("table %q", strings.TrimSpace(query))
	}
	rows, err := gen()
	if err != nil {
		return nil, errors.Annotatef(err, "generating table %q", strings.TrimSpace(query))
	}
	return rows, nil
}
