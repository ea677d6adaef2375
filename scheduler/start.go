// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scheduler

import (
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
)

// ServiceRegistry registers cancellable background services so the
// host process can join on them at shutdown.
type ServiceRegistry interface {
	AddService(name string, w worker.Worker)
}

// Start creates a Scheduler from config and registers it with the
// registry; the host then blocks on the registry until shutdown.
func Start(registry ServiceRegistry, config Config) (*Scheduler, error) {
	s, err := New(config)
	if err != nil {
		return nil, errors.Trace(err)
	}
	registry.AddService("scheduler", s)
	return s, nil
}
