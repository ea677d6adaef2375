// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package dispatcher keeps the process's background services and lets
// the host block until every one of them has finished.
package dispatcher

import (
	"sync"

	"github.com/juju/loggo"
	"github.com/juju/worker/v4"
)

var logger = loggo.GetLogger("osquery.dispatcher")

type service struct {
	name   string
	worker worker.Worker
}

// Dispatcher is a process-wide registry of cancellable background
// services. Services implement worker.Worker: Kill asks them to stop,
// Wait blocks until they have.
type Dispatcher struct {
	mu       sync.Mutex
	services []service
}

// New returns an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// AddService registers a running service under name.
func (d *Dispatcher) AddService(name string, w worker.Worker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services = append(d.services, service{name: name, worker: w})
	logger.Debugf("registered service %q", name)
}

// JoinServices blocks until every registered service has exited and
// returns the first failure, if any.
func (d *Dispatcher) JoinServices() error {
	d.mu.Lock()
	services := make([]service, len(d.services))
	copy(services, d.services)
	d.mu.Unlock()

	var firstErr error
	for _, svc := range services {
		if err := svc.worker.Wait(); err != nil {
			logger.Errorf("service %q exited: %v", svc.name, err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			logger.Debugf("service %q exited", svc.name)
		}
	}
	return firstErr
}

// StopServices asks every registered service to stop. It does not
// wait; follow with JoinServices.
func (d *Dispatcher) StopServices() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, svc := range d.services {
		logger.Debugf("stopping service %q", svc.name)
		svc.worker.Kill()
	}
}
