// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package storage provides the persistent key-value backend the agent
// keeps its differential baselines and host identity in.
package storage

// Backend is the key-value store contract. Values are opaque to the
// backend; keys are namespaced by the caller. Put is all-or-nothing:
// a failed write must leave any previous value for the key intact.
type Backend interface {
	// Get returns the value stored for key, and whether one exists.
	Get(key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases the backend's resources.
	Close() error
}
