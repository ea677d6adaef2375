// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package core

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Host identifier modes.
const (
	IdentifierHostname = "hostname"
	IdentifierUUID     = "uuid"
)

// hostIDKey stores the generated host uuid in the backing store.
const hostIDKey = "hostIdentifier"

// IdentifierStore is the minimal persistence needed to keep a
// generated host identifier stable across restarts.
type IdentifierStore interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

// HostIdentifier resolves the identifier stamped onto every emitted
// result item. In "hostname" mode it is the machine's hostname. In
// "uuid" mode a uuid is generated on first use and persisted in store
// so the host keeps the same identity across process restarts.
func HostIdentifier(mode string, store IdentifierStore) (string, error) {
	switch mode {
	case IdentifierHostname, "":
		name, err := os.Hostname()
		if err != nil {
			return "", errors.Annotate(err, "reading hostname")
		}
		return name, nil
	case IdentifierUUID:
		if store == nil {
			return "", errors.NotValidf("uuid host identifier without a store")
		}
		value, found, err := store.Get(hostIDKey)
		if err != nil {
			return "", errors.Trace(err)
		}
		if found && len(value) > 0 {
			return strings.TrimSpace(string(value)), nil
		}
		id := uuid.New().String()
		if err := store.Put(hostIDKey, []byte(id)); err != nil {
			return "", errors.Annotate(err, "persisting host identifier")
		}
		return id, nil
	}
	return "", errors.NotValidf("host identifier mode %q", mode)
}
