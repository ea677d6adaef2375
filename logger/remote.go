// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package logger

import (
	"github.com/juju/errors"

	"github.com/Heyvaert/osquery/core"
	"github.com/Heyvaert/osquery/remote"
)

// Log type markers sent with every remote item.
const (
	logTypeResult   = "result"
	logTypeSnapshot = "snapshot"
)

// RemoteSink ships result items to a remote logging endpoint through
// the generic request abstraction.
type RemoteSink struct {
	request *remote.Request
}

// NewRemoteSink returns a sink posting items to uri. A nil transport
// selects the default HTTP transport.
func NewRemoteSink(uri string, transport remote.Transport) (*RemoteSink, error) {
	if transport == nil {
		transport = remote.NewHTTPTransport()
	}
	request, err := remote.NewRequest(uri, remote.JSONSerializer{}, transport)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &RemoteSink{request: request}, nil
}

// LogDifferential implements ResultSink.
func (s *RemoteSink) LogDifferential(item core.QueryLogItem) error {
	return errors.Trace(s.send(logTypeResult, item))
}

// LogSnapshot implements ResultSink.
func (s *RemoteSink) LogSnapshot(item core.QueryLogItem) error {
	return errors.Trace(s.send(logTypeSnapshot, item))
}

func (s *RemoteSink) send(logType string, item core.QueryLogItem) error {
	return s.request.Call(map[string]interface{}{
		"log_type": logType,
		"data":     item,
	})
}
