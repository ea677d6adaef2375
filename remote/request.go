// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package remote is the generic request abstraction used to ship data
// off-host: a serializer turns a property map into wire bytes, a
// transport delivers them and returns the response bytes.
package remote

import (
	"github.com/juju/errors"
)

// Serializer converts between property maps and wire payloads.
type Serializer interface {
	// ContentType names the wire format.
	ContentType() string

	// Serialize encodes params for the wire.
	Serialize(params map[string]interface{}) ([]byte, error)

	// Deserialize decodes a wire payload.
	Deserialize(data []byte) (map[string]interface{}, error)
}

// Transport delivers a serialized payload to a destination and
// returns the raw response.
type Transport interface {
	// SetDestination points the transport at uri.
	SetDestination(uri string) error

	// SendRequest delivers body and returns the response payload.
	SendRequest(body []byte, contentType string) ([]byte, error)
}

// Request combines a serializer and a transport into a callable
// remote endpoint.
type Request struct {
	serializer Serializer
	transport  Transport
	response   map[string]interface{}
}

// NewRequest returns a request aimed at uri.
func NewRequest(uri string, serializer Serializer, transport Transport) (*Request, error) {
	if serializer == nil {
		return nil, errors.NotValidf("nil Serializer")
	}
	if transport == nil {
		return nil, errors.NotValidf("nil Transport")
	}
	if err := transport.SetDestination(uri); err != nil {
		return nil, errors.Trace(err)
	}
	return &Request{serializer: serializer, transport: transport}, nil
}

// Call serializes params and sends them. The response, if any, is
// retained for Response.
func (r *Request) Call(params map[string]interface{}) error {
	body, err := r.serializer.Serialize(params)
	if err != nil {
		return errors.Annotate(err, "serializing request")
	}
	raw, err := r.transport.SendRequest(body, r.serializer.ContentType())
	if err != nil {
		return errors.Trace(err)
	}
	r.response = nil
	if len(raw) > 0 {
		response, err := r.serializer.Deserialize(raw)
		if err != nil {
			return errors.Annotate(err, "deserializing response")
		}
		r.response = response
	}
	return nil
}

// Response returns the most recent call's decoded response.
func (r *Request) Response() (map[string]interface{}, error) {
	if r.response == nil {
		return nil, errors.NotFoundf("response")
	}
	return r.response, nil
}
