// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package remote

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/errors"
)

// httpTimeout bounds one logging round trip; a slow endpoint must not
// stall the caller indefinitely.
const httpTimeout = 30 * time.Second

// HTTPTransport posts payloads to an HTTP endpoint.
type HTTPTransport struct {
	client      *http.Client
	destination string
}

// NewHTTPTransport returns a transport with a bounded request
// timeout.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: httpTimeout},
	}
}

// SetDestination implements Transport.
func (t *HTTPTransport) SetDestination(uri string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return errors.Annotatef(err, "parsing destination %q", uri)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.NotValidf("destination scheme %q", parsed.Scheme)
	}
	t.destination = uri
	return nil
}

// SendRequest implements Transport.
func (t *HTTPTransport) SendRequest(body []byte, contentType string) ([]byte, error) {
	resp, err := t.client.Post(t.destination, contentType, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("endpoint %q returned status %d", t.destination, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotate(err, "reading response")
	}
	return raw, nil
}
