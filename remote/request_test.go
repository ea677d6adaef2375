// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package remote_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/Heyvaert/osquery/remote"
)

type requestSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&requestSuite{})

func (s *requestSuite) TestCallRoundTrip(c *gc.C) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, gc.Equals, "POST")
		c.Check(r.Header.Get("Content-Type"), gc.Equals, "application/json")
		body, err := io.ReadAll(r.Body)
		c.Assert(err, jc.ErrorIsNil)
		c.Assert(json.Unmarshal(body, &received), jc.ErrorIsNil)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	req, err := remote.NewRequest(server.URL, remote.JSONSerializer{}, remote.NewHTTPTransport())
	c.Assert(err, jc.ErrorIsNil)

	err = req.Call(map[string]interface{}{"node_key": "abc"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(received, jc.DeepEquals, map[string]interface{}{"node_key": "abc"})

	response, err := req.Response()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(response, jc.DeepEquals, map[string]interface{}{"status": "ok"})
}

func (s *requestSuite) TestNonSuccessStatusIsError(c *gc.C) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	req, err := remote.NewRequest(server.URL, remote.JSONSerializer{}, remote.NewHTTPTransport())
	c.Assert(err, jc.ErrorIsNil)
	err = req.Call(map[string]interface{}{})
	c.Check(err, gc.ErrorMatches, ".*returned status 403")
}

func (s *requestSuite) TestResponseBeforeCall(c *gc.C) {
	req, err := remote.NewRequest("http://example.com", remote.JSONSerializer{}, remote.NewHTTPTransport())
	c.Assert(err, jc.ErrorIsNil)
	_, err = req.Response()
	c.Check(err, gc.ErrorMatches, "response not found")
}

func (s *requestSuite) TestBadDestination(c *gc.C) {
	_, err := remote.NewRequest("ftp://example.com", remote.JSONSerializer{}, remote.NewHTTPTransport())
	c.Check(err, gc.ErrorMatches, `destination scheme "ftp" not valid`)
}

func (s *requestSuite) TestNilCollaborators(c *gc.C) {
	_, err := remote.NewRequest("http://example.com", nil, remote.NewHTTPTransport())
	c.Check(err, gc.ErrorMatches, "nil Serializer not valid")
	_, err = remote.NewRequest("http://example.com", remote.JSONSerializer{}, nil)
	c.Check(err, gc.ErrorMatches, "nil Transport not valid")
}
