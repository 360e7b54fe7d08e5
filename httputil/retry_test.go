// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 The ipaget Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package httputil_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"gopkg.in/check.v1"
	"gopkg.in/retry.v1"

	"github.com/ipaget/ipaget/httputil"
)

type retrySuite struct{}

var _ = check.Suite(&retrySuite{})

var testRetryStrategy = retry.LimitCount(5, retry.LimitTime(1*time.Second,
	retry.Exponential{
		Initial: 1 * time.Millisecond,
		Factor:  1,
	},
))

func (s *retrySuite) TestRetryRequestOnEOF(c *check.C) {
	n := 0
	var mockServer *httptest.Server
	mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		if n < 4 {
			io.WriteString(w, "{")
			mockServer.CloseClientConnections()
			return
		}
		io.WriteString(w, `{"ok": true}`)
	}))
	c.Assert(mockServer, check.NotNil)
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)

	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	var got interface{}
	readResponseBody := func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&got)
	}

	_, err := httputil.RetryRequest("endp", doRequest, readResponseBody, testRetryStrategy)
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, map[string]interface{}{"ok": true})
	c.Assert(n, check.Equals, 4)
}

func (s *retrySuite) TestRetryRequestOn500(c *check.C) {
	n := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		if n < 4 {
			w.WriteHeader(500)
			return
		}
		io.WriteString(w, `{"ok": true}`)
	}))
	c.Assert(mockServer, check.NotNil)
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}
	var got interface{}
	readResponseBody := func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&got)
	}

	resp, err := httputil.RetryRequest("endp", doRequest, readResponseBody, testRetryStrategy)
	c.Assert(err, check.IsNil)
	c.Check(resp.StatusCode, check.Equals, 200)
	c.Assert(n, check.Equals, 4)
}

func (s *retrySuite) TestRetryRequestGivesUpOn500(c *check.C) {
	n := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		w.WriteHeader(500)
	}))
	c.Assert(mockServer, check.NotNil)
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}
	readResponseBody := func(resp *http.Response) error {
		return nil
	}

	resp, err := httputil.RetryRequest("endp", doRequest, readResponseBody, testRetryStrategy)
	c.Assert(err, check.IsNil)
	c.Check(resp.StatusCode, check.Equals, 500)
	c.Assert(n, check.Equals, 5)
}

func (s *retrySuite) TestNoRetryOnDecodeError(c *check.C) {
	n := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		io.WriteString(w, "not json")
	}))
	c.Assert(mockServer, check.NotNil)
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}
	var got interface{}
	readResponseBody := func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&got)
	}

	_, err := httputil.RetryRequest("endp", doRequest, readResponseBody, testRetryStrategy)
	c.Assert(err, check.NotNil)
	c.Check(n, check.Equals, 1)
}
