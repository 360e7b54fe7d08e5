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

package store_test

import (
	"net/http"

	. "gopkg.in/check.v1"

	"github.com/ipaget/ipaget/httputil"
	"github.com/ipaget/ipaget/store"
)

type searchSuite struct {
	baseStoreSuite
}

var _ = Suite(&searchSuite{})

func (s *searchSuite) TestSearch(c *C) {
	s.AddCleanup(httputil.MockUserAgent("ipaget/test"))
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, Equals, "GET")
		c.Check(r.URL.Path, Equals, "/search")
		q := r.URL.Query()
		c.Check(q.Get("term"), Equals, "foo bar")
		c.Check(q.Get("country"), Equals, "CN")
		c.Check(q.Get("entity"), Equals, "software")
		c.Check(q.Get("explicit"), Equals, "no")
		c.Check(q.Get("limit"), Equals, "5")
		c.Check(r.Header.Get("User-Agent"), Equals, "ipaget/test")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCount": 2, "results": [
			{"trackId": 123456, "trackName": "Foo", "kind": "software"},
			{"trackId": 654321, "trackName": "Foo Lite"}
		]}`))
	}
	entries, err := s.newStore(c).Search(s.ctx, "foo bar", 0)
	c.Assert(err, IsNil)
	c.Check(entries, DeepEquals, []store.CatalogEntry{
		{ID: 123456, Name: "Foo"},
		{ID: 654321, Name: "Foo Lite"},
	})
}

func (s *searchSuite) TestSearchRetriesOn500(c *C) {
	n := 0
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		n++
		if n < 3 {
			w.WriteHeader(500)
			return
		}
		c.Check(r.URL.Query().Get("limit"), Equals, "10")
		w.Write([]byte(`{"results": [{"trackId": 1, "trackName": "One"}]}`))
	}

	entries, err := s.newStore(c).Search(s.ctx, "one", 10)
	c.Assert(err, IsNil)
	c.Check(n, Equals, 3)
	c.Check(entries, DeepEquals, []store.CatalogEntry{{ID: 1, Name: "One"}})
}

func (s *searchSuite) TestSearchGivesUp(c *C) {
	n := 0
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		n++
		w.WriteHeader(503)
	}

	_, err := s.newStore(c).Search(s.ctx, "one", 1)
	c.Check(err, ErrorMatches, `cannot search the store: got unexpected HTTP status code 503 via GET to .*`)
	c.Check(n, Equals, 3)
}

func (s *searchSuite) TestSearchNotFound(c *C) {
	n := 0
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		n++
		w.WriteHeader(404)
	}

	_, err := s.newStore(c).Search(s.ctx, "one", 1)
	c.Check(err, ErrorMatches, `cannot search the store: got unexpected HTTP status code 404 via GET to .*`)
	c.Check(n, Equals, 1)
}

func (s *searchSuite) TestSearchNoResults(c *C) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultCount": 0, "results": []}`))
	}

	entries, err := s.newStore(c).Search(s.ctx, "nothing", 1)
	c.Assert(err, IsNil)
	c.Check(entries, HasLen, 0)
}
