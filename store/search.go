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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gopkg.in/retry.v1"

	"github.com/ipaget/ipaget/httputil"
)

// CatalogEntry is one search hit.
type CatalogEntry struct {
	ID   int64  `json:"trackId"`
	Name string `json:"trackName"`
}

// DefaultSearchLimit is the number of hits Search asks for when no
// limit is given.
const DefaultSearchLimit = 5

var defaultRetryStrategy = retry.LimitCount(5, retry.LimitTime(38*time.Second,
	retry.Exponential{
		Initial: 300 * time.Millisecond,
		Factor:  2.5,
	},
))

type searchReply struct {
	Results []CatalogEntry `json:"results"`
}

// Search looks up applications by name in the public catalog of the
// configured country. Unlike the account calls it is retried on
// transient failures, as it has no side effects.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]CatalogEntry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	u := *s.searchURI
	q := u.Query()
	q.Set("term", term)
	q.Set("country", s.country)
	q.Set("entity", "software")
	q.Set("explicit", "no")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	doRequest := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", httputil.UserAgent())
		req.Header.Set("Accept", "application/json")
		return s.client.Do(req)
	}

	var reply searchReply
	readResponse := func(resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			return nil
		}
		reply = searchReply{}
		return json.NewDecoder(resp.Body).Decode(&reply)
	}

	resp, err := httputil.RetryRequest(u.String(), doRequest, readResponse, defaultRetryStrategy)
	if err != nil {
		return nil, fmt.Errorf("cannot search the store: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, respToError(resp, "search the store")
	}
	return reply.Results, nil
}
