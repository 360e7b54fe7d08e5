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

package httputil

import (
	"errors"
	"net/http"
)

const maxRedirects = 10

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > maxRedirects {
		return errors.New("stopped after 10 redirects")
	}
	fixupHeadersForRedirect(req, via)

	return nil
}

// fixupHeadersForRedirect carries the session cookie along when the
// store bounces a request between its own hosts. net/http only copies
// Cookie headers set on the original request when the target domain
// matches exactly.
func fixupHeadersForRedirect(req *http.Request, via []*http.Request) {
	if len(via) == 0 {
		return
	}
	prev := via[0]
	if req.Header.Get("Cookie") != "" {
		return
	}
	if cookie := prev.Header.Get("Cookie"); cookie != "" && sameParentDomain(prev.URL.Hostname(), req.URL.Hostname()) {
		req.Header.Set("Cookie", cookie)
	}
}

// sameParentDomain reports whether both hosts share their last two
// labels, e.g. p25-buy.itunes.apple.com and buy.itunes.apple.com.
func sameParentDomain(a, b string) bool {
	return parentDomain(a) == parentDomain(b)
}

func parentDomain(host string) string {
	dots := 0
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == '.' {
			dots++
			if dots == 2 {
				return host[i+1:]
			}
		}
	}
	return host
}
