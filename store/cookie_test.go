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

	"github.com/ipaget/ipaget/store"
)

type cookieSuite struct{}

var _ = Suite(&cookieSuite{})

func (s *cookieSuite) TestSessionCookie(c *C) {
	h := http.Header{}
	h.Add("Set-Cookie", "a=1; Path=/; Secure")
	h.Add("Set-Cookie", "b=2")
	h.Add("Set-Cookie", "c=x=y; Expires=Wed, 21 Oct 2026 07:28:00 GMT; HttpOnly")
	h.Add("Set-Cookie", "; Path=/")

	cookie := store.SessionCookie(h)
	c.Check(cookie, Equals, "a=1; b=2; c=x=y")
	// same headers, same cookie
	c.Check(store.SessionCookie(h), Equals, cookie)
	c.Check(cookie, Not(Matches), "(?i).*(path|expires|secure|httponly).*")
}

func (s *cookieSuite) TestSessionCookieNone(c *C) {
	c.Check(store.SessionCookie(http.Header{}), Equals, "")
}
