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
	"fmt"
	"runtime"
)

// UserAgent to send
// xxx: this should actually be set per client request, and include the client user agent
var userAgent = "unset"

// SetUserAgentFromVersion sets the user agent from the given version
// and command name.
func SetUserAgentFromVersion(version, cmdName string) (restore func()) {
	origUserAgent := userAgent

	userAgent = fmt.Sprintf("%s/%s (%s; %s)", cmdName, version, runtime.GOOS, runtime.GOARCH)
	return func() {
		userAgent = origUserAgent
	}
}

// UserAgent returns the user-agent string used by requests that do not
// need to impersonate a particular client.
func UserAgent() string {
	return userAgent
}

// MockUserAgent replaces the user agent, for tests.
func MockUserAgent(mock string) (restore func()) {
	orig := userAgent
	userAgent = mock
	return func() {
		userAgent = orig
	}
}
