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

package resign

import (
	"fmt"
)

// ErrorKind tells apart the ways resigning can fail.
type ErrorKind int

const (
	// ManifestNotFound means no bundle in the archive carries a
	// signature manifest.
	ManifestNotFound ErrorKind = iota
	// ManifestInvalid means the manifest cannot be used: it is
	// ambiguous, lacks signature paths or points outside its bundle.
	ManifestInvalid
	// SignatureMissing means the purchase carries no signature with
	// id 0.
	SignatureMissing
	// IOFailure covers reading the download and writing the result.
	IOFailure
)

// Error is returned by Resign.
type Error struct {
	Kind ErrorKind
	// Path is the archive or archive entry the error is about.
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ManifestNotFound:
		return fmt.Sprintf("cannot find a bundle signature manifest in %q", e.Path)
	case ManifestInvalid:
		return fmt.Sprintf("cannot use bundle signature manifest %q: %v", e.Path, e.Err)
	case SignatureMissing:
		return "cannot find the account signature of the purchase"
	}
	return fmt.Sprintf("cannot resign %q: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
