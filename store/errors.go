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
	"errors"
	"fmt"
)

// AuthErrorKind tells apart the ways an authentication can fail.
type AuthErrorKind int

const (
	// AuthRejected means the store refused the credentials.
	AuthRejected AuthErrorKind = iota
	// AuthChallengeRequired means the credentials were accepted but a
	// second factor must be supplied before a session is granted.
	AuthChallengeRequired
)

// AuthError is returned by Authenticate.
type AuthError struct {
	Kind AuthErrorKind
	// Message is what the store said, if anything.
	Message string
}

func (e *AuthError) Error() string {
	if e.Kind == AuthChallengeRequired {
		return "two-factor authentication required"
	}
	if e.Message == "" {
		return "cannot authenticate to the store: credentials rejected"
	}
	return fmt.Sprintf("cannot authenticate to the store: %s", e.Message)
}

// IsChallengeRequired reports whether err asks the caller to retry the
// authentication with a second-factor code.
func IsChallengeRequired(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == AuthChallengeRequired
}

// CatalogErrorKind tells apart catalog resolution failures.
type CatalogErrorKind int

const (
	// ProductNotFound means the store reply carried no usable product.
	ProductNotFound CatalogErrorKind = iota
)

// CatalogError is returned by ListBuilds and ResolveBuild.
type CatalogError struct {
	Kind    CatalogErrorKind
	AppID   string
	Build   BuildID
	Message string
}

func (e *CatalogError) Error() string {
	what := fmt.Sprintf("application %s", e.AppID)
	if e.Build != "" {
		what = fmt.Sprintf("build %s of application %s", e.Build, e.AppID)
	}
	if e.Message != "" {
		return fmt.Sprintf("cannot find %s in the store: %s", what, e.Message)
	}
	return fmt.Sprintf("cannot find %s in the store", what)
}

// DownloadErrorKind tells apart the sides a download can fail on.
type DownloadErrorKind int

const (
	// DownloadNetwork covers transport errors and unexpected responses.
	DownloadNetwork DownloadErrorKind = iota
	// DownloadFilesystem covers errors creating or writing the target.
	DownloadFilesystem
)

// DownloadError is returned by Download.
type DownloadError struct {
	Kind DownloadErrorKind
	// Code is the unexpected HTTP status, if that is what went wrong.
	Code int
	URL  string
	Err  error
}

func (e *DownloadError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("received an unexpected http response code (%v) when trying to download %s", e.Code, e.URL)
	case e.Kind == DownloadFilesystem:
		return fmt.Sprintf("cannot write downloaded data: %v", e.Err)
	default:
		return fmt.Sprintf("cannot download %s: %v", e.URL, e.Err)
	}
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
