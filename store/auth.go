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
	"fmt"
	"net/http"
	"strings"
)

// challengeSentinel is the customerMessage the store answers with when
// the password was right but a second factor is missing.
const challengeSentinel = "MZFinance.BadLogin.Configurator_message"

const (
	attemptPassword     = 4
	attemptPasswordCode = 2
)

// Session holds what the store handed out on a successful login. It is
// only valid for the lifetime of the process.
type Session struct {
	// Cookie is the reconstructed session cookie header value.
	Cookie string
	// DSID is the account identifier sent back in X-Dsid.
	DSID string
	// AccountName is the account display name, when the store sent one.
	AccountName string
}

type loginRequest struct {
	AppleID       string `plist:"appleId"`
	Attempt       int    `plist:"attempt"`
	CreateSession string `plist:"createSession"`
	GUID          string `plist:"guid"`
	Password      string `plist:"password"`
	RMP           int    `plist:"rmp"`
	Why           string `plist:"why"`
}

type loginResponse struct {
	// either a string or an integer depending on the account
	DSPersonID      interface{} `plist:"dsPersonId"`
	CustomerMessage string      `plist:"customerMessage"`
	FailureType     string      `plist:"failureType"`
	AccountInfo     struct {
		Address struct {
			FirstName string `plist:"firstName"`
			LastName  string `plist:"lastName"`
		} `plist:"address"`
	} `plist:"accountInfo"`
}

func (r *loginResponse) dsid() string {
	if r.DSPersonID == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(r.DSPersonID))
}

func (r *loginResponse) accountName() string {
	addr := r.AccountInfo.Address
	return strings.TrimSpace(addr.FirstName + " " + addr.LastName)
}

type loginOutcome int

const (
	loginAccepted loginOutcome = iota
	loginChallengeRequired
	loginRejected
)

// classifyLogin is the one place that knows how the store tells the
// login outcomes apart.
func classifyLogin(resp *loginResponse, withCode bool) loginOutcome {
	if resp.CustomerMessage == challengeSentinel {
		if withCode {
			return loginRejected
		}
		return loginChallengeRequired
	}
	if resp.dsid() == "" {
		return loginRejected
	}
	return loginAccepted
}

// sessionCookie rebuilds a Cookie header value out of the name=value
// part of every Set-Cookie header, in the order they were received.
func sessionCookie(header http.Header) string {
	var pairs []string
	for _, setCookie := range header.Values("Set-Cookie") {
		pair := setCookie
		if i := strings.IndexByte(pair, ';'); i >= 0 {
			pair = pair[:i]
		}
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		pairs = append(pairs, pair)
	}
	return strings.Join(pairs, "; ")
}

// Authenticate logs into the store. Without mfaCode a single password
// attempt is made; if the store asks for a second factor an *AuthError
// of kind AuthChallengeRequired is returned and the caller is expected
// to call Authenticate again with the code the user received.
func (s *Store) Authenticate(ctx context.Context, email, password, mfaCode string) (*Session, error) {
	req := &loginRequest{
		AppleID:       email,
		Attempt:       attemptPassword,
		CreateSession: "true",
		GUID:          s.deviceID,
		Password:      password,
		Why:           "signIn",
	}
	if mfaCode != "" {
		req.Attempt = attemptPasswordCode
		req.Password = password + mfaCode
	}

	var loginResp loginResponse
	resp, err := s.doPlistRequest(ctx, "authenticate to the store", s.authURI, req, nil, &loginResp)
	if err != nil {
		return nil, err
	}

	switch classifyLogin(&loginResp, mfaCode != "") {
	case loginChallengeRequired:
		return nil, &AuthError{Kind: AuthChallengeRequired}
	case loginRejected:
		msg := loginResp.CustomerMessage
		if msg == "" || msg == challengeSentinel {
			msg = loginResp.FailureType
		}
		return nil, &AuthError{Kind: AuthRejected, Message: msg}
	}

	return &Session{
		Cookie:      sessionCookie(resp.Header),
		DSID:        loginResp.dsid(),
		AccountName: loginResp.accountName(),
	}, nil
}
