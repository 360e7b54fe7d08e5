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

package main_test

import (
	"context"
	"net/http"
	"net/url"
	"os"

	. "gopkg.in/check.v1"

	ipaget "github.com/ipaget/ipaget/cmd/ipaget"
	"github.com/ipaget/ipaget/config"
	"github.com/ipaget/ipaget/store"
)

type loginSuite struct {
	BaseIpagetSuite
}

var _ = Suite(&loginSuite{})

func (s *loginSuite) store(c *C) *store.Store {
	authURI, err := url.Parse(s.server.URL + "/auth")
	c.Assert(err, IsNil)
	cfg := store.DefaultConfig()
	cfg.DeviceID = testDeviceID
	cfg.AuthURI = authURI
	return store.New(cfg)
}

func (s *loginSuite) TestLoginFromEnvironment(c *C) {
	n := s.handleAuth(c, "")

	session, email, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	c.Assert(err, IsNil)
	c.Check(email, Equals, testEmail)
	c.Check(session.DSID, Equals, "42")
	c.Check(session.Cookie, Equals, "mz_at0=abc")
	c.Check(*n, Equals, 1)
	c.Check(s.Stdout(), Equals, "Logged in as Foo Bar.\n")
}

func (s *loginSuite) TestLoginPrompts(c *C) {
	s.handleAuth(c, "")
	s.stdin.WriteString("foo@example.com\n")
	prompted := 0
	s.AddCleanup(ipaget.MockReadPassword(func(fd int) ([]byte, error) {
		prompted++
		c.Check(fd, Equals, 0)
		return []byte(testPassword), nil
	}))

	_, email, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{})
	c.Assert(err, IsNil)
	c.Check(email, Equals, testEmail)
	c.Check(prompted, Equals, 1)
	c.Check(s.Stdout(), Equals, "Apple ID: Password: \nLogged in as Foo Bar.\n")
}

func (s *loginSuite) TestLoginSecondFactor(c *C) {
	n := s.handleAuth(c, "123456")
	s.stdin.WriteString("123456\n")

	session, _, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	c.Assert(err, IsNil)
	c.Check(session.DSID, Equals, "42")
	c.Check(*n, Equals, 2)
	c.Check(s.Stdout(), Equals, "Two-factor code: Logged in as Foo Bar.\n")
}

func (s *loginSuite) TestLoginSecondFactorMissing(c *C) {
	n := s.handleAuth(c, "123456")

	_, _, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	c.Check(err, ErrorMatches, "cannot read answer: EOF")
	c.Check(*n, Equals, 1)
}

func (s *loginSuite) TestLoginSecondFactorEmpty(c *C) {
	s.handleAuth(c, "123456")
	s.stdin.WriteString("\n")

	_, _, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	c.Check(err, ErrorMatches, "no two-factor code given")
}

func (s *loginSuite) TestLoginEmptyPassword(c *C) {
	s.AddCleanup(ipaget.MockReadPassword(func(int) ([]byte, error) {
		return nil, nil
	}))

	_, _, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{Email: testEmail})
	c.Check(err, ErrorMatches, "no password given")
}

func (s *loginSuite) TestLoginRejected(c *C) {
	s.mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		writePlist(c, w, map[string]interface{}{
			"customerMessage": "Your Apple ID or password was entered incorrectly.",
		})
	})

	_, _, err := ipaget.Login(context.Background(), s.store(c), config.Credentials{
		Email:    testEmail,
		Password: "wrong",
	})
	c.Check(err, ErrorMatches, "cannot authenticate to the store: Your Apple ID or password was entered incorrectly.")
	c.Check(s.Stdout(), Equals, "")
}

func (s *loginSuite) TestVersionsCredentialsFromFallbackEnv(c *C) {
	os.Setenv("EMAIL", testEmail)
	os.Setenv("PASSWORD", testPassword)
	s.handleAuth(c, "")
	s.handleListBuilds(c, 1)

	defer mockArgs("ipaget", "versions", "123456")()
	c.Assert(ipaget.RunMain(), IsNil)
	c.Check(s.Stderr(), Equals, "1 build found.\n")
}
