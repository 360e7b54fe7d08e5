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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ipaget/ipaget/config"
	"github.com/ipaget/ipaget/i18n"
	"github.com/ipaget/ipaget/logger"
	"github.com/ipaget/ipaget/store"
)

// prompter asks the user for the answers the environment did not give.
type prompter struct {
	reader *bufio.Reader
}

func newPrompter() *prompter {
	return &prompter{reader: bufio.NewReader(Stdin)}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(Stdout, question)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf(i18n.G("cannot read answer: %v"), err)
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) askRequired(question, what string) (string, error) {
	answer, err := p.ask(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf(i18n.G("no %s given"), what)
	}
	return answer, nil
}

func (p *prompter) askPassword(question string) (string, error) {
	fmt.Fprint(Stdout, question)
	password, err := ReadPassword(0)
	fmt.Fprint(Stdout, "\n")
	if err != nil {
		return "", err
	}
	if len(password) == 0 {
		return "", errors.New(i18n.G("no password given"))
	}
	return string(password), nil
}

// login authenticates with the store using creds, asking for whatever
// is missing and for the second factor if the store wants one. It
// returns the session and the account email.
func login(ctx context.Context, sto *store.Store, p *prompter, creds config.Credentials) (*store.Session, string, error) {
	email := creds.Email
	if email == "" {
		var err error
		if email, err = p.askRequired(i18n.G("Apple ID: "), i18n.G("Apple ID")); err != nil {
			return nil, "", err
		}
	}
	password := creds.Password
	if password == "" {
		var err error
		if password, err = p.askPassword(i18n.G("Password: ")); err != nil {
			return nil, "", err
		}
	}

	session, err := sto.Authenticate(ctx, email, password, "")
	if store.IsChallengeRequired(err) {
		logger.Debugf("Store asks for a second factor for %s.", email)
		code, perr := p.askRequired(i18n.G("Two-factor code: "), i18n.G("two-factor code"))
		if perr != nil {
			return nil, "", perr
		}
		session, err = sto.Authenticate(ctx, email, password, code)
	}
	if err != nil {
		return nil, "", err
	}
	if session.AccountName != "" {
		fmt.Fprintf(Stdout, i18n.G("Logged in as %s.\n"), session.AccountName)
	}
	return session, email, nil
}
