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
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/ipaget/ipaget/config"
	"github.com/ipaget/ipaget/i18n"
)

type cmdVersions struct {
	Positional struct {
		AppID string `positional-arg-name:"<app-id>"`
	} `positional-args:"yes" required:"yes"`
}

var shortVersionsHelp = i18n.G("List the builds of an application")
var longVersionsHelp = i18n.G(`
The versions command logs into the store and lists the build ids the store
knows for the given application id, as understood by 'download'.
`)

func init() {
	addCommand("versions", shortVersionsHelp, longVersionsHelp, func() flags.Commander {
		return &cmdVersions{}
	}, nil, []argDesc{{
		// TRANSLATORS: This needs to begin with < and end with >
		name: i18n.G("<app-id>"),
		// TRANSLATORS: This should not start with a lowercase letter.
		desc: i18n.G("Numeric id of the application"),
	}})
}

func (x *cmdVersions) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sto, err := newStore(commandContext, cfg)
	if err != nil {
		return err
	}
	session, _, err := login(commandContext, sto, newPrompter(), config.CredentialsFromEnv())
	if err != nil {
		return err
	}

	builds, err := sto.ListBuilds(commandContext, session, x.Positional.AppID)
	if err != nil {
		return err
	}
	for _, b := range builds {
		fmt.Fprintln(Stdout, b)
	}
	fmt.Fprintf(Stderr, i18n.NG("%d build found.\n", "%d builds found.\n", len(builds)), len(builds))
	return nil
}
