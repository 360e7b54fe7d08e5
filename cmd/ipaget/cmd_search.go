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
	"strings"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/ipaget/ipaget/i18n"
)

type cmdSearch struct {
	Limit int `long:"limit"`

	Positional struct {
		Term []string `positional-arg-name:"<term>" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

var shortSearchHelp = i18n.G("Search the App Store for applications")
var longSearchHelp = i18n.G(`
The search command looks up applications by name in the public catalog of
the configured country and shows their ids, to be used with 'versions' and
'download'.
`)

func init() {
	addCommand("search", shortSearchHelp, longSearchHelp, func() flags.Commander {
		return &cmdSearch{}
	}, map[string]string{
		// TRANSLATORS: This should not start with a lowercase letter.
		"limit": i18n.G("Show at most this many results"),
	}, []argDesc{{
		// TRANSLATORS: This needs to begin with < and end with >
		name: i18n.G("<term>"),
		// TRANSLATORS: This should not start with a lowercase letter.
		desc: i18n.G("Application name to look for"),
	}})
}

func (x *cmdSearch) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	if x.Limit < 0 {
		return fmt.Errorf(i18n.G("invalid limit %d"), x.Limit)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sto, err := newStore(commandContext, cfg)
	if err != nil {
		return err
	}

	term := strings.Join(x.Positional.Term, " ")
	entries, err := sto.Search(commandContext, term, x.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(Stderr, i18n.G("No applications found for %q.\n"), term)
		return nil
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, i18n.G("ID\tName"))
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\n", e.ID, e.Name)
	}
	return w.Flush()
}
