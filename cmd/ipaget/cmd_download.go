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
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/ipaget/ipaget/config"
	"github.com/ipaget/ipaget/i18n"
	"github.com/ipaget/ipaget/logger"
	"github.com/ipaget/ipaget/resign"
	"github.com/ipaget/ipaget/store"
)

type cmdDownload struct {
	OutputDir string `long:"output-dir"`
	RateLimit int64  `long:"rate-limit"`

	Positional struct {
		AppID   string `positional-arg-name:"<app-id>" required:"yes"`
		BuildID string `positional-arg-name:"<build-id>"`
	} `positional-args:"yes"`
}

var shortDownloadHelp = i18n.G("Download and sign a build of an application")
var longDownloadHelp = i18n.G(`
The download command logs into the store, downloads the given build of the
application (asking which one if no build id is given) and signs it for the
account, leaving <name>-<version>.ipa in the output directory.
`)

func init() {
	addCommand("download", shortDownloadHelp, longDownloadHelp, func() flags.Commander {
		return &cmdDownload{}
	}, map[string]string{
		// TRANSLATORS: This should not start with a lowercase letter.
		"output-dir": i18n.G("Put the package in this directory"),
		// TRANSLATORS: This should not start with a lowercase letter.
		"rate-limit": i18n.G("Limit the download speed, in bytes per second"),
	}, []argDesc{{
		// TRANSLATORS: This needs to begin with < and end with >
		name: i18n.G("<app-id>"),
		// TRANSLATORS: This should not start with a lowercase letter.
		desc: i18n.G("Numeric id of the application"),
	}, {
		// TRANSLATORS: This needs to begin with < and end with >
		name: i18n.G("<build-id>"),
		// TRANSLATORS: This should not start with a lowercase letter.
		desc: i18n.G("Build to download, as listed by 'versions'"),
	}})
}

func (x *cmdDownload) pickBuild(sto *store.Store, session *store.Session, p *prompter) (store.BuildID, error) {
	if x.Positional.BuildID != "" {
		return store.BuildID(x.Positional.BuildID), nil
	}
	builds, err := sto.ListBuilds(commandContext, session, x.Positional.AppID)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(Stdout, i18n.G("Available builds:"))
	for _, b := range builds {
		fmt.Fprintf(Stdout, "  %s\n", b)
	}
	answer, err := p.askRequired(i18n.G("Build id: "), i18n.G("build id"))
	if err != nil {
		return "", err
	}
	return store.BuildID(answer), nil
}

func (x *cmdDownload) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	if x.RateLimit < 0 {
		return fmt.Errorf(i18n.G("invalid rate limit %d"), x.RateLimit)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	outputDir := x.OutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	rateLimit := x.RateLimit
	if rateLimit == 0 {
		rateLimit = cfg.RateLimit
	}

	sto, err := newStore(commandContext, cfg)
	if err != nil {
		return err
	}
	p := newPrompter()
	session, email, err := login(commandContext, sto, p, config.CredentialsFromEnv())
	if err != nil {
		return err
	}

	build, err := x.pickBuild(sto, session, p)
	if err != nil {
		return err
	}
	desc, err := sto.ResolveBuild(commandContext, session, x.Positional.AppID, build)
	if err != nil {
		return err
	}

	base := filepath.Join(outputDir, desc.ArtifactBaseName())
	tmpPath := base + ".tmp"
	finalPath := base + ".ipa"
	logger.Debugf("Downloading %s from %s.", desc.ArtifactBaseName(), desc.URL)

	f, _ := Stdout.(*os.File)
	meter := newTextMeter(Stdout, f != nil && isTerminal(int(f.Fd())))
	err = sto.Download(commandContext, desc.DisplayName(), desc.URL, tmpPath, meter, &store.DownloadOptions{
		RateLimit: rateLimit,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(Stdout, i18n.G("Signing the package for the account..."))
	if err := resign.Resign(tmpPath, desc, email, finalPath); err != nil {
		return err
	}
	if err := os.Remove(tmpPath); err != nil {
		logger.Noticef("cannot remove %s: %v", tmpPath, err)
	}

	fmt.Fprintf(Stdout, i18n.G("Saved %s\n"), finalPath)
	return nil
}
