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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"unicode"

	"github.com/jessevdk/go-flags"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/ipaget/ipaget/config"
	"github.com/ipaget/ipaget/deviceid"
	"github.com/ipaget/ipaget/httputil"
	"github.com/ipaget/ipaget/i18n"
	"github.com/ipaget/ipaget/logger"
	"github.com/ipaget/ipaget/store"
)

// Version is set at build time.
var Version = "unknown"

func init() {
	// the catalog search is the one call made under our own name
	httputil.SetUserAgentFromVersion(Version, "ipaget")
}

// Standard streams, redirected for testing.
var (
	Stdin        io.Reader = os.Stdin
	Stdout       io.Writer = os.Stdout
	Stderr       io.Writer = os.Stderr
	ReadPassword           = terminal.ReadPassword
	isTerminal             = terminal.IsTerminal
)

type options struct {
	Version func() `long:"version"`
	Config  string `long:"config"`
	Debug   bool   `long:"debug"`
}

type argDesc struct {
	name string
	desc string
}

var optionsData options

// ErrExtraArgs is returned  if extra arguments to a command are found
var ErrExtraArgs = fmt.Errorf(i18n.G("too many arguments for command"))

// cmdInfo holds information needed to call parser.AddCommand(...).
type cmdInfo struct {
	name, shortHelp, longHelp string
	builder                   func() flags.Commander
	optDescs                  map[string]string
	argDescs                  []argDesc
}

// commands holds information about all commands.
var commands []*cmdInfo

// addCommand replaces parser.addCommand() in a way that is compatible with
// re-constructing a pristine parser.
func addCommand(name, shortHelp, longHelp string, builder func() flags.Commander, optDescs map[string]string, argDescs []argDesc) *cmdInfo {
	info := &cmdInfo{
		name:      name,
		shortHelp: shortHelp,
		longHelp:  longHelp,
		builder:   builder,
		optDescs:  optDescs,
		argDescs:  argDescs,
	}
	commands = append(commands, info)
	return info
}

func lintDesc(cmdName, optName, desc, origDesc string) {
	if len(optName) == 0 {
		logger.Panicf("option on %q has no name", cmdName)
	}
	if len(origDesc) != 0 {
		logger.Panicf("description of %s's %q of %q set from tag (=> no i18n)", cmdName, optName, origDesc)
	}
	if len(desc) > 0 {
		if !unicode.IsUpper(([]rune)(desc)[0]) {
			logger.Panicf("description of %s's %q not uppercase: %q", cmdName, optName, desc)
		}
	}
}

func lintArg(cmdName, optName, desc, origDesc string) {
	lintDesc(cmdName, optName, desc, origDesc)
	if optName[0] != '<' || optName[len(optName)-1] != '>' {
		logger.Panicf("argument %q's %q should have <>s", cmdName, optName)
	}
}

// Parser creates and populates a fresh parser.
// Since commands have local state a fresh parser is required to isolate tests
// from each other.
func Parser() *flags.Parser {
	optionsData = options{}
	optionsData.Version = func() {
		fmt.Fprintf(Stdout, "ipaget %s\n", Version)
		panic(&exitStatus{0})
	}
	parser := flags.NewParser(&optionsData, flags.HelpFlag|flags.PassDoubleDash|flags.PassAfterNonOption)
	parser.ShortDescription = i18n.G("Fetch historical builds of App Store applications")
	parser.LongDescription = i18n.G(`
Log into the App Store with a volume purchase account, pick a build of an
application, download it and sign it for that account so it can be
installed.

Credentials are read from IPAGET_EMAIL and IPAGET_PASSWORD (or EMAIL and
PASSWORD) and asked for when missing.
`)
	parser.FindOptionByLongName("version").Description = i18n.G("Print the version and exit")
	parser.FindOptionByLongName("config").Description = i18n.G("Read the configuration from this file")
	parser.FindOptionByLongName("debug").Description = i18n.G("Show debug output")

	for _, c := range commands {
		obj := c.builder()
		cmd, err := parser.AddCommand(c.name, c.shortHelp, strings.TrimSpace(c.longHelp), obj)
		if err != nil {
			logger.Panicf("cannot add command %q: %v", c.name, err)
		}

		opts := cmd.Options()
		if c.optDescs != nil && len(opts) != len(c.optDescs) {
			logger.Panicf("wrong number of option descriptions for %s: expected %d, got %d", c.name, len(opts), len(c.optDescs))
		}
		for _, opt := range opts {
			name := opt.LongName
			if name == "" {
				name = string(opt.ShortName)
			}
			desc, ok := c.optDescs[name]
			if !(c.optDescs == nil || ok) {
				logger.Panicf("%s missing description for %s", c.name, name)
			}
			lintDesc(c.name, name, desc, opt.Description)
			if desc != "" {
				opt.Description = desc
			}
		}

		args := cmd.Args()
		if c.argDescs != nil && len(args) != len(c.argDescs) {
			logger.Panicf("wrong number of argument descriptions for %s: expected %d, got %d", c.name, len(args), len(c.argDescs))
		}
		for i, arg := range args {
			name, desc := arg.Name, ""
			if c.argDescs != nil {
				name = c.argDescs[i].name
				desc = c.argDescs[i].desc
			}
			lintArg(c.name, name, desc, arg.Description)
			arg.Name = name
			arg.Description = desc
		}
	}
	return parser
}

var setupLogger = logger.SimpleSetup

// commandContext is cancelled when the user interrupts the run.
var commandContext = context.Background()

func loadConfig() (*config.Config, error) {
	path := optionsData.Config
	mustExist := path != ""
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(path, mustExist)
}

// newStore sets up a store client as configured, resolving the device
// identifier once for the whole run.
func newStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	id, err := deviceid.Resolve(ctx, cfg.DeviceID)
	if err != nil {
		return nil, err
	}
	storeCfg, err := cfg.StoreConfig(id)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Using device id %s.", id)
	return store.New(storeCfg), nil
}

func main() {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*exitStatus); ok {
				os.Exit(e.code)
			}
			panic(v)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	commandContext = ctx
	err := run()
	stop()
	if err != nil {
		fmt.Fprintf(Stderr, i18n.G("error: %v\n"), err)
		os.Exit(1)
	}
}

type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("internal error: exitStatus{%d} being handled as normal error", e.code)
}

func run() error {
	parser := Parser()
	// debug has to be known before any command runs
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			optionsData.Debug = true
		}
	}
	setupLogger(optionsData.Debug)

	_, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok {
			if e.Type == flags.ErrHelp || e.Type == flags.ErrCommandRequired {
				parser.WriteHelp(Stdout)
				return nil
			}
			if e.Type == flags.ErrUnknownCommand {
				return fmt.Errorf(i18n.G(`unknown command %q, see "ipaget --help"`), os.Args[1])
			}
		}
	}

	return err
}
