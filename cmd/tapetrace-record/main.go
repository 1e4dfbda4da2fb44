// Command tapetrace-record runs a spec-configured instrumented binary
// under ptrace and writes the recorded tape to a file. Grounded on
// original_source/.../instrumentation-parent/src/bin/instrumentation-parent/
// main.rs's clap Args struct, realized with github.com/peterbourgon/ff/v3's
// ffcli (the ambient CLI library, generalized from a single main() into the
// ffcli.Command shape used throughout the example corpus).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pendulm/tapetrace/internal/env"
	"github.com/pendulm/tapetrace/internal/log"
	"github.com/pendulm/tapetrace/internal/spec"
	"github.com/pendulm/tapetrace/internal/syscalls"
	"github.com/pendulm/tapetrace/internal/tracer"

	"github.com/peterbourgon/ff/v3/ffcli"
)

type rootCommand struct {
	ffcli.Command
	flags struct {
		quiet               int
		verbose             int
		noFailOnUnhandled   bool
		replaceSighup       bool
	}
}

func newRootCommand() *ffcli.Command {
	c := new(rootCommand)

	c.Name = "tapetrace-record"
	c.ShortUsage = "tapetrace-record [flags] <spec.json> [output.json]"
	c.ShortHelp = "record a deterministic syscall tape for one instrumented run"

	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	fs.BoolFunc("q", "decrease log verbosity (repeatable)", func(string) error { c.flags.quiet++; return nil })
	fs.BoolFunc("v", "increase log verbosity (repeatable)", func(string) error { c.flags.verbose++; return nil })
	fs.BoolVar(&c.flags.noFailOnUnhandled, "no-fail-on-unhandled-syscall", false,
		"truncate the tape instead of failing when an unrecognized syscall is hit")
	fs.BoolVar(&c.flags.replaceSighup, "replace-sighup", false,
		"redirect any SIGHUP handler the program installs to a no-op, for determinism")
	c.FlagSet = fs
	c.Exec = c.run

	return &c.Command
}

func (c *rootCommand) run(ctx context.Context, args []string) error {
	log.SetVerbosity(c.flags.quiet, c.flags.verbose)

	if len(args) < 1 || len(args) > 2 {
		return errors.Errorf("usage: %s", c.ShortUsage)
	}
	specPath := args[0]
	outputPath := ""
	if len(args) == 2 {
		outputPath = args[1]
	}

	s, err := spec.Load(specPath)
	if err != nil {
		return err
	}
	if err := s.SyscallMocks.SetupAndValidate(c.flags.replaceSighup); err != nil {
		return err
	}

	t, err := tracer.Run(s)
	ignoredUnhandled := false
	if err != nil {
		var unhandled *syscalls.UnhandledSyscallError
		if c.flags.noFailOnUnhandled && errors.As(err, &unhandled) {
			log.Error("ignoring %s (--no-fail-on-unhandled-syscall), tape truncated here", unhandled.Error())
			ignoredUnhandled = true
		} else {
			return err
		}
	}

	out, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshaling recorded tape")
	}
	if outputPath == "" {
		_, err = os.Stdout.Write(out)
	} else {
		err = os.WriteFile(outputPath, out, 0644)
	}
	if err != nil {
		return errors.Wrap(err, "writing recorded tape")
	}

	if ignoredUnhandled {
		os.Exit(env.ExitIgn)
	}
	return nil
}

func main() {
	root := newRootCommand()
	if err := root.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(env.ExitArgs)
	}
	if err := root.Run(context.Background()); err != nil {
		log.Die("%+v", err)
	}
}
