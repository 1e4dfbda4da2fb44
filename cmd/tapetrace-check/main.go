// Command tapetrace-check groups a set of recorded tapes into
// fuzzy-equivalence classes and reports where any two classes first
// diverge. Grounded on
// original_source/.../tape-determinism-checker/main.rs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pendulm/tapetrace/internal/checker"
	"github.com/pendulm/tapetrace/internal/env"
	"github.com/pendulm/tapetrace/internal/log"
	"github.com/pendulm/tapetrace/internal/spec"
	"github.com/pendulm/tapetrace/internal/tape"

	"github.com/peterbourgon/ff/v3/ffcli"
)

type rootCommand struct {
	ffcli.Command
	flags struct {
		quiet      int
		verbose    int
		specPath   string
		outputPath string
	}
}

func newRootCommand() *ffcli.Command {
	c := new(rootCommand)

	c.Name = "tapetrace-check"
	c.ShortUsage = "tapetrace-check [flags] tape1.json tape2.json ..."
	c.ShortHelp = "compare recorded tapes for determinism"

	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	fs.BoolFunc("q", "decrease log verbosity (repeatable)", func(string) error { c.flags.quiet++; return nil })
	fs.BoolFunc("v", "increase log verbosity (repeatable)", func(string) error { c.flags.verbose++; return nil })
	fs.StringVar(&c.flags.specPath, "spec", "", "an instrumentation spec that may have been used to generate the tapes, for its ignore_indexes")
	fs.StringVar(&c.flags.outputPath, "output-path", "", "file to write the comparison report to (stdout if unset)")
	c.FlagSet = fs
	c.Exec = c.run

	return &c.Command
}

func (c *rootCommand) run(ctx context.Context, args []string) error {
	log.SetVerbosity(c.flags.quiet, c.flags.verbose)

	if len(args) == 0 {
		return errors.Errorf("usage: %s", c.ShortUsage)
	}

	ignoreIndexes := map[int]bool{}
	if c.flags.specPath != "" {
		s, err := spec.Load(c.flags.specPath)
		if err != nil {
			return err
		}
		for _, i := range s.IgnoreIndexes {
			ignoreIndexes[i] = true
		}
	}

	files := make([]checker.TapeFile, 0, len(args))
	for _, path := range args {
		log.WithField("path", path).Debug("reading tape file")
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "opening tape file %q", path)
		}
		var t tape.Tape
		if err := json.Unmarshal(data, &t); err != nil {
			return errors.Wrapf(err, "parsing tape file %q", path)
		}
		files = append(files, checker.TapeFile{Path: path, Tape: t})
	}

	report := checker.Compare(files, ignoreIndexes)

	var out []byte
	var err error
	if c.flags.outputPath == "" {
		out, err = json.MarshalIndent(report, "", "  ")
	} else {
		out, err = json.Marshal(report)
	}
	if err != nil {
		return errors.Wrap(err, "marshaling comparison report")
	}

	if c.flags.outputPath == "" {
		_, err = os.Stdout.Write(out)
	} else {
		err = os.WriteFile(c.flags.outputPath, out, 0644)
	}
	if err != nil {
		return errors.Wrap(err, "writing comparison report")
	}
	return nil
}

func main() {
	root := newRootCommand()
	if err := root.Parse(os.Args[1:]); err != nil {
		log.DieWithCode(env.ExitArgs, "%v", err)
	}
	if err := root.Run(context.Background()); err != nil {
		log.Die("%+v", err)
	}
}
