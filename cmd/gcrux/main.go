package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/cache"
	"github.com/xplshn/gcrux/pkg/cli"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/driver"
	"github.com/xplshn/gcrux/pkg/util"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitParseError  = 3
	exitTypeError   = 4
)

// exitError carries the process exit status out of the app's Action.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := cli.NewApp("gcrux")
	app.Synopsis = "[options] <file.crx> ..."
	app.Description = "A type checker for the Crux language. Reads Crux programs, resolves every name, and reports each type error with its position."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/gcrux>"
	app.Stdout, app.Stderr = stdout, stderr

	var (
		jobs       int
		profile    string
		configPath string
		useCache   bool
		clearCache bool
		dumpAST    bool
		dumpTypes  bool
		verbose    bool
		noColor    bool
	)

	fs := app.FlagSet
	fs.Int(&jobs, "jobs", "j", 0, "Check up to <n> files at once (0 means one per CPU).", "n")
	fs.String(&profile, "profile", "", config.ProfileReference, "Select a checking profile (reference, strict).", "profile")
	fs.String(&configPath, "config", "", "", "Read settings from <file> instead of searching for "+config.FileName+".", "file")
	fs.Bool(&useCache, "cache", "", false, "Reuse results of files that have not changed since the last run.")
	fs.Bool(&clearCache, "clear-cache", "", false, "Remove every cached result before checking.")
	fs.Bool(&dumpAST, "dump-ast", "", false, "Print the syntax tree of each file.")
	fs.Bool(&dumpTypes, "dump-types", "", false, "Print the syntax tree of each file annotated with checked types.")
	fs.Bool(&verbose, "verbose", "v", false, "Print progress information.")
	fs.Bool(&noColor, "no-color", "", false, "Disable colored diagnostics.")

	cfg := config.NewConfig()
	cfg.SetupFlagGroups(fs)

	util.SetOutput(stderr)

	app.Action = func(inputFiles []string) error {
		util.SetVerbose(verbose)
		if noColor {
			color.NoColor = true
		}
		given := givenFlags(fs)

		if err := loadConfigFile(cfg, configPath, given, &jobs, &useCache); err != nil {
			util.Fail("%v", err)
			return exitError{exitFailure}
		}
		if given["profile"] {
			if err := cfg.ApplyProfile(profile); err != nil {
				util.Fail("%v", err)
				return exitError{exitFailure}
			}
		}
		if unknown := cfg.ApplyFlags(fs); len(unknown) > 0 {
			util.Fail("unknown warning or feature: %v", unknown)
			return exitError{exitFailure}
		}

		var c *cache.Cache
		if useCache || clearCache {
			var err error
			if c, err = cache.Open("gcrux"); err != nil {
				util.Fail("%v", err)
				return exitError{exitFailure}
			}
			if clearCache {
				if err := c.DropAll(); err != nil {
					util.Fail("clearing cache: %v", err)
					return exitError{exitFailure}
				}
				util.Info("Cleared cache at %s", c.Dir())
			}
			if !useCache {
				c = nil
			}
		}

		if len(inputFiles) == 0 {
			if clearCache {
				return nil
			}
			util.Fail("no input files specified.")
			return exitError{exitFailure}
		}
		if dumpAST || dumpTypes {
			// Dumps need the tree, which cached results do not keep.
			c = nil
		}

		results, err := driver.CheckFiles(ctx, inputFiles, cfg, driver.Options{Jobs: jobs, Cache: c})
		if err != nil {
			util.Fail("%v", err)
			return exitError{exitFailure}
		}

		code := exitOK
		for _, r := range results {
			if r == nil {
				continue
			}
			if len(results) > 1 {
				fmt.Fprintf(stdout, "==> %s <==\n", r.Path)
			}
			code = worse(code, report(stdout, cfg, r, dumpAST, dumpTypes))
		}
		if code != exitOK {
			return exitError{code}
		}
		return nil
	}

	if err := app.Run(args); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitFailure
	}
	return exitOK
}

// report prints one file's outcome and returns its exit status.
func report(w io.Writer, cfg *config.Config, r *driver.FileResult, dumpAST, dumpTypes bool) int {
	if r.Err != nil {
		util.Fail("%v", r.Err)
		return exitFailure
	}
	for _, d := range r.Warnings {
		util.PrintDiagnostic(cfg, d)
	}
	if r.HasParseError() {
		fmt.Fprintf(w, "Error parsing file %s\n%s\n", r.Path, r.ParseReport)
		return exitParseError
	}

	switch {
	case dumpTypes && r.Check != nil:
		fmt.Fprint(w, ast.Dump(r.Root, r.Check.TypeOf))
	case dumpAST && r.Root != nil:
		fmt.Fprint(w, ast.Dump(r.Root, nil))
	}

	if r.HasTypeError() {
		fmt.Fprintf(w, "Error type-checking file.\n%s\n", r.TypeReport)
		return exitTypeError
	}
	fmt.Fprintln(w, "Crux Program has no type errors.")
	return exitOK
}

// worse orders exit statuses: failures first, then parse errors, then type errors.
func worse(a, b int) int {
	rank := func(c int) int {
		switch c {
		case exitFailure:
			return 3
		case exitParseError:
			return 2
		case exitTypeError:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func givenFlags(fs *cli.FlagSet) map[string]bool {
	given := make(map[string]bool)
	fs.Visit(func(fl *cli.Flag) { given[fl.Name] = true })
	return given
}

// loadConfigFile applies gcrux.toml, either the one named by --config or the
// nearest one above the working directory. Settings from the command line
// take precedence.
func loadConfigFile(cfg *config.Config, path string, given map[string]bool, jobs *int, useCache *bool) error {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("locating %s: %w", config.FileName, err)
		}
		found, ok, err := config.FindFile(wd)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		path = found
	}

	file, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	util.Info("Using configuration %s", path)
	if err := file.Apply(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !given["jobs"] && file.Check.Jobs > 0 {
		*jobs = file.Check.Jobs
	}
	if !given["cache"] && file.Check.Cache != nil {
		*useCache = *file.Check.Cache
	}
	return nil
}
