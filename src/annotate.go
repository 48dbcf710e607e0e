// annotate runs configured lint tools over files and reports their warnings.
// This binary is the command-line wiring around the core: a one-shot check
// mode and a live watch mode that re-lints files as they change.
package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thought-machine/annotate/src/cache"
	"github.com/thought-machine/annotate/src/cli"
	logger "github.com/thought-machine/annotate/src/cli/logging"
	"github.com/thought-machine/annotate/src/core"
	"github.com/thought-machine/annotate/src/lint"
	"github.com/thought-machine/annotate/src/metrics"
	"github.com/thought-machine/annotate/src/process"
	"github.com/thought-machine/annotate/src/refresh"
	"github.com/thought-machine/annotate/src/watch"
)

var log = logger.Log

var opts = struct {
	Usage      string
	Verbosity  cli.Verbosity `short:"v" long:"verbosity" default:"warning" description:"Verbosity of output (higher number = more output)"`
	ConfigFile string        `short:"c" long:"config" default:".lintconfig" description:"Config file to read linter definitions from"`

	Check struct {
		Args struct {
			Files []string `positional-arg-name:"files" required:"true" description:"Files to lint"`
		} `positional-args:"true"`
	} `command:"check" description:"Runs all applicable linters over the given files once and prints their warnings."`

	Watch struct {
		Args struct {
			Files []string `positional-arg-name:"files" required:"true" description:"Files to watch"`
		} `positional-args:"true"`
	} `command:"watch" description:"Watches the given files, re-linting them whenever they change."`
}{
	Usage: `
annotate runs configured lint tools over files and reports their warnings.

Linters are defined in a .lintconfig file; each supplies a command template
(with a $(file) placeholder), a pattern extracting line, column and message
from its output, and the filename patterns it applies to.
`,
}

func main() {
	command := cli.ParseFlagsOrDie("annotate", &opts)
	cli.InitLogging(opts.Verbosity)
	config, err := core.ReadConfigFiles([]string{opts.ConfigFile, core.LocalConfigFileName})
	if err != nil {
		log.Fatalf("Error reading config: %s", err)
	}
	metrics.InitFromConfig(config)
	registry := config.Registry()
	runner := lint.NewParser(process.New(), time.Duration(config.Lint.Timeout), uint64(config.Lint.MaxOutputSize))
	scheduler := refresh.NewScheduler(registry, runner)

	switch command {
	case "check":
		code := runCheck(scheduler, config)
		metrics.Stop()
		os.Exit(code)
	case "watch":
		runWatch(scheduler, config)
	}
}

// runCheck lints each file once, in parallel across files (linters for any
// one file still run sequentially), and prints everything found.
func runCheck(scheduler *refresh.Scheduler, config *core.Configuration) int {
	entries := make([]*core.CacheEntry, len(opts.Check.Args.Files))
	var g errgroup.Group
	for i, filename := range opts.Check.Args.Files {
		i, filename := i, filename
		g.Go(func() error {
			doc, err := watch.NewFileDocument(filename)
			if err != nil {
				return err
			}
			entries[i] = scheduler.Lint(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("%s", err)
	}
	found := 0
	for _, entry := range entries {
		printWarnings(entry, config.Lint.WrapWidth)
		found += entry.Warnings.Len()
	}
	if found > 0 {
		return 1
	}
	return 0
}

func runWatch(scheduler *refresh.Scheduler, config *core.Configuration) {
	docs := make([]*watch.FileDocument, len(opts.Watch.Args.Files))
	for i, filename := range opts.Watch.Args.Files {
		doc, err := watch.NewFileDocument(filename)
		if err != nil {
			log.Fatalf("%s", err)
		}
		docs[i] = doc
	}
	c := cache.New(cache.DefaultShardCount, scheduler)
	watch.Watch(c, docs, func(entry *core.CacheEntry) {
		if entry.Warnings.Len() == 0 {
			fmt.Printf("%s: no warnings\n", entry.Path)
		} else {
			printWarnings(entry, config.Lint.WrapWidth)
		}
	})
}

// printWarnings writes one document's warnings to stdout, line-sorted, with
// messages wrapped for display; continuation lines are indented.
func printWarnings(entry *core.CacheEntry, width int) {
	for _, w := range entry.Warnings.All() {
		lines := cli.Wrap(w.Message, width)
		if len(lines) == 0 {
			lines = []string{""}
		}
		fmt.Printf("%s:%d:%d: %s\n", entry.Path, w.Line, w.Col, lines[0])
		for _, line := range lines[1:] {
			fmt.Printf("    %s\n", line)
		}
	}
}
