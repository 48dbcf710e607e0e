// Package refresh implements the asynchronous task that recomputes a
// document's full warning set by running every applicable linter.
package refresh

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/annotate/src/core"
	"github.com/thought-machine/annotate/src/lint"
	"github.com/thought-machine/annotate/src/metrics"
)

var log = logging.MustGetLogger("refresh")

// A Runner runs one linter against a file, returning its combined output and
// whether it exited successfully. Implemented by lint.Parser; tests stub it.
type Runner interface {
	Run(path string, spec *core.LinterSpec) (string, bool)
}

// A Scheduler runs refresh tasks. It holds no per-document state itself;
// the cache's in-flight markers are what keep tasks from doubling up.
type Scheduler struct {
	registry *core.Registry
	runner   Runner
}

// NewScheduler returns a new Scheduler using the given registry and runner.
func NewScheduler(registry *core.Registry, runner Runner) *Scheduler {
	return &Scheduler{registry: registry, runner: runner}
}

// Refresh is the task body run asynchronously per document. It always calls
// publish exactly once so the document's in-flight marker gets released even
// if something goes wrong partway.
func (s *Scheduler) Refresh(doc core.Document, publish func(*core.CacheEntry)) {
	var entry *core.CacheEntry
	defer func() { publish(entry) }()
	entry = s.Lint(doc)
}

// Lint synchronously runs every linter applicable to the document, in
// registration order, and returns the finished entry. The document's
// filename, path and revision are snapshotted up front; if it's edited while
// we run, the entry comes out already stale and the next query triggers
// another refresh. One linter failing doesn't abort the batch.
func (s *Scheduler) Lint(doc core.Document) *core.CacheEntry {
	filename := doc.Filename()
	path := doc.Path()
	revision := doc.Revision()
	start := time.Now()

	warnings := core.NewWarningSet()
	failures := 0
	var errs *multierror.Error
	for _, spec := range s.registry.Matching(filename) {
		out, ok := s.runner.Run(path, spec)
		if !ok {
			failures++
			errs = multierror.Append(errs, fmt.Errorf("linter %s failed on %s", spec.Name, path))
		}
		// Parse whatever came back even on failure; many linters exit
		// non-zero whenever they have anything to report.
		lint.Parse(out, spec, warnings)
	}
	if err := errs.ErrorOrNil(); err != nil {
		log.Info("Lint of %s completed with failures: %s", filename, err)
	}
	metrics.Record(filename, warnings.Len(), failures, time.Since(start))
	return &core.CacheEntry{
		Filename: filename,
		Path:     path,
		Revision: revision,
		Warnings: warnings,
	}
}
