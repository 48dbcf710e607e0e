// Package lint runs external lint tools and parses their textual output
// into line/column-addressed warnings.
package lint

import (
	"strings"
	"time"

	"github.com/google/shlex"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/annotate/src/core"
	"github.com/thought-machine/annotate/src/process"
)

var log = logging.MustGetLogger("lint")

// FilePlaceholder is the token in a command template that gets replaced with
// the path of the file being linted.
const FilePlaceholder = "$(file)"

// A Parser invokes linters and turns their raw output into warnings.
type Parser struct {
	executor      *process.Executor
	timeout       time.Duration
	maxOutputSize uint64
}

// NewParser returns a new Parser which runs linters via the given executor.
func NewParser(executor *process.Executor, timeout time.Duration, maxOutputSize uint64) *Parser {
	return &Parser{
		executor:      executor,
		timeout:       timeout,
		maxOutputSize: maxOutputSize,
	}
}

// Run executes one linter against the given path, substituting the path into
// every placeholder in the command template, and returns the combined output
// (with one trailing newline trimmed) plus whether the process exited
// successfully. A missing tool or non-zero exit is reported via the bool, not
// an error; callers generally still attempt to parse whatever came back.
func (p *Parser) Run(path string, spec *core.LinterSpec) (string, bool) {
	argv, err := shlex.Split(strings.ReplaceAll(spec.Cmd, FilePlaceholder, path))
	if err != nil || len(argv) == 0 {
		log.Warning("Can't parse command for linter %s: %s", spec.Name, err)
		return "", false
	}
	out, err := p.executor.ExecWithTimeout(p.timeout, p.maxOutputSize, argv)
	if err != nil {
		log.Debug("Linter %s failed on %s: %s", spec.Name, path, err)
	}
	return strings.TrimSuffix(string(out), "\n"), err == nil
}
