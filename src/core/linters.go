package core

import (
	"github.com/peterebden/go-deferred-regex"
)

// A LinterSpec describes one configured linter: how to invoke it, how to
// recognise warnings in its output, and which files it applies to.
// Specs are immutable once registered.
type LinterSpec struct {
	// Name of the linter, as configured.
	Name string
	// Cmd is the command template; every $(file) occurrence is replaced with
	// the path of the file being linted.
	Cmd string
	// Pattern extracts warnings from the linter's combined output. It should
	// define the named groups line, col and message (col is optional);
	// otherwise the first three groups are taken positionally.
	Pattern deferredregex.DeferredRegex
	// FilePatterns decide applicability; the spec applies to a filename if
	// at least one of them matches it.
	FilePatterns []deferredregex.DeferredRegex
}

// Matches returns true if this linter applies to the given filename.
func (l *LinterSpec) Matches(filename string) bool {
	for i := range l.FilePatterns {
		if l.FilePatterns[i].FindStringSubmatch(filename) != nil {
			return true
		}
	}
	return false
}

// A Registry holds the set of configured linters. It's constructed once at
// startup and passed to whichever components need lookup; registration is
// not safe to run concurrently with queries.
type Registry struct {
	linters []*LinterSpec
}

// NewRegistry returns a new, empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a linter spec to the set of known linters. Specs with
// overlapping file patterns all apply; there is no uniqueness constraint.
func (r *Registry) Register(spec *LinterSpec) {
	r.linters = append(r.linters, spec)
}

// Matching returns every registered spec that applies to the given filename,
// in registration order. It's empty (not an error) when no filename is
// available or nothing matches.
func (r *Registry) Matching(filename string) []*LinterSpec {
	if filename == "" {
		return nil
	}
	var matched []*LinterSpec
	for _, l := range r.linters {
		if l.Matches(filename) {
			matched = append(matched, l)
		}
	}
	return matched
}
