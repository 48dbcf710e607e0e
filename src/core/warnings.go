// Package core contains the central data model: documents, warnings,
// linter definitions and configuration.
package core

import (
	"sort"

	"github.com/google/uuid"
)

// A DocumentID is the stable identity of a live document. It's issued once at
// document creation and is what the result cache keys on, so that holding lint
// results for a document never keeps the document itself alive.
type DocumentID string

// NewDocumentID issues a fresh document id.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// A Revision is an opaque token identifying a document's content version.
// It changes on every content-modifying edit and is stable across anything
// else; equality against the current revision is the staleness test.
type Revision uint64

// A Document is the collaborator interface the editor (or any other buffer
// owner) implements. Everything here must be cheap and safe to call from
// any goroutine.
type Document interface {
	// ID returns the document's stable identity.
	ID() DocumentID
	// Filename returns the name used to decide which linters apply.
	// It's empty for unsaved buffers, which are never linted.
	Filename() string
	// Path returns the absolute path handed to linter subprocesses.
	Path() string
	// Revision returns the document's current content revision.
	Revision() Revision
}

// A Warning is one diagnostic extracted from a linter's output.
type Warning struct {
	// The line it occurred on (1-indexed)
	Line int `json:"line"`
	// The column it occurred on (1-indexed, 0 means the start of the line)
	Col int `json:"col,omitempty"`
	// The message of what's going wrong
	Message string `json:"message"`
}

// A WarningSet holds all the warnings for one document, indexed by line.
// Warnings on the same line keep the order the linters emitted them in.
// It's built up during a single refresh and must not be mutated after it
// has been published.
type WarningSet struct {
	lines map[int][]Warning
	count int
}

// NewWarningSet returns a new, empty WarningSet.
func NewWarningSet() *WarningSet {
	return &WarningSet{lines: map[int][]Warning{}}
}

// Add appends a warning to the sequence for its line.
func (ws *WarningSet) Add(w Warning) {
	ws.lines[w.Line] = append(ws.lines[w.Line], w)
	ws.count++
}

// ForLine returns the warnings on the given line, in emission order.
// It returns nil if there are none.
func (ws *WarningSet) ForLine(line int) []Warning {
	return ws.lines[line]
}

// Len returns the total number of warnings in the set.
func (ws *WarningSet) Len() int {
	return ws.count
}

// Lines returns the line numbers that have at least one warning, ascending.
func (ws *WarningSet) Lines() []int {
	lines := make([]int, 0, len(ws.lines))
	for line := range ws.lines {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// All returns every warning in the set, ordered by line and then by
// emission order within each line.
func (ws *WarningSet) All() []Warning {
	all := make([]Warning, 0, ws.count)
	for _, line := range ws.Lines() {
		all = append(all, ws.lines[line]...)
	}
	return all
}

// A CacheEntry is the published result of one refresh of one document.
// The warning set was computed against exactly the content identified by
// Revision; once the document moves past that revision the entry is stale
// (but still presentable as a best-effort result while a refresh runs).
type CacheEntry struct {
	Filename string
	Path     string
	Revision Revision
	Warnings *WarningSet
}
