// Package query is the read-only lookup surface a presentation layer uses to
// find out which warnings touch a given line. It never blocks; at worst the
// answer is stale or empty while a refresh computes in the background.
package query

import (
	"github.com/thought-machine/annotate/src/cache"
	"github.com/thought-machine/annotate/src/core"
)

// A Query answers warning lookups against the current cache snapshots.
// Staleness detection and refresh triggering live in the cache; this layer
// adds nothing but shape.
type Query struct {
	cache *cache.Cache
}

// New returns a new Query over the given cache.
func New(c *cache.Cache) *Query {
	return &Query{cache: c}
}

// WarningsForLine returns the warnings on the given line of the document, in
// the order the linters emitted them, or nil if there are none (or no results
// have been computed yet).
func (q *Query) WarningsForLine(doc core.Document, line int) []core.Warning {
	if entry := q.cache.Get(doc); entry != nil {
		return entry.Warnings.ForLine(line)
	}
	return nil
}

// AllWarnings returns the document's full current warning set, which may be
// stale. It's empty (never nil) when nothing has been computed.
func (q *Query) AllWarnings(doc core.Document) *core.WarningSet {
	if entry := q.cache.Get(doc); entry != nil {
		return entry.Warnings
	}
	return core.NewWarningSet()
}
