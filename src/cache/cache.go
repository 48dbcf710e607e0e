// Package cache holds the most recent warning set computed for each live
// document, keyed by document identity. It serves stale results without
// blocking while coordinating at most one in-flight refresh per document.
//
// The map is sharded with per-shard mutexes; for the handful of documents an
// editor keeps open this is overkill, but it keeps queries from different
// documents from contending with each other at all.
package cache

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/thought-machine/annotate/src/core"
)

// DefaultShardCount is a reasonable default shard count for the cache.
const DefaultShardCount = 1 << 4

// A Refresher recomputes a document's warning set asynchronously. It must
// call publish exactly once, with nil if the refresh produced nothing;
// that call is what releases the document's in-flight marker.
type Refresher interface {
	Refresh(doc core.Document, publish func(*core.CacheEntry))
}

// A Cache is the per-document result store. All functions on it are threadsafe.
// It holds no reference to any Document, only to ids and published snapshots,
// so it never extends a document's lifetime; callers evict via Remove when a
// document is closed.
type Cache struct {
	shards    []shard
	mask      uint64
	refresher Refresher
}

type shard struct {
	m map[core.DocumentID]*entry
	l sync.Mutex
}

type entry struct {
	published  *core.CacheEntry // nil until the first refresh completes
	refreshing bool
}

// New creates a new Cache which delegates stale documents to the given
// refresher. The shard count must be a power of 2; it will panic if not.
func New(shardCount uint64, refresher Refresher) *Cache {
	mask := shardCount - 1
	if (shardCount & mask) != 0 {
		panic(fmt.Sprintf("Shard count %d is not a power of 2", shardCount))
	}
	c := &Cache{
		shards:    make([]shard, shardCount),
		mask:      mask,
		refresher: refresher,
	}
	for i := range c.shards {
		c.shards[i].m = map[core.DocumentID]*entry{}
	}
	return c
}

// Get returns the current entry for the document without blocking; the entry
// may be stale or nil (before the first refresh has completed). If the entry
// is stale and no refresh is already in flight, one is triggered
// fire-and-forget before returning. Documents without a filename are never
// linted and never trigger anything.
func (c *Cache) Get(doc core.Document) *core.CacheEntry {
	if doc.Filename() == "" {
		return nil
	}
	s := c.shard(doc.ID())
	s.l.Lock()
	e, present := s.m[doc.ID()]
	if !present {
		e = &entry{}
		s.m[doc.ID()] = e
	}
	cur := e.published
	trigger := (cur == nil || cur.Revision != doc.Revision()) && !e.refreshing
	if trigger {
		e.refreshing = true
	}
	s.l.Unlock()
	if trigger {
		id := doc.ID()
		go c.refresher.Refresh(doc, func(ce *core.CacheEntry) {
			c.publish(id, ce)
		})
	}
	return cur
}

// Remove evicts a document's entry; the editor calls this when the document
// is closed. If a refresh for it is still in flight, its eventual publish
// finds no entry and becomes a no-op.
func (c *Cache) Remove(id core.DocumentID) {
	s := c.shard(id)
	s.l.Lock()
	defer s.l.Unlock()
	delete(s.m, id)
}

// publish atomically swaps in the refreshed entry and clears the in-flight
// marker. A nil entry (a refresh that failed partway) just clears the marker,
// leaving whatever was published before.
func (c *Cache) publish(id core.DocumentID, ce *core.CacheEntry) {
	s := c.shard(id)
	s.l.Lock()
	defer s.l.Unlock()
	e, present := s.m[id]
	if !present {
		return // Document was closed while we were refreshing.
	}
	e.refreshing = false
	if ce != nil {
		e.published = ce
	}
}

func (c *Cache) shard(id core.DocumentID) *shard {
	return &c.shards[xxhash.Sum64String(string(id))&c.mask]
}
