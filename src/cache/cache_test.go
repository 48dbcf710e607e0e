package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/annotate/src/core"
)

// A testDoc is a minimal in-memory document.
type testDoc struct {
	id       core.DocumentID
	filename string
	revision uint64
}

func newTestDoc(filename string) *testDoc {
	return &testDoc{id: core.NewDocumentID(), filename: filename, revision: 1}
}

func (d *testDoc) ID() core.DocumentID { return d.id }
func (d *testDoc) Filename() string    { return d.filename }
func (d *testDoc) Path() string        { return "/tmp/" + d.filename }
func (d *testDoc) Revision() core.Revision {
	return core.Revision(atomic.LoadUint64(&d.revision))
}
func (d *testDoc) edit() { atomic.AddUint64(&d.revision, 1) }

// A manualRefresher records refresh requests and lets the test decide when
// each one publishes.
type manualRefresher struct {
	mu       sync.Mutex
	requests []func(*core.CacheEntry) // pending publish callbacks
	docs     []core.Document
	count    int64
}

func (r *manualRefresher) Refresh(doc core.Document, publish func(*core.CacheEntry)) {
	atomic.AddInt64(&r.count, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, publish)
	r.docs = append(r.docs, doc)
}

// finish publishes the oldest pending refresh with the given warning set.
func (r *manualRefresher) finish(ws *core.WarningSet) {
	r.mu.Lock()
	publish := r.requests[0]
	doc := r.docs[0]
	r.requests = r.requests[1:]
	r.docs = r.docs[1:]
	r.mu.Unlock()
	publish(&core.CacheEntry{
		Filename: doc.Filename(),
		Path:     doc.Path(),
		Revision: doc.Revision(),
		Warnings: ws,
	})
}

func (r *manualRefresher) refreshes() int64 { return atomic.LoadInt64(&r.count) }

// waitFor spins until the condition holds or the test times out; refreshes
// are triggered on goroutines so there's a handoff to wait out.
func waitFor(t *testing.T, f func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !f() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFirstGetTriggersRefreshAndReturnsNothing(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("main.go")
	assert.Nil(t, c.Get(doc))
	waitFor(t, func() bool { return r.refreshes() == 1 })
	ws := core.NewWarningSet()
	ws.Add(core.Warning{Line: 1, Message: "hm"})
	r.finish(ws)
	waitFor(t, func() bool { return c.Get(doc) != nil })
	assert.Equal(t, ws, c.Get(doc).Warnings)
}

func TestRepeatedGetsDontRetrigger(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("main.go")
	c.Get(doc)
	waitFor(t, func() bool { return r.refreshes() == 1 })
	r.finish(core.NewWarningSet())
	waitFor(t, func() bool { return c.Get(doc) != nil })
	first := c.Get(doc)
	// No edits, so every further get returns the same set and schedules nothing.
	for i := 0; i < 10; i++ {
		assert.Same(t, first, c.Get(doc))
	}
	assert.EqualValues(t, 1, r.refreshes())
}

func TestConcurrentGetsTriggerExactlyOneRefresh(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("main.go")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(doc)
		}()
	}
	wg.Wait()
	waitFor(t, func() bool { return r.refreshes() >= 1 })
	// Give any stragglers a chance to (incorrectly) fire.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, r.refreshes())
}

func TestStaleEntryServedWhileRefreshing(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("main.go")
	c.Get(doc)
	waitFor(t, func() bool { return r.refreshes() == 1 })
	old := core.NewWarningSet()
	old.Add(core.Warning{Line: 2, Message: "old"})
	r.finish(old)
	waitFor(t, func() bool { return c.Get(doc) != nil })

	doc.edit()
	// Stale snapshot comes back immediately and one refresh gets scheduled.
	e := c.Get(doc)
	require.NotNil(t, e)
	assert.Equal(t, old, e.Warnings)
	waitFor(t, func() bool { return r.refreshes() == 2 })
	// Further queries while it's in flight are no-op triggers.
	c.Get(doc)
	c.Get(doc)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, r.refreshes())

	fresh := core.NewWarningSet()
	fresh.Add(core.Warning{Line: 2, Message: "new"})
	r.finish(fresh)
	waitFor(t, func() bool { return c.Get(doc).Warnings == fresh })
}

func TestNoFilenameNeverTriggers(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("")
	for i := 0; i < 5; i++ {
		assert.Nil(t, c.Get(doc))
	}
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, r.refreshes())
}

func TestFailedRefreshClearsMarker(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("main.go")
	c.Get(doc)
	waitFor(t, func() bool { return r.refreshes() == 1 })
	// The refresher bailed; it still must release the marker via publish(nil).
	r.mu.Lock()
	publish := r.requests[0]
	r.requests = r.requests[1:]
	r.docs = r.docs[1:]
	r.mu.Unlock()
	publish(nil)
	// Nothing was published but the next query can trigger a new refresh.
	assert.Nil(t, c.Get(doc))
	waitFor(t, func() bool { return r.refreshes() == 2 })
}

func TestRemoveEvicts(t *testing.T) {
	r := &manualRefresher{}
	c := New(DefaultShardCount, r)
	doc := newTestDoc("main.go")
	c.Get(doc)
	waitFor(t, func() bool { return r.refreshes() == 1 })
	c.Remove(doc.ID())
	r.finish(core.NewWarningSet()) // publishes into the void
	// A fresh get sees no entry and triggers anew.
	assert.Nil(t, c.Get(doc))
	waitFor(t, func() bool { return r.refreshes() == 2 })
}

func TestShardCountMustBePowerOfTwo(t *testing.T) {
	assert.Panics(t, func() { New(3, &manualRefresher{}) })
}
