package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/annotate/src/cache"
	"github.com/thought-machine/annotate/src/core"
)

func TestFileDocumentRevisions(t *testing.T) {
	doc, err := NewFileDocument("watch.go")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(doc.Path()))
	assert.Equal(t, doc.Path(), doc.Filename())
	rev := doc.Revision()
	doc.Bump()
	assert.Equal(t, rev+1, doc.Revision())
	assert.NotEmpty(t, doc.ID())
}

// A countingRefresher publishes an empty set straight away.
type countingRefresher struct{}

func (r *countingRefresher) Refresh(doc core.Document, publish func(*core.CacheEntry)) {
	publish(&core.CacheEntry{
		Filename: doc.Filename(),
		Path:     doc.Path(),
		Revision: doc.Revision(),
		Warnings: core.NewWarningSet(),
	})
}

func TestWatchRelintsOnWrite(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "watched.go")
	require.NoError(t, os.WriteFile(filename, []byte("package watched\n"), 0644))
	doc, err := NewFileDocument(filename)
	require.NoError(t, err)

	c := cache.New(cache.DefaultShardCount, &countingRefresher{})
	refreshed := make(chan *core.CacheEntry, 10)
	go Watch(c, []*FileDocument{doc}, func(e *core.CacheEntry) { refreshed <- e })

	// The initial lint arrives without any file change.
	select {
	case e := <-refreshed:
		assert.Equal(t, core.Revision(1), e.Revision)
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for the initial lint")
	}

	require.NoError(t, os.WriteFile(filename, []byte("package watched // edited\n"), 0644))
	select {
	case e := <-refreshed:
		assert.True(t, e.Revision >= 2)
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for a re-lint after writing the file")
	}
}
