// Package watch provides a file-backed document collaborator: an fsnotify
// watcher that bumps a document's revision whenever its file changes on disk,
// driving the stale -> refresh -> publish loop.
package watch

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/annotate/src/cache"
	"github.com/thought-machine/annotate/src/core"
)

var log = logging.MustGetLogger("watch")

const debounceInterval = 50 * time.Millisecond

// How long we'll poll for a triggered refresh to publish before giving up.
const refreshDeadline = 60 * time.Second

// A FileDocument is a Document backed by a file on disk. Its revision is
// bumped whenever the file is rewritten.
type FileDocument struct {
	id       core.DocumentID
	path     string
	revision uint64
}

// NewFileDocument returns a document for the given file.
func NewFileDocument(path string) (*FileDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &FileDocument{
		id:       core.NewDocumentID(),
		path:     abs,
		revision: 1,
	}, nil
}

// ID returns the document's stable identity.
func (d *FileDocument) ID() core.DocumentID { return d.id }

// Filename returns the name linter applicability is matched against; for a
// file on disk that's just its path.
func (d *FileDocument) Filename() string { return d.path }

// Path returns the absolute path handed to linter subprocesses.
func (d *FileDocument) Path() string { return d.path }

// Revision returns the document's current content revision.
func (d *FileDocument) Revision() core.Revision {
	return core.Revision(atomic.LoadUint64(&d.revision))
}

// Bump marks the document's content as changed.
func (d *FileDocument) Bump() {
	atomic.AddUint64(&d.revision, 1)
}

// Watch watches the given documents' files for changes and calls onRefresh
// with each newly published entry (including one initial lint per document).
// It never returns successfully, it will either watch forever or die.
func Watch(c *cache.Cache, docs []*FileDocument, onRefresh func(*core.CacheEntry)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("Error setting up watcher: %s", err)
	}
	// Watch the containing directories; editors typically replace files
	// rather than writing them in place.
	files := map[string]*FileDocument{}
	dirs := map[string]struct{}{}
	for _, doc := range docs {
		files[doc.Path()] = doc
		dir := filepath.Dir(doc.Path())
		if _, present := dirs[dir]; !present {
			dirs[dir] = struct{}{}
			if err := watcher.Add(dir); err != nil {
				log.Fatalf("Failed to add watch on %s: %s", dir, err)
			}
			log.Notice("Added watch on %s", dir)
		}
		go awaitRefresh(c, doc, onRefresh) // kick off the initial lint
	}
	for {
		select {
		case event := <-watcher.Events:
			doc, present := files[event.Name]
			if !present || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				log.Debug("Skipping notification for %s", event.Name)
				continue
			}
			// Quick debounce; poll and discard all events for the next brief period.
		outer:
			for {
				select {
				case <-watcher.Events:
				case <-time.After(debounceInterval):
					break outer
				}
			}
			log.Info("Change detected on %s", event.Name)
			doc.Bump()
			go awaitRefresh(c, doc, onRefresh)
		case err := <-watcher.Errors:
			log.Error("Error watching files: %s", err)
		}
	}
}

// awaitRefresh queries the document (triggering a refresh since it's stale)
// and polls until an entry at least as new as its current revision has been
// published, then hands it to the callback.
func awaitRefresh(c *cache.Cache, doc *FileDocument, onRefresh func(*core.CacheEntry)) {
	rev := doc.Revision()
	deadline := time.Now().Add(refreshDeadline)
	for time.Now().Before(deadline) {
		if entry := c.Get(doc); entry != nil && entry.Revision >= rev {
			onRefresh(entry)
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	log.Warning("Lint of %s didn't complete in time", doc.Path())
}
