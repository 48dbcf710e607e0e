package process

import (
	"bytes"
	"sync"
)

// A boundedBuffer is a threadsafe buffer that stops accepting input once it
// holds max bytes. Stdout and stderr of a subprocess both write into one of
// these, so writes must be serialised.
type boundedBuffer struct {
	buf bytes.Buffer
	max uint64
	mu  sync.Mutex
}

func newBoundedBuffer(max uint64) *boundedBuffer {
	return &boundedBuffer{max: max}
}

// Write implements the io.Writer interface. It never returns an error;
// input past the limit is silently discarded.
func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(p)
	if b.max > 0 {
		if remaining := int64(b.max) - int64(b.buf.Len()); remaining < int64(n) {
			if remaining <= 0 {
				return n, nil
			}
			p = p[:remaining]
		}
	}
	b.buf.Write(p)
	return n, nil
}

func (b *boundedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
