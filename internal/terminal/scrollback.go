package terminal

import (
	"sync"
	"unicode/utf8"
)

// DefaultScrollbackBytes bounds a pane's retained output when no
// explicit limit is configured.
const DefaultScrollbackBytes = 2 * 1024 * 1024

// Scrollback is a bounded in-memory buffer of terminal output. Chunks
// are appended as the pump reads them and the oldest chunks are evicted
// once the total size exceeds the limit. Safe for concurrent use.
type Scrollback struct {
	mu     sync.RWMutex
	chunks [][]byte
	size   int
	limit  int
}

// NewScrollback returns a buffer holding at most limit bytes.
// Non-positive limits fall back to DefaultScrollbackBytes.
func NewScrollback(limit int) *Scrollback {
	if limit <= 0 {
		limit = DefaultScrollbackBytes
	}
	return &Scrollback{limit: limit}
}

// Append copies chunk into the buffer, then evicts whole chunks from
// the front until the total size fits the limit again.
func (s *Scrollback) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(c) > s.limit {
		// A single chunk larger than the whole buffer replaces it,
		// trimmed so the retained bytes never start mid-rune.
		c = trimToRuneStart(c[len(c)-s.limit:])
		s.chunks = append(s.chunks[:0], c)
		s.size = len(c)
		return
	}

	s.chunks = append(s.chunks, c)
	s.size += len(c)
	for s.size > s.limit {
		s.size -= len(s.chunks[0])
		s.chunks[0] = nil
		s.chunks = s.chunks[1:]
	}
}

// Tail returns the most recent maxBytes bytes of output, in order, as a
// fresh slice. Requests larger than the buffered size clamp to the
// whole buffer; non-positive requests return an empty slice.
func (s *Scrollback) Tail(maxBytes int) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxBytes <= 0 || s.size == 0 {
		return []byte{}
	}
	if maxBytes > s.size {
		maxBytes = s.size
	}

	out := make([]byte, maxBytes)
	pos := maxBytes
	for i := len(s.chunks) - 1; i >= 0 && pos > 0; i-- {
		c := s.chunks[i]
		if len(c) > pos {
			c = c[len(c)-pos:]
		}
		copy(out[pos-len(c):], c)
		pos -= len(c)
	}
	return out
}

// Len is the number of buffered bytes; always at most Cap.
func (s *Scrollback) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Cap is the configured byte limit.
func (s *Scrollback) Cap() int {
	return s.limit
}

func trimToRuneStart(b []byte) []byte {
	for len(b) > 0 && !utf8.RuneStart(b[0]) {
		b = b[1:]
	}
	return b
}
