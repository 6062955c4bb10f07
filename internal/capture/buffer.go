// File: internal/capture/buffer.go
package capture

import (
	"sync"
	"time"

	"github.com/xkilldash9x/streamsift/internal/classify"
)

// Buffer is the ordered, deduplicating store of candidates observed during
// one session. It is the only state shared between the interaction script
// and the network event callbacks, so every mutation goes through the mutex.
// CDP can deliver completion events out of order; the buffer only promises
// that the first accepted payload wins for a given normalized key.
type Buffer struct {
	mu      sync.Mutex
	entries []classify.Candidate
	index   map[string]int
	seq     int
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{index: make(map[string]int)}
}

// Offer inserts a candidate unless an equal-or-better entry with the same
// normalized key already exists. It returns true when the candidate was
// inserted, or when it upgraded an existing unknown/segment entry to a
// higher-confidence kind. On upgrade the stored URL, sequence number and
// first-seen time are kept from the original observation; only the kind and
// a missing content-type hint are refreshed.
func (b *Buffer) Offer(cand classify.Candidate) bool {
	if cand.NormalizedKey == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.index[cand.NormalizedKey]; ok {
		cur := &b.entries[i]
		if cand.Kind > cur.Kind && cur.Kind <= classify.KindSegment {
			cur.Kind = cand.Kind
			if cur.ContentType == "" {
				cur.ContentType = cand.ContentType
			}
			return true
		}
		return false
	}

	cand.Seq = b.seq
	cand.FirstSeen = time.Now()
	b.seq++
	b.entries = append(b.entries, cand)
	b.index[cand.NormalizedKey] = len(b.entries) - 1
	return true
}

// Snapshot returns a copy of the buffer contents in insertion order.
func (b *Buffer) Snapshot() []classify.Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]classify.Candidate, len(b.entries))
	copy(out, b.entries)
	return out
}

// HasManifest reports whether at least one master or media playlist has been
// captured. The driver polls this to decide when the session has enough
// signal to stop early.
func (b *Buffer) HasManifest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		if b.entries[i].Kind.IsManifest() {
			return true
		}
	}
	return false
}

// Len returns the number of distinct candidates captured so far.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
