package audio

import "sync"

// SampleBuffer is a bounded, append-only store of captured chunks.
// It is owned by a single capture session: one producer appends from
// the stream callback, the session concatenates exactly once at stop.
// When the capacity bound is reached further appends are dropped
// (drop-newest); nothing is ever overwritten.
type SampleBuffer struct {
	mu        sync.Mutex
	chunks    []Chunk
	maxChunks int
	dropped   int
}

// NewSampleBuffer creates a buffer bounded to maxChunks chunks.
func NewSampleBuffer(maxChunks int) *SampleBuffer {
	return &SampleBuffer{maxChunks: maxChunks}
}

// Append stores a chunk and reports whether it was accepted. Once the
// buffer is at capacity all further chunks are rejected.
func (b *SampleBuffer) Append(c Chunk) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.chunks) >= b.maxChunks {
		b.dropped++
		return false
	}
	b.chunks = append(b.chunks, c)
	return true
}

// Len returns the number of stored chunks.
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Dropped returns how many chunks were rejected at capacity.
func (b *SampleBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Concat joins all stored chunks into one contiguous sample array and
// releases the chunk storage. Call once, at the end of a capture.
func (b *SampleBuffer) Concat() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, c := range b.chunks {
		total += len(c.Samples)
	}

	out := make([]float32, 0, total)
	for _, c := range b.chunks {
		out = append(out, c.Samples...)
	}

	b.chunks = nil
	return out
}

// Discard drops all buffered chunks without materializing them.
func (b *SampleBuffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = nil
}
