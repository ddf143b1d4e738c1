package audio

// Chunk is one block of interleaved float32 samples as delivered by a
// hardware stream. Chunks are immutable once captured.
type Chunk struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of sample frames in the chunk.
func (c Chunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}
