package audio

import "testing"

func chunkOf(values ...float32) Chunk {
	return Chunk{Samples: values, Channels: 1, SampleRate: 44100}
}

func TestSampleBufferAppend(t *testing.T) {
	b := NewSampleBuffer(4)

	for i := 0; i < 4; i++ {
		if !b.Append(chunkOf(float32(i))) {
			t.Fatalf("Append %d rejected below capacity", i)
		}
	}
	if b.Len() != 4 {
		t.Errorf("Len() = %d; want 4", b.Len())
	}
}

func TestSampleBufferDropNewest(t *testing.T) {
	b := NewSampleBuffer(2)

	b.Append(chunkOf(1))
	b.Append(chunkOf(2))

	if b.Append(chunkOf(3)) {
		t.Error("Append accepted a chunk past capacity")
	}
	if b.Append(chunkOf(4)) {
		t.Error("Append accepted a chunk past capacity")
	}
	if b.Dropped() != 2 {
		t.Errorf("Dropped() = %d; want 2", b.Dropped())
	}

	// The buffered audio is the oldest chunks, untouched by the drops.
	samples := b.Concat()
	if len(samples) != 2 || samples[0] != 1 || samples[1] != 2 {
		t.Errorf("Concat() = %v; want [1 2]", samples)
	}
}

func TestSampleBufferConcatReleases(t *testing.T) {
	b := NewSampleBuffer(8)
	b.Append(chunkOf(1, 2))
	b.Append(chunkOf(3))

	samples := b.Concat()
	if len(samples) != 3 {
		t.Fatalf("Concat() returned %d samples; want 3", len(samples))
	}
	for i, want := range []float32{1, 2, 3} {
		if samples[i] != want {
			t.Errorf("samples[%d] = %v; want %v", i, samples[i], want)
		}
	}

	if b.Len() != 0 {
		t.Errorf("Len() = %d after Concat; want 0", b.Len())
	}
}

func TestSampleBufferDiscard(t *testing.T) {
	b := NewSampleBuffer(8)
	b.Append(chunkOf(1))
	b.Discard()

	if b.Len() != 0 {
		t.Errorf("Len() = %d after Discard; want 0", b.Len())
	}
	if got := b.Concat(); len(got) != 0 {
		t.Errorf("Concat() after Discard = %v; want empty", got)
	}
}
