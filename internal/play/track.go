package play

import (
	"github.com/omotivaudio/vocalbooth/internal/codec"
)

// Track is a fully materialized audio file held in memory: interleaved
// float32 samples plus format metadata. Immutable after load.
type Track struct {
	Path       string
	Samples    []float32
	Channels   int
	SampleRate int
}

// LoadTrack decodes an entire audio file into a Track. Fails with
// audio.ErrDecode on unreadable or corrupt input. Channel count is
// preserved as-is; no implicit downmixing.
func LoadTrack(path string) (*Track, error) {
	samples, channels, rate, err := codec.Decode(path)
	if err != nil {
		return nil, err
	}
	return &Track{
		Path:       path,
		Samples:    samples,
		Channels:   channels,
		SampleRate: rate,
	}, nil
}

// Frames returns the number of sample frames in the track.
func (t *Track) Frames() int {
	if t.Channels <= 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return float64(t.Frames()) / float64(t.SampleRate)
}
