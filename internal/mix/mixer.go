package mix

import (
	"fmt"
	"log/slog"

	"github.com/omotivaudio/vocalbooth/internal/codec"
	"github.com/omotivaudio/vocalbooth/internal/config"
	"github.com/omotivaudio/vocalbooth/internal/play"
)

// Exporter combines a trimmed backing track and a recorded take into
// one normalized output file. Stateless, single-shot: no partial
// failure or retry semantics beyond surfacing the error.
type Exporter struct {
	cfg *config.Config
}

// New creates an exporter using the config's clip threshold and
// headroom.
func New(cfg *config.Config) *Exporter {
	return &Exporter{cfg: cfg}
}

// Export renders backing*backingGain + take*takeGain, normalizes when
// the peak exceeds the clip threshold, and writes the result at the
// backing track's sample rate to outPath.
func (e *Exporter) Export(backing, take *play.Track, backingGain, takeGain float64, outPath string) error {
	mixed, err := e.Render(backing, take, backingGain, takeGain)
	if err != nil {
		return err
	}

	if err := codec.EncodeWAV(outPath, mixed, backing.Channels, backing.SampleRate); err != nil {
		return err
	}

	slog.Info("Mix exported",
		"output", outPath,
		"frames", len(mixed)/backing.Channels,
		"rate", backing.SampleRate,
		"backing_gain", backingGain,
		"take_gain", takeGain)
	return nil
}

// Render computes the normalized mix in memory. The take is zero-padded
// or truncated to the backing length; a mono take against a multi-
// channel backing is upmixed by duplication.
func (e *Exporter) Render(backing, take *play.Track, backingGain, takeGain float64) ([]float32, error) {
	if backing.SampleRate != take.SampleRate {
		return nil, fmt.Errorf("sample rate mismatch: backing %d Hz, take %d Hz",
			backing.SampleRate, take.SampleRate)
	}

	takeSamples := take.Samples
	if take.Channels != backing.Channels {
		if take.Channels != 1 {
			return nil, fmt.Errorf("channel mismatch: backing has %d channels, take has %d",
				backing.Channels, take.Channels)
		}
		takeSamples = upmixMono(takeSamples, backing.Channels)
	}

	bg := float32(backingGain)
	tg := float32(takeGain)

	mixed := make([]float32, len(backing.Samples))
	for i, s := range backing.Samples {
		mixed[i] = s * bg
	}
	// Pad/truncate is implicit: only overlapping samples contribute.
	for i := 0; i < len(mixed) && i < len(takeSamples); i++ {
		mixed[i] += takeSamples[i] * tg
	}

	normalize(mixed, e.cfg.Mix.ClipThreshold, e.cfg.Mix.Headroom)
	return mixed, nil
}

// normalize scales the whole mix down to the headroom peak when its
// peak exceeds the clip threshold. Quiet mixes are left untouched.
func normalize(samples []float32, clipThreshold, headroom float64) {
	peak := Peak(samples)
	if peak <= clipThreshold {
		return
	}

	factor := float32(headroom / peak)
	for i := range samples {
		samples[i] *= factor
	}
	slog.Debug("Mix normalized", "peak", peak, "factor", factor)
}

// Peak returns the maximum absolute sample value.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// upmixMono duplicates a mono signal across channels.
func upmixMono(samples []float32, channels int) []float32 {
	out := make([]float32, len(samples)*channels)
	for i, s := range samples {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = s
		}
	}
	return out
}
