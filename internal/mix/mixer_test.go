package mix

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/omotivaudio/vocalbooth/internal/codec"
	"github.com/omotivaudio/vocalbooth/internal/config"
	"github.com/omotivaudio/vocalbooth/internal/play"
)

func track(samples []float32, channels, rate int) *play.Track {
	return &play.Track{Samples: samples, Channels: channels, SampleRate: rate}
}

func TestRenderAppliesGains(t *testing.T) {
	e := New(config.Default())

	backing := track([]float32{0.2, 0.2, 0.2, 0.2}, 1, 44100)
	take := track([]float32{0.1, 0.1, 0.1, 0.1}, 1, 44100)

	mixed, err := e.Render(backing, take, 1.0, 2.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	for i, s := range mixed {
		if math.Abs(float64(s)-0.4) > 1e-6 {
			t.Errorf("mixed[%d] = %v; want 0.4", i, s)
		}
	}
}

func TestRenderBelowThresholdUntouched(t *testing.T) {
	e := New(config.Default())

	// Peak 0.4 stays under the 0.5 clip threshold; no scaling.
	backing := track([]float32{0.3, 0.3}, 1, 44100)
	take := track([]float32{0.1, 0.1}, 1, 44100)

	mixed, err := e.Render(backing, take, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if math.Abs(float64(mixed[0])-0.4) > 1e-6 {
		t.Errorf("mixed[0] = %v; want 0.4 (no normalization)", mixed[0])
	}
}

func TestRenderSilentInputsStaySilent(t *testing.T) {
	e := New(config.Default())
	outPath := filepath.Join(t.TempDir(), "silent-mix.wav")

	backing := track([]float32{0, 0, 0, 0}, 1, 8000)
	take := track([]float32{0, 0, 0, 0}, 1, 8000)

	if err := e.Export(backing, take, 1.0, 1.0, outPath); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	samples, channels, rate, err := codec.Decode(outPath)
	if err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if channels != 1 || rate != 8000 {
		t.Errorf("export format = %d ch %d Hz; want 1 ch 8000 Hz", channels, rate)
	}
	if len(samples) != 4 {
		t.Fatalf("export has %d samples; want 4", len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Errorf("samples[%d] = %v; want 0", i, s)
		}
	}
}

func TestRenderPeakAtThresholdUntouched(t *testing.T) {
	e := New(config.Default())

	// 0.2*0.5 everywhere plus 0.4 on the first two samples gives
	// [0.5, 0.5, 0.1, 0.1]. The peak sits exactly on the threshold,
	// which does not trip normalization.
	backing := track([]float32{0.2, 0.2, 0.2, 0.2}, 1, 44100)
	take := track([]float32{0.4, 0.4}, 1, 44100)

	mixed, err := e.Render(backing, take, 0.5, 1.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := []float64{0.5, 0.5, 0.1, 0.1}
	for i, w := range want {
		if math.Abs(float64(mixed[i])-w) > 1e-6 {
			t.Errorf("mixed[%d] = %v; want %v", i, mixed[i], w)
		}
	}
}

func TestRenderNormalizesAboveThreshold(t *testing.T) {
	e := New(config.Default())

	// Peak 0.8 exceeds the threshold; the whole mix scales by
	// 0.95/0.8 so relative balance is preserved.
	backing := track([]float32{0.5, 0.5, 0.1, 0.1}, 1, 44100)
	take := track([]float32{0.3, 0.3, 0.0, 0.0}, 1, 44100)

	mixed, err := e.Render(backing, take, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	factor := 0.95 / 0.8
	want := []float64{0.8 * factor, 0.8 * factor, 0.1 * factor, 0.1 * factor}
	for i, w := range want {
		if math.Abs(float64(mixed[i])-w) > 1e-6 {
			t.Errorf("mixed[%d] = %v; want %v", i, mixed[i], w)
		}
	}
	if p := Peak(mixed); math.Abs(p-0.95) > 1e-6 {
		t.Errorf("Peak(mixed) = %v; want 0.95", p)
	}
}

func TestRenderPadsShortTake(t *testing.T) {
	e := New(config.Default())

	backing := track([]float32{0.2, 0.2, 0.2, 0.2}, 1, 44100)
	take := track([]float32{0.1, 0.1}, 1, 44100)

	mixed, err := e.Render(backing, take, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(mixed) != 4 {
		t.Fatalf("len(mixed) = %d; want backing length 4", len(mixed))
	}
	if math.Abs(float64(mixed[0])-0.3) > 1e-6 {
		t.Errorf("mixed[0] = %v; want 0.3", mixed[0])
	}
	if math.Abs(float64(mixed[3])-0.2) > 1e-6 {
		t.Errorf("mixed[3] = %v; want 0.2 (take padded with silence)", mixed[3])
	}
}

func TestRenderTruncatesLongTake(t *testing.T) {
	e := New(config.Default())

	backing := track([]float32{0.2, 0.2}, 1, 44100)
	take := track([]float32{0.1, 0.1, 0.9, 0.9}, 1, 44100)

	mixed, err := e.Render(backing, take, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(mixed) != 2 {
		t.Errorf("len(mixed) = %d; want backing length 2", len(mixed))
	}
}

func TestRenderUpmixesMonoTake(t *testing.T) {
	e := New(config.Default())

	backing := track([]float32{0.2, 0.3, 0.2, 0.3}, 2, 44100)
	take := track([]float32{0.1, 0.1}, 1, 44100)

	mixed, err := e.Render(backing, take, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	want := []float64{0.3, 0.4, 0.3, 0.4}
	for i, w := range want {
		if math.Abs(float64(mixed[i])-w) > 1e-6 {
			t.Errorf("mixed[%d] = %v; want %v", i, mixed[i], w)
		}
	}
}

func TestRenderFormatMismatch(t *testing.T) {
	e := New(config.Default())

	if _, err := e.Render(track([]float32{0}, 1, 44100), track([]float32{0}, 1, 48000), 1, 1); err == nil {
		t.Error("Render with mismatched sample rates succeeded; want error")
	}
	if _, err := e.Render(track([]float32{0, 0}, 2, 44100), track([]float32{0, 0, 0}, 3, 44100), 1, 1); err == nil {
		t.Error("Render with a 3 channel take succeeded; want error")
	}
}

func TestExportRoundTrip(t *testing.T) {
	e := New(config.Default())

	backing := track([]float32{0.2, 0.2, 0.2, 0.2}, 1, 8000)
	take := track([]float32{0.1, 0.1, 0.1, 0.1}, 1, 8000)
	outPath := filepath.Join(t.TempDir(), "mix.wav")

	if err := e.Export(backing, take, 1.0, 1.0, outPath); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	samples, channels, rate, err := codec.Decode(outPath)
	if err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if channels != 1 || rate != 8000 {
		t.Errorf("export format = %d ch %d Hz; want 1 ch 8000 Hz", channels, rate)
	}
	if len(samples) != 4 {
		t.Fatalf("export has %d samples; want 4", len(samples))
	}
	if math.Abs(float64(samples[0])-0.3) > 1e-3 {
		t.Errorf("samples[0] = %v; want ~0.3", samples[0])
	}
}
