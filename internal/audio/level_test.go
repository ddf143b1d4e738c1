package audio

import (
	"math"
	"testing"
)

func TestRMSLevelEmpty(t *testing.T) {
	if got := RMSLevel(nil); got != 0.0 {
		t.Errorf("RMSLevel(nil) = %v; want 0.0", got)
	}
	if got := RMSLevel([]float32{}); got != 0.0 {
		t.Errorf("RMSLevel(empty) = %v; want 0.0", got)
	}
}

func TestRMSLevelSilence(t *testing.T) {
	silence := make([]float32, 1024)
	if got := RMSLevel(silence); got != 0.0 {
		t.Errorf("RMSLevel(silence) = %v; want 0.0", got)
	}
}

func TestRMSLevelGain(t *testing.T) {
	// A constant signal of 0.1 has RMS 0.1; the display gain maps it
	// to 0.5.
	samples := make([]float32, 512)
	for i := range samples {
		samples[i] = 0.1
	}
	got := RMSLevel(samples)
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("RMSLevel(const 0.1) = %v; want 0.5", got)
	}
}

func TestRMSLevelClamped(t *testing.T) {
	// Full-scale input would read 5.0 after gain; the meter clamps.
	samples := make([]float32, 512)
	for i := range samples {
		samples[i] = 1.0
	}
	if got := RMSLevel(samples); got != 1.0 {
		t.Errorf("RMSLevel(full scale) = %v; want 1.0", got)
	}
}

func TestRMSLevelMonotonic(t *testing.T) {
	quiet := make([]float32, 256)
	loud := make([]float32, 256)
	for i := range quiet {
		quiet[i] = 0.01
		loud[i] = 0.05
	}
	if RMSLevel(quiet) >= RMSLevel(loud) {
		t.Error("louder signal should produce a higher level")
	}
}

func TestChannelLevels(t *testing.T) {
	// Interleaved stereo: left constant 0.1, right silent.
	samples := make([]float32, 200)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 0.1
	}

	levels := ChannelLevels(samples, 2)
	if len(levels) != 2 {
		t.Fatalf("ChannelLevels returned %d levels; want 2", len(levels))
	}
	if math.Abs(levels[0]-0.5) > 1e-6 {
		t.Errorf("left level = %v; want 0.5", levels[0])
	}
	if levels[1] != 0.0 {
		t.Errorf("right level = %v; want 0.0", levels[1])
	}
}
