package audio

import "math"

// meterGain scales raw RMS so typical speech and music land in the
// upper-middle of the 0..1 meter range.
const meterGain = 5.0

// RMSLevel computes an instantaneous level estimate for a block of
// samples: root-mean-square scaled by meterGain and clamped to 1.0.
// Returns 0.0 for an empty block. Stateless, safe for concurrent use.
func RMSLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	level := math.Sqrt(sum/float64(len(samples))) * meterGain
	if level > 1.0 {
		level = 1.0
	}
	return level
}

// ChannelLevels computes one RMSLevel per channel from interleaved
// samples. A mono meter over stereo material should average the result.
func ChannelLevels(samples []float32, channels int) []float64 {
	if channels <= 0 {
		return nil
	}

	levels := make([]float64, channels)
	if len(samples) == 0 {
		return levels
	}

	frames := len(samples) / channels
	if frames == 0 {
		return levels
	}

	for ch := 0; ch < channels; ch++ {
		var sum float64
		for f := 0; f < frames; f++ {
			s := float64(samples[f*channels+ch])
			sum += s * s
		}
		lvl := math.Sqrt(sum/float64(frames)) * meterGain
		if lvl > 1.0 {
			lvl = 1.0
		}
		levels[ch] = lvl
	}
	return levels
}
