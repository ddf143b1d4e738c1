// Package codec reads and writes the linear PCM files the booth works
// with: WAV in both directions, FLAC decode-only so separation exports
// load directly as backing tracks.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/omotivaudio/vocalbooth/internal/audio"
)

// Decode reads an entire audio file into interleaved float32 samples
// in [-1, 1]. The container is chosen by file extension.
func Decode(path string) (samples []float32, channels, sampleRate int, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return DecodeWAV(path)
	case ".flac":
		return DecodeFLAC(path)
	default:
		return nil, 0, 0, fmt.Errorf("%w: unsupported extension %q", audio.ErrDecode, filepath.Ext(path))
	}
}

// sampleDivisor returns the normalization divisor for an integer PCM
// bit depth.
func sampleDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}
