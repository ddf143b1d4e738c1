package codec

import (
	"fmt"
	"os"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/omotivaudio/vocalbooth/internal/audio"
)

// DecodeWAV reads a whole WAV file into interleaved float32 samples.
func DecodeWAV(path string) (samples []float32, channels, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", audio.ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: invalid WAV file %s", audio.ErrDecode, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: reading %s: %v", audio.ErrDecode, path, err)
	}

	divisor, err := sampleDivisor(int(dec.BitDepth))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %s: %v", audio.ErrDecode, path, err)
	}

	samples = make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / divisor
	}

	return samples, buf.Format.NumChannels, buf.Format.SampleRate, nil
}

// EncodeWAV writes interleaved float32 samples as a 16-bit PCM WAV
// file, creating parent directories as needed.
func EncodeWAV(path string, samples []float32, channels, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrWrite, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", audio.ErrWrite, err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, 16, channels, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		// Clamp before quantizing; captured material can peak past 1.0.
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		data[i] = int(s * 32767.0)
	}

	if err := enc.Write(&gaudio.IntBuffer{
		Data:   data,
		Format: &gaudio.Format{SampleRate: sampleRate, NumChannels: channels},
	}); err != nil {
		return fmt.Errorf("%w: encoding %s: %v", audio.ErrWrite, path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: finalizing %s: %v", audio.ErrWrite, path, err)
	}
	return nil
}
