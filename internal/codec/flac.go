package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/omotivaudio/vocalbooth/internal/audio"
)

// DecodeFLAC reads a whole FLAC file into interleaved float32 samples.
func DecodeFLAC(path string) (samples []float32, channels, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", audio.ErrDecode, err)
	}
	defer f.Close()

	dec, err := flac.NewDecoder(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: invalid FLAC file %s: %v", audio.ErrDecode, path, err)
	}

	divisor, err := sampleDivisor(dec.BitsPerSample)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %s: %v", audio.ErrDecode, path, err)
	}

	bytesPerSample := dec.BitsPerSample / 8
	samples = make([]float32, 0, int(dec.TotalSamples)*dec.NChannels)

	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: reading %s: %v", audio.ErrDecode, path, err)
		}

		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			var sample int32
			switch dec.BitsPerSample {
			case 16:
				sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
			case 24:
				sample = int32(frame[i]) | int32(frame[i+1])<<8 | int32(frame[i+2])<<16
				if sample&0x800000 != 0 {
					sample |= -1 << 24
				}
			case 32:
				sample = int32(binary.LittleEndian.Uint32(frame[i:]))
			}
			samples = append(samples, float32(sample)/divisor)
		}
	}

	return samples, dec.NChannels, dec.SampleRate, nil
}
