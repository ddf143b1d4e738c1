package audio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioBackend implements Backend over gordonklaus/portaudio.
// Initialize and Terminate are reference counted so capture and
// playback sessions can share one host instance.
type PortAudioBackend struct {
	mu   sync.Mutex
	refs int
}

// NewPortAudioBackend creates an uninitialized PortAudio backend.
func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{}
}

// Initialize brings up the PortAudio host. Safe to call once per
// session; each call must be paired with Terminate.
func (b *PortAudioBackend) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio init: %w", err)
		}
	}
	b.refs++
	return nil
}

// Terminate releases the PortAudio host once the last user is done.
func (b *PortAudioBackend) Terminate() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refs == 0 {
		return nil
	}
	b.refs--
	if b.refs == 0 {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("portaudio terminate: %w", err)
		}
	}
	return nil
}

// Devices lists the host's audio devices.
func (b *PortAudioBackend) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio devices: %w", err)
	}

	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			IsDefaultInput:    defIn != nil && info == defIn,
			IsDefaultOutput:   defOut != nil && info == defOut,
		})
	}
	return devices, nil
}

// OpenInput opens a capture stream on the selected device. The chunk
// passed to fn is PortAudio's internal buffer; fn must copy what it
// keeps.
func (b *PortAudioBackend) OpenInput(p StreamParams, fn InputFunc) (Stream, error) {
	dev, err := b.findDevice(p.DeviceName, true)
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: p.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(p.SampleRate),
		FramesPerBuffer: p.FramesPerChunk,
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		fn(in)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open input %q: %v", ErrDeviceUnavailable, dev.Name, err)
	}

	slog.Debug("PortAudio input stream opened",
		"device", dev.Name, "rate", p.SampleRate, "channels", p.Channels)
	return &paStream{stream: stream, onError: p.OnError}, nil
}

// OpenOutput opens a playback stream on the selected device.
func (b *PortAudioBackend) OpenOutput(p StreamParams, fn OutputFunc) (Stream, error) {
	dev, err := b.findDevice(p.DeviceName, false)
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: p.Channels,
			Latency:  dev.DefaultHighOutputLatency,
		},
		SampleRate:      float64(p.SampleRate),
		FramesPerBuffer: p.FramesPerChunk,
	}

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		fn(out)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open output %q: %v", ErrDeviceUnavailable, dev.Name, err)
	}

	slog.Debug("PortAudio output stream opened",
		"device", dev.Name, "rate", p.SampleRate, "channels", p.Channels)
	return &paStream{stream: stream, onError: p.OnError}, nil
}

// findDevice resolves a device name to a PortAudio device. Empty name
// selects the host default for the requested direction; otherwise the
// first case-insensitive substring match wins.
func (b *PortAudioBackend) findDevice(name string, input bool) (*portaudio.DeviceInfo, error) {
	if name == "" {
		var dev *portaudio.DeviceInfo
		var err error
		if input {
			dev, err = portaudio.DefaultInputDevice()
		} else {
			dev, err = portaudio.DefaultOutputDevice()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: no default device: %v", ErrDeviceUnavailable, err)
		}
		return dev, nil
	}

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	want := strings.ToLower(name)
	for _, info := range infos {
		if !strings.Contains(strings.ToLower(info.Name), want) {
			continue
		}
		if input && info.MaxInputChannels == 0 {
			continue
		}
		if !input && info.MaxOutputChannels == 0 {
			continue
		}
		return info, nil
	}

	return nil, fmt.Errorf("%w: no device matching %q", ErrDeviceUnavailable, name)
}

// paStream adapts *portaudio.Stream to the Stream interface.
type paStream struct {
	stream  *portaudio.Stream
	onError func(error)
}

func (s *paStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("portaudio start: %w", err)
	}
	return nil
}

func (s *paStream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		err = fmt.Errorf("portaudio stop: %w", err)
		if s.onError != nil {
			s.onError(err)
		}
		return err
	}
	return nil
}

func (s *paStream) Close() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("portaudio close: %w", err)
	}
	return nil
}
