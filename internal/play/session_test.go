package play

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/codec"
	"github.com/omotivaudio/vocalbooth/internal/config"
)

type fakeStream struct {
	mu      sync.Mutex
	started bool
	stopped bool
	closed  bool
}

func (f *fakeStream) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeStream) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeBackend simulates the output device; the test drives emission by
// calling the stored callback with a buffer to fill.
type fakeBackend struct {
	mu       sync.Mutex
	outputFn audio.OutputFunc
	stream   *fakeStream
}

func (f *fakeBackend) Initialize() error { return nil }
func (f *fakeBackend) Terminate() error  { return nil }

func (f *fakeBackend) Devices() ([]audio.Device, error) { return nil, nil }

func (f *fakeBackend) OpenInput(p audio.StreamParams, fn audio.InputFunc) (audio.Stream, error) {
	return nil, errors.New("not an input backend")
}

func (f *fakeBackend) OpenOutput(p audio.StreamParams, fn audio.OutputFunc) (audio.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputFn = fn
	f.stream = &fakeStream{}
	return f.stream, nil
}

func (f *fakeBackend) emit(frames int) []float32 {
	f.mu.Lock()
	fn := f.outputFn
	f.mu.Unlock()
	out := make([]float32, frames)
	fn(out)
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.ChunkFrames = 16
	return cfg
}

// loadRampTrack writes a mono 100 Hz WAV whose sample i holds i/200
// and loads it into the session. Duration is one second.
func loadRampTrack(t *testing.T, s *Session) {
	t.Helper()

	samples := make([]float32, 100)
	for i := range samples {
		samples[i] = float32(i) / 200.0
	}
	path := filepath.Join(t.TempDir(), "ramp.wav")
	if err := codec.EncodeWAV(path, samples, 1, 100); err != nil {
		t.Fatalf("encoding test track: %v", err)
	}
	if err := s.Load(path); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
}

// waitForStopped polls until the monitor goroutine has torn playback
// down.
func waitForStopped(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("playback did not stop")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoadResetsWindow(t *testing.T) {
	s := NewSession(testConfig(), &fakeBackend{})
	loadRampTrack(t, s)

	start, end := s.TrimWindow()
	if start != 0 || math.Abs(end-1.0) > 1e-9 {
		t.Errorf("TrimWindow() = (%v, %v); want (0, 1)", start, end)
	}
	if s.Position() != 0 {
		t.Errorf("Position() = %v after Load; want 0", s.Position())
	}
	if math.Abs(s.Duration()-1.0) > 1e-9 {
		t.Errorf("Duration() = %v; want 1.0", s.Duration())
	}
}

func TestTrimValidation(t *testing.T) {
	s := NewSession(testConfig(), &fakeBackend{})

	if err := s.Trim(0, 1); err == nil {
		t.Error("Trim without a track succeeded; want error")
	}

	loadRampTrack(t, s)

	if err := s.Trim(-0.1, 0.5); err == nil {
		t.Error("Trim with negative start succeeded; want error")
	}
	if err := s.Trim(0.6, 0.4); err == nil {
		t.Error("Trim with start after end succeeded; want error")
	}
	if err := s.Trim(0.2, 0); err != nil {
		t.Errorf("Trim(0.2, 0) error: %v; end <= 0 means track end", err)
	}
	start, end := s.TrimWindow()
	if math.Abs(start-0.2) > 1e-9 || math.Abs(end-1.0) > 1e-9 {
		t.Errorf("TrimWindow() = (%v, %v); want (0.2, 1)", start, end)
	}
	if math.Abs(s.Position()-0.2) > 1e-9 {
		t.Errorf("Position() = %v after Trim; want 0.2", s.Position())
	}
}

func TestPlaybackEmission(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(testConfig(), backend)
	loadRampTrack(t, s)

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !s.IsPlaying() {
		t.Fatal("IsPlaying() = false after Play")
	}

	out := backend.emit(40)
	for i := 0; i < 40; i++ {
		want := float32(i) / 200.0
		if math.Abs(float64(out[i]-want)) > 1e-3 {
			t.Fatalf("out[%d] = %v; want ~%v", i, out[i], want)
		}
	}
	if math.Abs(s.Position()-0.4) > 1e-9 {
		t.Errorf("Position() = %v after 40 frames; want 0.4", s.Position())
	}
	if s.OutputLevel() <= 0 {
		t.Error("OutputLevel() = 0 while emitting signal")
	}

	s.Stop()
}

func TestTrimmedPlaybackPadsAndFinishes(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(testConfig(), backend)
	loadRampTrack(t, s)

	if err := s.Trim(0.2, 0.5); err != nil {
		t.Fatalf("Trim() error: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	// The window holds 30 frames; a 40 frame request gets the rest
	// zero-padded.
	out := backend.emit(40)
	for i := 0; i < 30; i++ {
		want := float32(20+i) / 200.0
		if math.Abs(float64(out[i]-want)) > 1e-3 {
			t.Fatalf("out[%d] = %v; want ~%v", i, out[i], want)
		}
	}
	for i := 30; i < 40; i++ {
		if out[i] != 0 {
			t.Fatalf("out[%d] = %v; want zero padding", i, out[i])
		}
	}

	// End of window tears playback down and rewinds to the window
	// start. The teardown finishes slightly after IsPlaying flips, so
	// poll for the settled state.
	waitForStopped(t, s)
	deadline := time.Now().Add(2 * time.Second)
	for math.Abs(s.Position()-0.2) > 1e-9 || s.OutputLevel() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("after window end: Position() = %v, OutputLevel() = %v; want 0.2, 0",
				s.Position(), s.OutputLevel())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPauseKeepsCursorStopRewinds(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(testConfig(), backend)
	loadRampTrack(t, s)

	if err := s.Trim(0.1, 0.9); err != nil {
		t.Fatalf("Trim() error: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	backend.emit(30)

	s.Pause()
	if s.IsPlaying() {
		t.Fatal("IsPlaying() = true after Pause")
	}
	if math.Abs(s.Position()-0.4) > 1e-9 {
		t.Errorf("Position() = %v after Pause; want 0.4", s.Position())
	}

	// Resume continues from the paused position.
	if err := s.Play(); err != nil {
		t.Fatalf("Play() after Pause error: %v", err)
	}
	out := backend.emit(10)
	want := float32(40) / 200.0
	if math.Abs(float64(out[0]-want)) > 1e-3 {
		t.Errorf("resumed out[0] = %v; want ~%v", out[0], want)
	}

	s.Stop()
	if math.Abs(s.Position()-0.1) > 1e-9 {
		t.Errorf("Position() = %v after Stop; want window start 0.1", s.Position())
	}
}

func TestSeekClamps(t *testing.T) {
	s := NewSession(testConfig(), &fakeBackend{})

	if err := s.Seek(0.5); err == nil {
		t.Error("Seek without a track succeeded; want error")
	}

	loadRampTrack(t, s)
	if err := s.Trim(0.2, 0.8); err != nil {
		t.Fatalf("Trim() error: %v", err)
	}

	if err := s.Seek(-5); err != nil {
		t.Fatalf("Seek(-5) error: %v", err)
	}
	if math.Abs(s.Position()-0.2) > 1e-9 {
		t.Errorf("Position() = %v after Seek(-5); want 0.2", s.Position())
	}

	if err := s.Seek(50); err != nil {
		t.Fatalf("Seek(50) error: %v", err)
	}
	if math.Abs(s.Position()-0.8) > 1e-9 {
		t.Errorf("Position() = %v after Seek(50); want 0.8", s.Position())
	}

	if err := s.Seek(0.5); err != nil {
		t.Fatalf("Seek(0.5) error: %v", err)
	}
	if math.Abs(s.Position()-0.5) > 1e-9 {
		t.Errorf("Position() = %v after Seek(0.5); want 0.5", s.Position())
	}
}

func TestVolumeScalesEmission(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(testConfig(), backend)
	loadRampTrack(t, s)

	s.SetVolume(0.5)
	if s.Volume() != 0.5 {
		t.Errorf("Volume() = %v; want 0.5", s.Volume())
	}

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	defer s.Stop()

	out := backend.emit(40)
	for i := 10; i < 40; i += 10 {
		want := float32(i) / 200.0 * 0.5
		if math.Abs(float64(out[i]-want)) > 1e-3 {
			t.Fatalf("out[%d] = %v at half gain; want ~%v", i, out[i], want)
		}
	}
}

func TestVolumeClamped(t *testing.T) {
	s := NewSession(testConfig(), &fakeBackend{})

	s.SetVolume(-1)
	if s.Volume() != 0 {
		t.Errorf("Volume() = %v after SetVolume(-1); want 0", s.Volume())
	}
	s.SetVolume(2)
	if s.Volume() != 1 {
		t.Errorf("Volume() = %v after SetVolume(2); want 1", s.Volume())
	}
}

func TestPlayAfterNaturalEndWraps(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(testConfig(), backend)
	loadRampTrack(t, s)

	if err := s.Trim(0.0, 0.2); err != nil {
		t.Fatalf("Trim() error: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	backend.emit(20)
	waitForStopped(t, s)

	// A fresh Play after the window played out starts over.
	if err := s.Play(); err != nil {
		t.Fatalf("Play() after natural end error: %v", err)
	}
	defer s.Stop()

	out := backend.emit(10)
	if math.Abs(float64(out[5]-float32(5)/200.0)) > 1e-3 {
		t.Errorf("out[5] = %v after wrap; want ~%v", out[5], float32(5)/200.0)
	}
}

func TestStreamErrorHaltsPlayback(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(testConfig(), backend)
	loadRampTrack(t, s)

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	s.fail(errors.New("device lost"))
	waitForStopped(t, s)

	if !errors.Is(s.Err(), audio.ErrStreamCallback) {
		t.Errorf("Err() = %v; want ErrStreamCallback", s.Err())
	}
	if s.Track() == nil {
		t.Error("Track() = nil after stream error; track should survive")
	}
}
