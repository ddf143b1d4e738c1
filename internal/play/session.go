package play

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/config"
)

// Session streams a loaded Track to an output device, honoring gain
// and an optional trim window, and exposes position and a metering
// level to a poller.
//
// The playback cursor is the only state shared with the device
// callback thread; every access goes through one short-held mutex.
type Session struct {
	cfg     *config.Config
	backend audio.Backend

	mu      sync.Mutex // control state: track, stream, playing
	track   *Track
	stream  audio.Stream
	playing bool
	stopMon chan struct{}
	lastErr error

	cursorMu  sync.Mutex // cursor and trim window, in frames
	cursor    int
	trimStart int
	trimEnd   int

	levelMu sync.Mutex
	level   float64

	volumeBits atomic.Uint64 // math.Float64bits of the session gain

	finished chan struct{}
}

// NewSession creates a playback session on the given backend.
func NewSession(cfg *config.Config, backend audio.Backend) *Session {
	s := &Session{
		cfg:     cfg,
		backend: backend,
	}
	s.volumeBits.Store(math.Float64bits(1.0))
	return s
}

// Load decodes the file at path into memory and makes it the current
// track. Any active playback is stopped first; the trim window resets
// to the whole track and the cursor to its start.
func (s *Session) Load(path string) error {
	track, err := LoadTrack(path)
	if err != nil {
		return err
	}

	s.Stop()

	s.mu.Lock()
	s.track = track
	s.lastErr = nil
	s.mu.Unlock()

	s.cursorMu.Lock()
	s.trimStart = 0
	s.trimEnd = track.Frames()
	s.cursor = 0
	s.cursorMu.Unlock()

	slog.Info("Track loaded",
		"path", path,
		"duration", fmt.Sprintf("%.2fs", track.Duration()),
		"rate", track.SampleRate,
		"channels", track.Channels)
	return nil
}

// Trim restricts subsequent playback to [startSec, endSec) and moves
// the cursor to the window start. endSec <= 0 means "to end".
func (s *Session) Trim(startSec, endSec float64) error {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()
	if track == nil {
		return fmt.Errorf("no track loaded")
	}

	duration := track.Duration()
	if endSec <= 0 || endSec > duration {
		endSec = duration
	}
	if startSec < 0 || startSec >= endSec {
		return fmt.Errorf("invalid trim range [%.2f, %.2f) for %.2fs track", startSec, endSec, duration)
	}

	startFrame := int(startSec * float64(track.SampleRate))
	endFrame := int(endSec * float64(track.SampleRate))
	if endFrame > track.Frames() {
		endFrame = track.Frames()
	}

	s.cursorMu.Lock()
	s.trimStart = startFrame
	s.trimEnd = endFrame
	s.cursor = startFrame
	s.cursorMu.Unlock()

	slog.Debug("Trim window set", "start", startSec, "end", endSec)
	return nil
}

// TrimWindow returns the active trim window in seconds.
func (s *Session) TrimWindow() (startSec, endSec float64) {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()
	if track == nil {
		return 0, 0
	}

	s.cursorMu.Lock()
	start, end := s.trimStart, s.trimEnd
	s.cursorMu.Unlock()

	rate := float64(track.SampleRate)
	return float64(start) / rate, float64(end) / rate
}

// Play opens an output stream and starts emitting the current track
// from the cursor. Resuming after Pause continues from the paused
// position; after Stop or natural end it starts at the window start.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.track == nil {
		return fmt.Errorf("no track loaded")
	}
	if s.playing {
		return nil
	}

	// A cursor parked at the window end means the last run played out;
	// wrap to the window start instead of emitting pure padding.
	s.cursorMu.Lock()
	if s.cursor >= s.trimEnd {
		s.cursor = s.trimStart
	}
	s.cursorMu.Unlock()

	if err := s.backend.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio backend: %w", err)
	}

	params := audio.StreamParams{
		DeviceName:     s.cfg.Audio.OutputDevice,
		SampleRate:     s.track.SampleRate,
		Channels:       s.track.Channels,
		FramesPerChunk: s.cfg.Audio.ChunkFrames,
		OnError:        s.fail,
	}

	s.finished = make(chan struct{}, 1)
	stream, err := s.backend.OpenOutput(params, s.onOutput)
	if err != nil {
		s.backend.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		s.backend.Terminate()
		return fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	s.stream = stream
	s.playing = true
	s.stopMon = make(chan struct{})
	go s.monitor(s.stopMon, s.finished)

	slog.Info("Playback started", "track", s.track.Path)
	return nil
}

// onOutput runs on the device's real-time thread. It copies the next
// window-bounded slice of the track into out at the current gain,
// advances the cursor, zero-pads a short final chunk and signals end
// of stream. Only the cursor mutex is taken, for a read-modify-write.
func (s *Session) onOutput(out []float32) {
	track := s.track
	ch := track.Channels
	framesReq := len(out) / ch
	gain := float32(s.Volume())

	s.cursorMu.Lock()
	start := s.cursor
	end := start + framesReq
	if end > s.trimEnd {
		end = s.trimEnd
	}
	if start > end {
		start = end
	}
	s.cursor = end
	windowEnd := s.trimEnd
	s.cursorMu.Unlock()

	n := (end - start) * ch
	base := start * ch
	for i := 0; i < n; i++ {
		out[i] = track.Samples[base+i] * gain
	}
	for i := n; i < len(out); i++ {
		out[i] = 0
	}

	s.setLevel(audio.RMSLevel(out[:n]))

	if end >= windowEnd {
		select {
		case s.finished <- struct{}{}:
		default:
		}
	}
}

// monitor waits for the callback to signal end of stream and tears the
// stream down from a regular goroutine; the callback itself never
// closes the device.
func (s *Session) monitor(cancel <-chan struct{}, finished <-chan struct{}) {
	select {
	case <-cancel:
		return
	case <-finished:
	}

	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.stream = nil
	s.playing = false
	s.mu.Unlock()

	s.teardown(stream)

	// Natural end of stream rewinds to the window start. Manual stop
	// does the same; pause is the one path that keeps the position.
	s.cursorMu.Lock()
	s.cursor = s.trimStart
	s.cursorMu.Unlock()
	s.setLevel(0.0)

	slog.Info("Playback finished")
}

// Pause stops the output stream without moving the cursor, so Play
// resumes from the same point.
func (s *Session) Pause() {
	s.halt(false)
}

// Stop stops the output stream and resets the cursor to the window
// start.
func (s *Session) Stop() {
	s.halt(true)
}

func (s *Session) halt(rewind bool) {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.stream = nil
	s.playing = false
	close(s.stopMon)
	s.mu.Unlock()

	s.teardown(stream)

	if rewind {
		s.cursorMu.Lock()
		s.cursor = s.trimStart
		s.cursorMu.Unlock()
	}
	s.setLevel(0.0)
}

func (s *Session) teardown(stream audio.Stream) {
	if stream != nil {
		if err := stream.Stop(); err != nil {
			slog.Debug("Playback stream stop reported error", "error", err)
		}
		stream.Close()
	}
	s.backend.Terminate()
}

// Seek clamps the requested position into the active window and moves
// the cursor there. Safe while playing or paused.
func (s *Session) Seek(seconds float64) error {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()
	if track == nil {
		return fmt.Errorf("no track loaded")
	}

	frame := int(seconds * float64(track.SampleRate))

	s.cursorMu.Lock()
	if frame < s.trimStart {
		frame = s.trimStart
	}
	if frame > s.trimEnd {
		frame = s.trimEnd
	}
	s.cursor = frame
	s.cursorMu.Unlock()
	return nil
}

// SetVolume sets the session gain, clamped to [0, 1]. The new gain
// applies from the next emitted chunk; there is no ramp.
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.volumeBits.Store(math.Float64bits(v))
}

// Volume returns the current session gain.
func (s *Session) Volume() float64 {
	return math.Float64frombits(s.volumeBits.Load())
}

// Position returns the cursor position in seconds.
func (s *Session) Position() float64 {
	s.mu.Lock()
	track := s.track
	s.mu.Unlock()
	if track == nil {
		return 0
	}

	s.cursorMu.Lock()
	cursor := s.cursor
	s.cursorMu.Unlock()
	return float64(cursor) / float64(track.SampleRate)
}

// OutputLevel returns the level estimate of the most recently emitted
// chunk, or 0.0 when not playing.
func (s *Session) OutputLevel() float64 {
	s.levelMu.Lock()
	defer s.levelMu.Unlock()
	return s.level
}

func (s *Session) setLevel(v float64) {
	s.levelMu.Lock()
	s.level = v
	s.levelMu.Unlock()
}

// IsPlaying reports whether an output stream is currently running.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Track returns the currently loaded track, or nil.
func (s *Session) Track() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// Duration returns the loaded track's length in seconds, or 0.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return 0
	}
	return s.track.Duration()
}

// fail records an asynchronous stream error and stops playback. The
// loaded track is left intact; a fresh Play is required afterwards.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.lastErr == nil {
		s.lastErr = fmt.Errorf("%w: %v", audio.ErrStreamCallback, err)
	}
	s.mu.Unlock()

	slog.Error("Playback stream error", "error", err)
	go s.halt(true)
}

// Err returns the stream error that stopped playback, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
