package capture

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/codec"
	"github.com/omotivaudio/vocalbooth/internal/config"
)

// Status represents the current state of a capture session
type Status string

const (
	StatusStandby   Status = "STANDBY"
	StatusRecording Status = "RECORDING"
	StatusStopping  Status = "STOPPING"
	StatusError     Status = "ERROR"
)

// stopTimeout bounds how long Stop waits for the stream to acknowledge
// shutdown before giving up on it.
const stopTimeout = 5 * time.Second

// SessionInfo contains information about the current take
type SessionInfo struct {
	ID         string    `json:"id"`
	StartTime  time.Time `json:"start_time"`
	OutputFile string    `json:"output_file"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
}

// TakeFileName returns the canonical file name for a recorded take.
func TakeFileName(t time.Time) string {
	return fmt.Sprintf("vocal_take_%d_omotiv.wav", t.Unix())
}

// Session drives one input device and accumulates captured audio for
// persistence, publishing an instantaneous input level while it runs.
// A session is reusable: Start may be called again after Stop.
type Session struct {
	cfg     *config.Config
	backend audio.Backend

	mu        sync.Mutex
	status    Status
	info      *SessionInfo
	stream    audio.Stream
	watchStop chan struct{}
	lastErr   error

	bufMu  sync.Mutex
	buffer *audio.SampleBuffer

	levelMu sync.Mutex
	level   float64

	overflowed atomic.Bool
}

// New creates a capture session on the given backend.
func New(cfg *config.Config, backend audio.Backend) *Session {
	return &Session{
		cfg:     cfg,
		backend: backend,
		status:  StatusStandby,
	}
}

// Start opens the configured input device and begins capturing in the
// background. It returns immediately; audio arrives on the stream's
// callback thread. Fails with audio.ErrDeviceUnavailable when the
// device cannot be opened.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRecording || s.status == StatusStopping {
		return fmt.Errorf("capture already in progress")
	}

	if err := s.backend.Initialize(); err != nil {
		s.status = StatusError
		return fmt.Errorf("failed to initialize audio backend: %w", err)
	}

	s.bufMu.Lock()
	s.buffer = audio.NewSampleBuffer(s.cfg.MaxChunks())
	s.bufMu.Unlock()
	s.overflowed.Store(false)
	s.lastErr = nil
	s.setLevel(0.0)

	params := audio.StreamParams{
		DeviceName:     s.cfg.Audio.InputDevice,
		SampleRate:     s.cfg.Audio.SampleRate,
		Channels:       s.cfg.Audio.Channels,
		FramesPerChunk: s.cfg.Audio.ChunkFrames,
		OnError:        s.fail,
	}

	stream, err := s.backend.OpenInput(params, s.onChunk)
	if err != nil {
		s.backend.Terminate()
		s.status = StatusError
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		s.backend.Terminate()
		s.status = StatusError
		return fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	now := time.Now()
	s.info = &SessionInfo{
		ID:         uuid.NewString(),
		StartTime:  now,
		OutputFile: filepath.Join(s.cfg.Output.TakesDirectory, TakeFileName(now)),
		SampleRate: s.cfg.Audio.SampleRate,
		Channels:   s.cfg.Audio.Channels,
	}
	s.stream = stream
	s.status = StatusRecording
	s.watchStop = make(chan struct{})

	maxDuration := time.Duration(s.cfg.Capture.MaxDurationSeconds) * time.Second
	go s.watchdog(s.watchStop, maxDuration)

	slog.Info("Capture started",
		"session", s.info.ID,
		"output", s.info.OutputFile,
		"rate", s.info.SampleRate,
		"channels", s.info.Channels,
		"max_duration", maxDuration)
	return nil
}

// onChunk runs on the stream's callback thread for every delivered
// chunk. The incoming slice is reused by the device layer, so it is
// copied before buffering.
func (s *Session) onChunk(in []float32) {
	samples := make([]float32, len(in))
	copy(samples, in)

	s.setLevel(audio.RMSLevel(samples))

	chunk := audio.Chunk{
		Samples:    samples,
		Channels:   s.cfg.Audio.Channels,
		SampleRate: s.cfg.Audio.SampleRate,
	}
	// Snapshot the buffer pointer: a straggling callback from a stream
	// that missed the stop timeout must not race Start reassigning it.
	s.bufMu.Lock()
	buffer := s.buffer
	s.bufMu.Unlock()

	if !buffer.Append(chunk) {
		if s.overflowed.CompareAndSwap(false, true) {
			slog.Warn("Capture buffer at capacity, dropping further audio",
				"chunks", buffer.Len(), "error", audio.ErrCaptureOverflow)
		}
	}
}

// watchdog enforces the wall-clock ceiling on a take. The auto-stop
// persists the take and fires at most once; a manual Stop cancels it.
func (s *Session) watchdog(cancel <-chan struct{}, maxDuration time.Duration) {
	timer := time.NewTimer(maxDuration)
	defer timer.Stop()

	select {
	case <-cancel:
		return
	case <-timer.C:
		slog.Info("Capture duration ceiling reached, auto-stopping", "ceiling", maxDuration)
		if _, err := s.Stop(true); err != nil {
			slog.Error("Auto-stop failed", "error", err)
		}
	}
}

// Stop halts the capture loop, closes the device and, when persist is
// true, concatenates the buffered chunks into one WAV file and returns
// its path. With persist false all buffered data is discarded. Returns
// audio.ErrNothingRecorded when persisting an empty capture, and the
// recorded stream error when one arrived before Stop was called.
func (s *Session) Stop(persist bool) (string, error) {
	s.mu.Lock()
	if s.status != StatusRecording {
		s.mu.Unlock()
		return "", fmt.Errorf("no capture in progress")
	}
	s.status = StatusStopping
	stream := s.stream
	s.stream = nil
	close(s.watchStop)
	info := s.info
	// Snapshot the failure state now. An error surfaced by the stream's
	// own Stop below is an ordinary teardown hiccup and must not void a
	// fully captured take.
	failedErr := s.lastErr
	s.mu.Unlock()

	// The stream stop blocks until the callback thread acknowledges;
	// bound the wait so a wedged device cannot hang the caller.
	done := make(chan struct{})
	go func() {
		if err := stream.Stop(); err != nil {
			slog.Debug("Capture stream stop reported error", "error", err)
		}
		stream.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("Capture stream did not stop within timeout", "timeout", stopTimeout)
	}
	s.backend.Terminate()

	s.setLevel(0.0)

	s.mu.Lock()
	if failedErr != nil {
		s.status = StatusError
	} else {
		s.status = StatusStandby
	}
	s.mu.Unlock()

	// The buffer field stays assigned so a straggling callback after a
	// stop timeout never sees a nil buffer; appends land in a drained
	// buffer and are dropped with the take.
	s.bufMu.Lock()
	buffer := s.buffer
	s.bufMu.Unlock()

	if !persist {
		buffer.Discard()
		slog.Info("Capture stopped, take discarded", "session", info.ID)
		return "", nil
	}
	if failedErr != nil {
		buffer.Discard()
		slog.Error("Capture stopped after stream error, take discarded",
			"session", info.ID, "error", failedErr)
		return "", failedErr
	}

	samples := buffer.Concat()
	if len(samples) == 0 {
		slog.Info("Capture stopped with no audio captured", "session", info.ID)
		return "", audio.ErrNothingRecorded
	}

	if err := codec.EncodeWAV(info.OutputFile, samples, info.Channels, info.SampleRate); err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.lastErr = err
		s.mu.Unlock()
		return "", fmt.Errorf("failed to persist take: %w", err)
	}

	slog.Info("Take saved",
		"session", info.ID,
		"output", info.OutputFile,
		"frames", len(samples)/info.Channels,
		"dropped_chunks", buffer.Dropped())
	return info.OutputFile, nil
}

// fail records an asynchronous stream error and stops the session
// without persisting. Called from outside the realtime callback.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.lastErr == nil {
		s.lastErr = fmt.Errorf("%w: %v", audio.ErrStreamCallback, err)
	}
	recording := s.status == StatusRecording
	s.mu.Unlock()

	slog.Error("Capture stream error", "error", err)
	if recording {
		go s.Stop(false)
	}
}

// Status returns the current status and a copy of the session info.
func (s *Session) Status() (Status, *SessionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var infoCopy *SessionInfo
	if s.info != nil {
		c := *s.info
		infoCopy = &c
	}
	return s.status, infoCopy
}

// Level returns the most recent input level estimate in [0, 1].
// Last-write-wins: the poller may miss intermediate values.
func (s *Session) Level() float64 {
	s.levelMu.Lock()
	defer s.levelMu.Unlock()
	return s.level
}

func (s *Session) setLevel(v float64) {
	s.levelMu.Lock()
	s.level = v
	s.levelMu.Unlock()
}

// Elapsed returns how long the current capture has been running, or
// zero when not recording.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRecording || s.info == nil {
		return 0
	}
	return time.Since(s.info.StartTime)
}

// Overflowed reports whether the capacity bound was hit during the
// current or most recent capture.
func (s *Session) Overflowed() bool {
	return s.overflowed.Load()
}

// Err returns the stream error that stopped the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
