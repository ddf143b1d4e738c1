package audio

import "errors"

// Error taxonomy shared by capture, playback and export. Sentinels so
// callers can branch with errors.Is.
var (
	// ErrDeviceUnavailable means no matching device was found or the
	// device could not be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrDecode means a source file is unreadable or corrupt.
	ErrDecode = errors.New("cannot decode audio file")

	// ErrWrite means an export failed at the I/O level.
	ErrWrite = errors.New("cannot write audio file")

	// ErrCaptureOverflow is a warning: the capture buffer reached its
	// capacity bound and further chunks are being dropped.
	ErrCaptureOverflow = errors.New("capture buffer full, dropping audio")

	// ErrStreamCallback wraps a runtime failure inside an audio
	// callback. The owning session stops; nothing is retried.
	ErrStreamCallback = errors.New("audio stream callback failure")

	// ErrNothingRecorded is returned when a capture session stops with
	// no captured chunks to persist.
	ErrNothingRecorded = errors.New("nothing recorded")
)
