package audio

// Device describes an audio endpoint exposed by the host.
type Device struct {
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// StreamParams configure an input or output stream.
type StreamParams struct {
	// DeviceName selects a device by case-insensitive substring match.
	// Empty selects the host's default device for the stream direction.
	DeviceName     string
	SampleRate     int
	Channels       int
	FramesPerChunk int

	// OnError receives failures that surface outside the callback's
	// normal return path. Errors must never unwind through the audio
	// callback itself; the backend converts them to values and calls
	// this hook from a non-realtime goroutine.
	OnError func(error)
}

// InputFunc receives each captured chunk of interleaved samples. The
// slice is only valid for the duration of the call.
type InputFunc func(in []float32)

// OutputFunc fills each requested chunk of interleaved samples. It runs
// on a real-time thread and must not block.
type OutputFunc func(out []float32)

// Stream is a live device stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Backend abstracts the host audio layer so sessions can be exercised
// in tests without hardware.
type Backend interface {
	Initialize() error
	Terminate() error
	Devices() ([]Device, error)
	OpenInput(p StreamParams, fn InputFunc) (Stream, error)
	OpenOutput(p StreamParams, fn OutputFunc) (Stream, error)
}
