package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/omotivaudio/vocalbooth/internal/config"
	"github.com/omotivaudio/vocalbooth/internal/service"
)

// stubBooth records the mix options it was called with; everything else
// is a no-op.
type stubBooth struct {
	mu      sync.Mutex
	mixOpts *service.MixOptions
}

func (b *stubBooth) StartRecording() error                                       { return nil }
func (b *stubBooth) StopRecording() (string, error)                              { return "", nil }
func (b *stubBooth) CancelRecording() error                                      { return nil }
func (b *stubBooth) GetRecordingStatus() service.RecordingStatus                 { return service.RecordingStatus{} }
func (b *stubBooth) LoadTrack(path string) error                                 { return nil }
func (b *stubBooth) LoadSelectedBackingtrack() error                             { return nil }
func (b *stubBooth) SetTrim(startSec, endSec float64) error                      { return nil }
func (b *stubBooth) Play() error                                                 { return nil }
func (b *stubBooth) Pause() error                                                { return nil }
func (b *stubBooth) StopPlayback() error                                         { return nil }
func (b *stubBooth) Seek(seconds float64) error                                  { return nil }
func (b *stubBooth) SetVolume(v float64) error                                   { return nil }
func (b *stubBooth) GetPlaybackStatus() service.PlaybackStatus                   { return service.PlaybackStatus{} }
func (b *stubBooth) ListTakes() ([]service.TakeInfo, error)                      { return nil, nil }
func (b *stubBooth) GetConfig() *config.Config                                   { return config.Default() }
func (b *stubBooth) GetLastError() string                                        { return "" }
func (b *stubBooth) ListBackingtracks() ([]service.BackingtrackInfo, error)      { return nil, nil }
func (b *stubBooth) GetSelectedBackingtrack() (*service.BackingtrackInfo, error) { return nil, nil }
func (b *stubBooth) SetSelectedBackingtrack(name string) error                   { return nil }
func (b *stubBooth) ConvertTakeToBackingtrack(takeName string) error             { return nil }
func (b *stubBooth) ImportBackingtrack(src string, rm []string) error            { return nil }
func (b *stubBooth) Shutdown()                                                   {}

func (b *stubBooth) MixTake(backingPath, takePath string, opts service.MixOptions) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mixOpts = &opts
	return "/tmp/mix.wav", nil
}

func postMix(t *testing.T, booth *stubBooth, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(booth, config.Default(), "0")
	req := httptest.NewRequest("POST", "/api/mix", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.handleMix(rec, req)
	return rec
}

func TestMixOmittedGainsDefaultToUnity(t *testing.T) {
	booth := &stubBooth{}
	rec := postMix(t, booth, `{"backing": "song.wav", "take": "take.wav"}`)

	if rec.Code != 200 {
		t.Fatalf("status = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if booth.mixOpts == nil {
		t.Fatal("MixTake was not called")
	}
	if booth.mixOpts.BackingGain != 1.0 || booth.mixOpts.TakeGain != 1.0 {
		t.Errorf("gains = %v/%v for omitted fields; want 1/1",
			booth.mixOpts.BackingGain, booth.mixOpts.TakeGain)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success = %v; want true", resp["success"])
	}
}

func TestMixExplicitGainsPassedThrough(t *testing.T) {
	booth := &stubBooth{}
	rec := postMix(t, booth, `{"backing": "song.wav", "take": "take.wav", "backing_gain": 0.5, "take_gain": 0}`)

	if rec.Code != 200 {
		t.Fatalf("status = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if booth.mixOpts == nil {
		t.Fatal("MixTake was not called")
	}
	if booth.mixOpts.BackingGain != 0.5 || booth.mixOpts.TakeGain != 0.0 {
		t.Errorf("gains = %v/%v; want 0.5/0",
			booth.mixOpts.BackingGain, booth.mixOpts.TakeGain)
	}
}

func TestMixMissingPathsRejected(t *testing.T) {
	booth := &stubBooth{}
	rec := postMix(t, booth, `{"take": "take.wav"}`)

	if rec.Code != 400 {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if booth.mixOpts != nil {
		t.Error("MixTake called despite missing backing path")
	}
}
