package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/capture"
	"github.com/omotivaudio/vocalbooth/internal/config"
	"github.com/omotivaudio/vocalbooth/internal/mix"
	"github.com/omotivaudio/vocalbooth/internal/play"
	"gopkg.in/yaml.v3"
)

// Booth represents the core vocal booth service interface
type Booth interface {
	// Recording operations
	StartRecording() error
	StopRecording() (string, error)
	CancelRecording() error
	GetRecordingStatus() RecordingStatus

	// Playback operations
	LoadTrack(path string) error
	LoadSelectedBackingtrack() error
	SetTrim(startSec, endSec float64) error
	Play() error
	Pause() error
	StopPlayback() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	GetPlaybackStatus() PlaybackStatus

	// Mixing operations
	MixTake(backingPath, takePath string, opts MixOptions) (string, error)

	// Information operations
	ListTakes() ([]TakeInfo, error)
	GetConfig() *config.Config
	GetLastError() string

	// Backing track operations
	ListBackingtracks() ([]BackingtrackInfo, error)
	GetSelectedBackingtrack() (*BackingtrackInfo, error)
	SetSelectedBackingtrack(name string) error
	ConvertTakeToBackingtrack(takeName string) error
	ImportBackingtrack(srcPath string, removed []string) error

	// Shutdown releases any active audio streams.
	Shutdown()
}

// RecordingStatus describes the current capture state
type RecordingStatus struct {
	Status     capture.Status       `json:"status"`
	Session    *capture.SessionInfo `json:"session,omitempty"`
	Level      float64              `json:"level"`
	Elapsed    float64              `json:"elapsed_seconds"`
	Overflowed bool                 `json:"overflowed"`
}

// PlaybackStatus describes the current playback state
type PlaybackStatus struct {
	Playing   bool    `json:"playing"`
	Track     string  `json:"track,omitempty"`
	Position  float64 `json:"position_seconds"`
	Duration  float64 `json:"duration_seconds"`
	TrimStart float64 `json:"trim_start_seconds"`
	TrimEnd   float64 `json:"trim_end_seconds"`
	Volume    float64 `json:"volume"`
	Level     float64 `json:"level"`
}

// MixOptions contains mix export configuration
type MixOptions struct {
	BackingGain float64
	TakeGain    float64
	OutputName  string
}

// TakeInfo contains information about a recorded take file
type TakeInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"size_human"`
	ModTime      time.Time `json:"mod_time"`
	ModTimeHuman string    `json:"mod_time_human"`
}

// BackingtrackInfo contains information about a backing track file
type BackingtrackInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"size_human"`
	ModTime      time.Time `json:"mod_time"`
	ModTimeHuman string    `json:"mod_time_human"`
	Extension    string    `json:"extension"`
	RemovedStems []string  `json:"removed_stems,omitempty"`
	IsSelected   bool      `json:"is_selected"`
}

// BackingtrackConfig represents the backing track selection stored in conf.yaml
type BackingtrackConfig struct {
	SelectedBackingtrack string `yaml:"selected_backingtrack"`
	LastUpdated          string `yaml:"last_updated"`
}

// BoothService is the main service implementation
type BoothService struct {
	cfg      *config.Config
	recorder *capture.Session
	playback *play.Session
	mixer    *mix.Exporter

	// Backing track management
	backingtrackMutex sync.RWMutex

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// New creates a new vocal booth service instance. The backend is shared
// between the capture and playback sessions; only one of them opens a
// stream at a time.
func New(cfg *config.Config, backend audio.Backend) Booth {
	return &BoothService{
		cfg:      cfg,
		recorder: capture.New(cfg, backend),
		playback: play.NewSession(cfg, backend),
		mixer:    mix.New(cfg),
	}
}

// StartRecording begins capturing from the configured input device
func (s *BoothService) StartRecording() error {
	slog.Debug("Service.StartRecording called")
	s.clearLastError()

	// Recording and playback share the audio device.
	s.playback.Stop()

	err := s.recorder.Start()
	if err != nil {
		slog.Error("Service.StartRecording failed", "error", err)
		s.setLastError(fmt.Sprintf("Failed to start recording: %v", err))
	}
	return err
}

// StopRecording stops the current capture session and persists the take
func (s *BoothService) StopRecording() (string, error) {
	path, err := s.recorder.Stop(true)
	if err != nil {
		s.setLastError(fmt.Sprintf("Failed to stop recording: %v", err))
		return "", err
	}
	s.clearLastError()
	return path, nil
}

// CancelRecording stops the current capture session and discards the audio
func (s *BoothService) CancelRecording() error {
	_, err := s.recorder.Stop(false)
	if err != nil {
		s.setLastError(fmt.Sprintf("Failed to cancel recording: %v", err))
	}
	return err
}

// GetRecordingStatus returns the current capture state
func (s *BoothService) GetRecordingStatus() RecordingStatus {
	status, info := s.recorder.Status()
	return RecordingStatus{
		Status:     status,
		Session:    info,
		Level:      s.recorder.Level(),
		Elapsed:    s.recorder.Elapsed().Seconds(),
		Overflowed: s.recorder.Overflowed(),
	}
}

// LoadTrack loads an audio file for playback
func (s *BoothService) LoadTrack(path string) error {
	s.clearLastError()
	if err := s.playback.Load(path); err != nil {
		s.setLastError(fmt.Sprintf("Failed to load track: %v", err))
		return err
	}
	return nil
}

// LoadSelectedBackingtrack loads the backing track marked as selected
func (s *BoothService) LoadSelectedBackingtrack() error {
	bt, err := s.GetSelectedBackingtrack()
	if err != nil {
		return err
	}
	if bt == nil {
		return fmt.Errorf("no backing track selected")
	}
	return s.LoadTrack(bt.Path)
}

// SetTrim restricts playback to a window of the loaded track
func (s *BoothService) SetTrim(startSec, endSec float64) error {
	if err := s.playback.Trim(startSec, endSec); err != nil {
		s.setLastError(fmt.Sprintf("Failed to set trim window: %v", err))
		return err
	}
	return nil
}

// Play starts or resumes playback of the loaded track
func (s *BoothService) Play() error {
	s.clearLastError()
	if err := s.playback.Play(); err != nil {
		slog.Error("Service.Play failed", "error", err)
		s.setLastError(fmt.Sprintf("Failed to start playback: %v", err))
		return err
	}
	return nil
}

// Pause halts playback keeping the current position
func (s *BoothService) Pause() error {
	s.playback.Pause()
	return nil
}

// StopPlayback halts playback and rewinds to the trim window start
func (s *BoothService) StopPlayback() error {
	s.playback.Stop()
	return nil
}

// Seek moves the playback position
func (s *BoothService) Seek(seconds float64) error {
	if err := s.playback.Seek(seconds); err != nil {
		s.setLastError(fmt.Sprintf("Failed to seek: %v", err))
		return err
	}
	return nil
}

// SetVolume adjusts the playback gain
func (s *BoothService) SetVolume(v float64) error {
	s.playback.SetVolume(v)
	return nil
}

// GetPlaybackStatus returns the current playback state
func (s *BoothService) GetPlaybackStatus() PlaybackStatus {
	status := PlaybackStatus{
		Playing:  s.playback.IsPlaying(),
		Position: s.playback.Position(),
		Duration: s.playback.Duration(),
		Volume:   s.playback.Volume(),
		Level:    s.playback.OutputLevel(),
	}
	if t := s.playback.Track(); t != nil {
		status.Track = t.Path
		status.TrimStart, status.TrimEnd = s.playback.TrimWindow()
	}
	return status
}

// MixTake mixes a recorded take over a backing track and writes the
// result to the exports directory. Returns the output path.
func (s *BoothService) MixTake(backingPath, takePath string, opts MixOptions) (string, error) {
	s.clearLastError()

	backing, err := play.LoadTrack(backingPath)
	if err != nil {
		s.setLastError(fmt.Sprintf("Failed to load backing track: %v", err))
		return "", err
	}
	take, err := play.LoadTrack(takePath)
	if err != nil {
		s.setLastError(fmt.Sprintf("Failed to load take: %v", err))
		return "", err
	}

	name := opts.OutputName
	if name == "" {
		name = MixFileName(backingPath)
	} else {
		name = cleanFileName(strings.TrimSuffix(name, filepath.Ext(name))) + ".wav"
	}
	outPath := filepath.Join(s.cfg.Output.ExportsDirectory, name)

	slog.Info("Mixing take over backing track",
		"backing", filepath.Base(backingPath),
		"take", filepath.Base(takePath),
		"backing_gain", opts.BackingGain,
		"take_gain", opts.TakeGain,
		"output", outPath)

	if err := s.mixer.Export(backing, take, opts.BackingGain, opts.TakeGain, outPath); err != nil {
		s.setLastError(fmt.Sprintf("Failed to export mix: %v", err))
		return "", err
	}
	return outPath, nil
}

// ListTakes returns recorded takes sorted by modification time, newest first
func (s *BoothService) ListTakes() ([]TakeInfo, error) {
	takesDir := s.cfg.Output.TakesDirectory

	files, err := os.ReadDir(takesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read takes directory: %w", err)
	}

	var takes []TakeInfo
	for _, file := range files {
		if file.IsDir() || !IsTakeFile(file.Name()) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			slog.Warn("Failed to get file info", "file", file.Name(), "error", err)
			continue
		}

		takes = append(takes, TakeInfo{
			Name:         file.Name(),
			Path:         filepath.Join(takesDir, file.Name()),
			Size:         info.Size(),
			SizeHuman:    formatBytes(info.Size()),
			ModTime:      info.ModTime(),
			ModTimeHuman: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(takes, func(i, j int) bool {
		return takes[i].ModTime.After(takes[j].ModTime)
	})

	return takes, nil
}

// GetConfig returns the active configuration
func (s *BoothService) GetConfig() *config.Config {
	return s.cfg
}

// GetLastError returns the most recent operation error, if any
func (s *BoothService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

// ListBackingtracks returns available backing tracks, selected first
func (s *BoothService) ListBackingtracks() ([]BackingtrackInfo, error) {
	backingDir := s.cfg.Output.BackingtracksDirectory

	files, err := os.ReadDir(backingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backingtracks directory: %w", err)
	}

	selected, _ := s.getSelectedBackingtrackName()

	supportedExts := map[string]bool{
		".flac": true,
		".wav":  true,
	}

	var backingtracks []BackingtrackInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Name()))
		if !supportedExts[ext] {
			continue
		}

		info, err := file.Info()
		if err != nil {
			slog.Warn("Failed to get file info", "file", file.Name(), "error", err)
			continue
		}

		backingtracks = append(backingtracks, BackingtrackInfo{
			Name:         file.Name(),
			Path:         filepath.Join(backingDir, file.Name()),
			Size:         info.Size(),
			SizeHuman:    formatBytes(info.Size()),
			ModTime:      info.ModTime(),
			ModTimeHuman: info.ModTime().Format("2006-01-02 15:04:05"),
			Extension:    strings.TrimPrefix(ext, "."),
			RemovedStems: ParseStemRemoval(file.Name()),
			IsSelected:   file.Name() == selected,
		})
	}

	// Newest first, selected one goes to top
	sort.Slice(backingtracks, func(i, j int) bool {
		if backingtracks[i].IsSelected {
			return true
		}
		if backingtracks[j].IsSelected {
			return false
		}
		return backingtracks[i].ModTime.After(backingtracks[j].ModTime)
	})

	return backingtracks, nil
}

// GetSelectedBackingtrack returns the currently selected backing track
func (s *BoothService) GetSelectedBackingtrack() (*BackingtrackInfo, error) {
	backingtracks, err := s.ListBackingtracks()
	if err != nil {
		return nil, err
	}

	for _, bt := range backingtracks {
		if bt.IsSelected {
			return &bt, nil
		}
	}

	return nil, nil // No backing track selected
}

// SetSelectedBackingtrack sets the selected backing track
func (s *BoothService) SetSelectedBackingtrack(name string) error {
	s.backingtrackMutex.Lock()
	defer s.backingtrackMutex.Unlock()

	filePath := filepath.Join(s.cfg.Output.BackingtracksDirectory, name)
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("backing track file not found: %s", name)
	}

	return s.saveBackingtrackConfig(&BackingtrackConfig{
		SelectedBackingtrack: name,
		LastUpdated:          time.Now().Format(time.RFC3339),
	})
}

// ConvertTakeToBackingtrack moves a recorded take to the backingtracks
// directory and selects it
func (s *BoothService) ConvertTakeToBackingtrack(takeName string) error {
	s.backingtrackMutex.Lock()
	defer s.backingtrackMutex.Unlock()

	srcPath := filepath.Join(s.cfg.Output.TakesDirectory, takeName)
	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("take file not found: %s", takeName)
	}

	backingDir := s.cfg.Output.BackingtracksDirectory
	if err := os.MkdirAll(backingDir, 0755); err != nil {
		return fmt.Errorf("failed to create backingtracks directory: %w", err)
	}

	destPath := filepath.Join(backingDir, takeName)
	if err := os.Rename(srcPath, destPath); err != nil {
		return fmt.Errorf("failed to move take to backingtracks: %w", err)
	}

	slog.Info("Converted take to backing track", "take", takeName, "dest", destPath)

	return s.saveBackingtrackConfig(&BackingtrackConfig{
		SelectedBackingtrack: takeName,
		LastUpdated:          time.Now().Format(time.RFC3339),
	})
}

// ImportBackingtrack copies an external audio file into the
// backingtracks directory. When removed instruments are given the file
// is renamed to the stem-removal convention.
func (s *BoothService) ImportBackingtrack(srcPath string, removed []string) error {
	s.backingtrackMutex.Lock()
	defer s.backingtrackMutex.Unlock()

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(srcPath))
	if ext != ".wav" && ext != ".flac" {
		return fmt.Errorf("unsupported backing track format: %s", ext)
	}

	name := filepath.Base(srcPath)
	if len(removed) > 0 {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		name = StemRemovalFileName(cleanFileName(base), removed, ext)
	}

	backingDir := s.cfg.Output.BackingtracksDirectory
	if err := os.MkdirAll(backingDir, 0755); err != nil {
		return fmt.Errorf("failed to create backingtracks directory: %w", err)
	}

	destPath := filepath.Join(backingDir, name)
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backing track: %w", err)
	}

	slog.Info("Imported backing track", "source", srcPath, "dest", destPath)
	return nil
}

// Shutdown stops any active capture or playback
func (s *BoothService) Shutdown() {
	if status, _ := s.recorder.Status(); status == capture.StatusRecording {
		if _, err := s.recorder.Stop(true); err != nil {
			slog.Warn("Failed to stop recording during shutdown", "error", err)
		}
	}
	s.playback.Stop()
}

// Helper methods for backing track configuration

func (s *BoothService) getBackingtrackConfigPath() string {
	return filepath.Join(s.cfg.Output.BackingtracksDirectory, "conf.yaml")
}

func (s *BoothService) getSelectedBackingtrackName() (string, error) {
	data, err := os.ReadFile(s.getBackingtrackConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil // No config file = no selection
		}
		return "", fmt.Errorf("failed to read backing track config: %w", err)
	}

	var btConfig BackingtrackConfig
	if err := yaml.Unmarshal(data, &btConfig); err != nil {
		return "", fmt.Errorf("failed to parse backing track config: %w", err)
	}

	return btConfig.SelectedBackingtrack, nil
}

func (s *BoothService) saveBackingtrackConfig(btConfig *BackingtrackConfig) error {
	configPath := s.getBackingtrackConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(btConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal backing track config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backing track config: %w", err)
	}

	return nil
}

func (s *BoothService) setLastError(msg string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = msg
}

func (s *BoothService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
