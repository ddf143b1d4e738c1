package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/omotivaudio/vocalbooth/internal/config"
	"github.com/omotivaudio/vocalbooth/internal/service"
)

// Server exposes the vocal booth over a local HTTP JSON API
type Server struct {
	service service.Booth
	cfg     *config.Config
	port    string
}

// StatusResponse represents the JSON response for the status endpoint
type StatusResponse struct {
	Recording service.RecordingStatus `json:"recording"`
	Playback  service.PlaybackStatus  `json:"playback"`
	LastError string                  `json:"last_error,omitempty"`
}

// TakesResponse represents the JSON response for the takes endpoint
type TakesResponse struct {
	Takes          []service.TakeInfo `json:"takes"`
	TotalCount     int                `json:"total_count"`
	TakesDirectory string             `json:"takes_directory"`
}

// BackingtracksResponse represents the JSON response for the backing tracks endpoint
type BackingtracksResponse struct {
	Backingtracks          []service.BackingtrackInfo `json:"backingtracks"`
	TotalCount             int                        `json:"total_count"`
	BackingtracksDirectory string                     `json:"backingtracks_directory"`
	SelectedBackingtrack   string                     `json:"selected_backingtrack,omitempty"`
}

// LoadRequest represents a request to load a track for playback
type LoadRequest struct {
	Path string `json:"path"`
}

// TrimRequest represents a request to set the playback trim window
type TrimRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SeekRequest represents a request to move the playback position
type SeekRequest struct {
	Position float64 `json:"position"`
}

// VolumeRequest represents a request to set the playback gain
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

// MixRequest represents a request to export a mix. Gains are pointers
// so an omitted field is distinguishable from an explicit zero; omitted
// gains default to unity.
type MixRequest struct {
	Backing     string   `json:"backing"`
	Take        string   `json:"take"`
	BackingGain *float64 `json:"backing_gain,omitempty"`
	TakeGain    *float64 `json:"take_gain,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
}

// BackingtrackSelectRequest represents a request to select a backing track
type BackingtrackSelectRequest struct {
	Name string `json:"name"`
}

// BackingtrackConvertRequest represents a request to convert a take to a backing track
type BackingtrackConvertRequest struct {
	TakeName string `json:"take_name"`
}

// New creates a new control server around an existing service
func New(svc service.Booth, cfg *config.Config, port string) *Server {
	return &Server{
		service: svc,
		cfg:     cfg,
		port:    port,
	}
}

// Start registers all routes and blocks serving HTTP
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/record/start", s.handleStartRecording)
	mux.HandleFunc("/api/record/stop", s.handleStopRecording)
	mux.HandleFunc("/api/record/cancel", s.handleCancelRecording)
	mux.HandleFunc("/api/play/load", s.handleLoad)
	mux.HandleFunc("/api/play/trim", s.handleTrim)
	mux.HandleFunc("/api/play/start", s.handlePlay)
	mux.HandleFunc("/api/play/pause", s.handlePause)
	mux.HandleFunc("/api/play/stop", s.handleStopPlayback)
	mux.HandleFunc("/api/play/seek", s.handleSeek)
	mux.HandleFunc("/api/play/volume", s.handleVolume)
	mux.HandleFunc("/api/mix", s.handleMix)
	mux.HandleFunc("/api/takes", s.handleTakes)
	mux.HandleFunc("/api/takes/stream/", s.handleTakeStream)
	mux.HandleFunc("/api/backingtracks", s.handleBackingtracks)
	mux.HandleFunc("/api/backingtracks/select", s.handleSelectBackingtrack)
	mux.HandleFunc("/api/backingtracks/convert", s.handleConvertToBackingtrack)

	localIP := getLocalIP()

	slog.Info("Starting vocal booth control server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	return http.ListenAndServe(":"+s.port, mux)
}

// handleStatus returns the combined recording and playback state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := StatusResponse{
		Recording: s.service.GetRecordingStatus(),
		Playback:  s.service.GetPlaybackStatus(),
		LastError: s.service.GetLastError(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.service.StartRecording(); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to start recording: %v", err),
			"operation", "start_recording")
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Recording started",
	})
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path, err := s.service.StopRecording()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to stop recording: %v", err),
			"operation", "stop_recording")
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message":     "Recording stopped",
		"output_file": path,
	})
}

func (s *Server) handleCancelRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.service.CancelRecording(); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to cancel recording: %v", err),
			"operation", "cancel_recording")
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Recording cancelled",
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	var err error
	if req.Path == "" {
		err = s.service.LoadSelectedBackingtrack()
	} else {
		err = s.service.LoadTrack(req.Path)
	}
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to load track: %v", err),
			"operation", "load_track", "path", req.Path)
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message":  "Track loaded",
		"playback": s.service.GetPlaybackStatus(),
	})
}

func (s *Server) handleTrim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req TrimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	if err := s.service.SetTrim(req.Start, req.End); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to set trim window: %v", err),
			"operation", "set_trim", "start", req.Start, "end", req.End)
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Trim window set",
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.service.Play(); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to start playback: %v", err),
			"operation", "play")
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Playback started",
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.service.Pause(); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to pause playback: %v", err))
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Playback paused",
	})
}

func (s *Server) handleStopPlayback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.service.StopPlayback(); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to stop playback: %v", err))
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Playback stopped",
	})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	if err := s.service.Seek(req.Position); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to seek: %v", err),
			"operation", "seek", "position", req.Position)
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message":  "Position updated",
		"playback": s.service.GetPlaybackStatus(),
	})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req VolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	if err := s.service.SetVolume(req.Volume); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to set volume: %v", err))
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": "Volume updated",
	})
}

func (s *Server) handleMix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req MixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}
	if req.Backing == "" || req.Take == "" {
		s.sendErrorResponse(w, http.StatusBadRequest, "backing and take are required")
		return
	}

	backingGain, takeGain := 1.0, 1.0
	if req.BackingGain != nil {
		backingGain = *req.BackingGain
	}
	if req.TakeGain != nil {
		takeGain = *req.TakeGain
	}

	outPath, err := s.service.MixTake(req.Backing, req.Take, service.MixOptions{
		BackingGain: backingGain,
		TakeGain:    takeGain,
		OutputName:  req.OutputName,
	})
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to export mix: %v", err),
			"operation", "mix", "backing", req.Backing, "take", req.Take)
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message":     "Mix exported",
		"output_file": outPath,
	})
}

func (s *Server) handleTakes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	takes, err := s.service.ListTakes()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list takes: %v", err))
		return
	}

	response := TakesResponse{
		Takes:          takes,
		TotalCount:     len(takes),
		TakesDirectory: s.cfg.Output.TakesDirectory,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleTakeStream serves a recorded take file for browser playback
func (s *Server) handleTakeStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := filepath.Base(r.URL.Path)
	if name == "" || name == "." || name == "/" {
		s.sendErrorResponse(w, http.StatusBadRequest, "Take name required")
		return
	}

	path := filepath.Join(s.cfg.Output.TakesDirectory, name)
	if _, err := os.Stat(path); err != nil {
		s.sendErrorResponse(w, http.StatusNotFound,
			fmt.Sprintf("Take not found: %s", name))
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

func (s *Server) handleBackingtracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	backingtracks, err := s.service.ListBackingtracks()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list backing tracks: %v", err))
		return
	}

	response := BackingtracksResponse{
		Backingtracks:          backingtracks,
		TotalCount:             len(backingtracks),
		BackingtracksDirectory: s.cfg.Output.BackingtracksDirectory,
	}
	for _, bt := range backingtracks {
		if bt.IsSelected {
			response.SelectedBackingtrack = bt.Name
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleSelectBackingtrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req BackingtrackSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}
	if req.Name == "" {
		s.sendErrorResponse(w, http.StatusBadRequest, "Backing track name required")
		return
	}

	if err := s.service.SetSelectedBackingtrack(req.Name); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to select backing track: %v", err),
			"operation", "select_backingtrack", "name", req.Name)
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": fmt.Sprintf("Backing track selected: %s", req.Name),
	})
}

func (s *Server) handleConvertToBackingtrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req BackingtrackConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}
	if req.TakeName == "" {
		s.sendErrorResponse(w, http.StatusBadRequest, "Take name required")
		return
	}

	if err := s.service.ConvertTakeToBackingtrack(req.TakeName); err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to convert take: %v", err),
			"operation", "convert_backingtrack", "take", req.TakeName)
		return
	}

	s.sendSuccessResponse(w, map[string]interface{}{
		"message": fmt.Sprintf("Take converted to backing track: %s", req.TakeName),
	})
}

func (s *Server) sendSuccessResponse(w http.ResponseWriter, fields map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	response := map[string]interface{}{"success": true}
	for k, v := range fields {
		response[k] = v
	}
	json.NewEncoder(w).Encode(response)
}

func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string, logContext ...interface{}) {
	logFields := []interface{}{"error_message", errorMsg, "status_code", statusCode}
	if len(logContext) > 0 {
		logFields = append(logFields, logContext...)
	}
	slog.Error("Sending error response to client", logFields...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errorMsg,
	})
}

func getLocalIP() string {
	// Connect to a remote address to determine the local IP
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
