package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"codescan/internal/barcode"
	"codescan/internal/models"
	"codescan/internal/scanner"
	"codescan/internal/viewstate"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ScanHandler drives scan sessions over REST
type ScanHandler struct {
	sessions       *scanner.Manager
	maxFrameSize   int64
	maxFramePixels int
	log            zerolog.Logger
}

func NewScanHandler(sessions *scanner.Manager, maxFrameSize int64, maxFramePixels int, log zerolog.Logger) *ScanHandler {
	return &ScanHandler{sessions: sessions, maxFrameSize: maxFrameSize, maxFramePixels: maxFramePixels, log: log}
}

func (h *ScanHandler) session(w http.ResponseWriter, r *http.Request) (*scanner.Session, bool) {
	s, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

func writeSession(w http.ResponseWriter, status int, s *scanner.Session, extra map[string]interface{}) {
	snap := s.Snapshot()
	payload := map[string]interface{}{
		"success":    true,
		"session_id": snap.ID,
		"state":      viewstate.ScanStateFrom(snap),
		"session":    snap,
	}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

// Create opens a session; 409 while another one holds the camera
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSession(w, http.StatusCreated, s, nil)
}

func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeSession(w, http.StatusOK, s, nil)
}

func (h *ScanHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session closed",
	})
}

// Frame accepts a PNG or JPEG camera frame. X-Rotation-Degrees carries the
// clockwise rotation that makes it upright.
func (h *ScanHandler) Frame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	rotation := 0
	if v := strings.TrimSpace(r.Header.Get("X-Rotation-Degrees")); v != "" {
		deg, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "X-Rotation-Degrees must be an integer")
			return
		}
		rotation = deg
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxFrameSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "frame too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	frame, err := scanner.DecodeFrame(data, rotation, h.maxFramePixels)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted := s.SubmitFrame(frame)
	writeSession(w, http.StatusAccepted, s, map[string]interface{}{"accepted": accepted})
}

// detectionRequest is a decode made on the device, with its ML Kit format code
type detectionRequest struct {
	Format   int    `json:"format"`
	RawValue string `json:"raw_value"`
}

func (h *ScanHandler) Detection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req detectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	format, codeType := barcode.ClassifyMLKit(req.Format)
	accepted := s.Detect(models.ScanResult{Content: req.RawValue, Type: codeType, Format: format})
	writeSession(w, http.StatusOK, s, map[string]interface{}{"accepted": accepted})
}

func (h *ScanHandler) Continue(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Continue()
	writeSession(w, http.StatusOK, s, nil)
}

func (h *ScanHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Dismiss()
	writeSession(w, http.StatusOK, s, nil)
}

func (h *ScanHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Suspend()
	writeSession(w, http.StatusOK, s, nil)
}

func (h *ScanHandler) Resume(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Resume(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSession(w, http.StatusOK, s, nil)
}

type permissionRequest struct {
	Granted bool `json:"granted"`
}

// Permission records the outcome of the camera permission prompt
func (h *ScanHandler) Permission(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.SetPermission(req.Granted); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSession(w, http.StatusOK, s, nil)
}
