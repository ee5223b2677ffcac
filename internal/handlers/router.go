package handlers

import (
	"context"
	"net/http"

	"codescan/internal/scanner"
	"codescan/internal/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store is reachable
type Pinger func(ctx context.Context) error

// RouterDeps wires the services the API exposes
type RouterDeps struct {
	Codes          *services.CodeService
	History        *services.HistoryService
	Sessions       *scanner.Manager
	MaxFrameSize   int64
	MaxFramePixels int
	Ping           Pinger
	Log            zerolog.Logger
}

// NewRouter registers every API route. Collection routes come before
// parameterised ones.
func NewRouter(d RouterDeps) *mux.Router {
	codeHandler := NewCodeHandler(d.Codes, d.History, d.Log)
	historyHandler := NewHistoryHandler(d.History, d.Codes, d.Log)
	scanHandler := NewScanHandler(d.Sessions, d.MaxFrameSize, d.MaxFramePixels, d.Log)
	screenHandler := NewScreenHandler(d.Sessions, d.Codes, d.History, d.Log)

	r := mux.NewRouter()

	// Code generation
	r.HandleFunc("/api/codes/generate", codeHandler.Generate).Methods("POST")
	r.HandleFunc("/api/codes/render", codeHandler.Render).Methods("GET")
	r.HandleFunc("/api/codes/export", codeHandler.Export).Methods("POST")

	// History
	r.HandleFunc("/api/history", historyHandler.List).Methods("GET")
	r.HandleFunc("/api/history", historyHandler.Clear).Methods("DELETE")
	r.HandleFunc("/api/history/{id}", historyHandler.Get).Methods("GET")
	r.HandleFunc("/api/history/{id}", historyHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/history/{id}/image", historyHandler.Image).Methods("GET")

	// Scan sessions
	r.HandleFunc("/api/scan/sessions", scanHandler.Create).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}", scanHandler.Get).Methods("GET")
	r.HandleFunc("/api/scan/sessions/{id}", scanHandler.Close).Methods("DELETE")
	r.HandleFunc("/api/scan/sessions/{id}/frames", scanHandler.Frame).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}/detections", scanHandler.Detection).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}/continue", scanHandler.Continue).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}/dismiss", scanHandler.Dismiss).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}/suspend", scanHandler.Suspend).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}/resume", scanHandler.Resume).Methods("POST")
	r.HandleFunc("/api/scan/sessions/{id}/permission", scanHandler.Permission).Methods("POST")

	// Screens
	r.HandleFunc("/ws/scan/{id}", screenHandler.ScanScreen).Methods("GET")
	r.HandleFunc("/ws/generate", screenHandler.GenerateScreen).Methods("GET")
	r.HandleFunc("/ws/history", screenHandler.HistoryScreen).Methods("GET")

	r.HandleFunc("/api/health", health(d.Ping, d.Log)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

func health(ping Pinger, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				log.Warn().Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
					"status":  "unavailable",
					"message": "Database is unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"message": "Backend is running",
		})
	}
}
