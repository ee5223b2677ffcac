package handlers

import (
	"net/http"
	"time"

	"codescan/internal/auth"
	"codescan/internal/metrics"

	"github.com/rs/zerolog"
)

// PublicPaths skip authentication
var PublicPaths = []string{"/api/health", "/metrics"}

// Wrap applies the server's middleware chain, outermost first: CORS, request
// log, metrics, auth.
func Wrap(h http.Handler, authSvc *auth.Service, allowedOrigin string, log zerolog.Logger) http.Handler {
	h = authSvc.Middleware(PublicPaths...)(h)
	h = metrics.Middleware(h)
	h = RequestLog(log)(h)
	return CORS(allowedOrigin)(h)
}

// CORS sets the cross-origin headers and answers preflight requests
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Rotation-Degrees")
			w.Header().Set("Access-Control-Max-Age", "86400")
			if allowedOrigin != "*" {
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLog logs each request once it has been served
func RequestLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}
