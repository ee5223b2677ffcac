package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"codescan/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown or closed session ids
var ErrSessionNotFound = errors.New("scanner: session not found")

type ManagerConfig struct {
	SaveTimeout time.Duration
	IdleTimeout time.Duration
}

// Manager owns the open scan sessions and the camera they share
type Manager struct {
	saver  Saver
	camera *Camera
	cfg    ManagerConfig
	log    zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(saver Saver, cfg ManagerConfig, log zerolog.Logger) *Manager {
	return &Manager{
		saver:    saver,
		camera:   NewCamera(),
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session bound to the camera. It fails with ErrCameraBusy
// while another session holds the camera.
func (m *Manager) Create() (*Session, error) {
	id := uuid.NewString()
	s, err := NewSession(id, SessionConfig{
		Saver:       m.saver,
		Camera:      m.camera,
		SaveTimeout: m.cfg.SaveTimeout,
		Log:         m.log,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	metrics.ActiveScanSessions.Inc()
	m.log.Info().Str("session", id).Msg("scan session opened")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.Close()
	metrics.ActiveScanSessions.Dec()
	m.log.Info().Str("session", id).Msg("scan session closed")
	return nil
}

// Reap closes sessions idle for longer than the idle timeout and returns how many
func (m *Manager) Reap(now time.Time) int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	m.mu.Lock()
	var idle []string
	for id, s := range m.sessions {
		if !s.Watched() && now.Sub(s.LastActive()) > m.cfg.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		_ = m.Close(id)
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done, then closes the rest
func (m *Manager) Run(ctx context.Context) error {
	interval := m.cfg.IdleTimeout / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return nil
		case now := <-ticker.C:
			if n := m.Reap(now); n > 0 {
				m.log.Info().Int("count", n).Msg("reaped idle scan sessions")
			}
		}
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Close(id)
	}
}
