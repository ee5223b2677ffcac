package scanner

import (
	"context"
	"io"
	"testing"
	"time"

	"codescan/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(nil, ManagerConfig{IdleTimeout: time.Minute}, zerolog.New(io.Discard))
	t.Cleanup(m.CloseAll)

	s, err := m.Create()
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Create()
	assert.ErrorIs(t, err, ErrCameraBusy)

	require.NoError(t, m.Close(s.ID()))
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID()), ErrSessionNotFound)

	next, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), next.ID())
}

func TestManager_Reap(t *testing.T) {
	m := NewManager(nil, ManagerConfig{IdleTimeout: time.Minute}, zerolog.New(io.Discard))
	t.Cleanup(m.CloseAll)

	s, err := m.Create()
	require.NoError(t, err)

	assert.Equal(t, 0, m.Reap(time.Now()))
	assert.Equal(t, 1, m.Reap(time.Now().Add(2*time.Minute)))

	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, StateActive, s.Snapshot().State)
}

func TestManager_ReapSkipsWatchedSessions(t *testing.T) {
	m := NewManager(nil, ManagerConfig{IdleTimeout: time.Minute}, zerolog.New(io.Discard))
	t.Cleanup(m.CloseAll)

	s, err := m.Create()
	require.NoError(t, err)
	require.True(t, s.Detect(models.ScanResult{Content: "shown", Type: models.CodeTypeTwoDimensional, Format: models.FormatQRCode}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Watch(ctx)
	assert.True(t, s.Watched())
	assert.Equal(t, 0, m.Reap(time.Now().Add(time.Hour)), "a screen showing the result keeps the session")

	cancel()
	require.Eventually(t, func() bool { return !s.Watched() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, m.Reap(time.Now()))
	assert.Equal(t, 1, m.Reap(time.Now().Add(2*time.Minute)))
}
