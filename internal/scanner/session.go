package scanner

import (
	"context"
	"sync"
	"time"

	"codescan/internal/barcode"
	"codescan/internal/metrics"
	"codescan/internal/models"

	"github.com/rs/zerolog"
)

// State of a scan session
type State string

const (
	// StateActive analyses incoming frames
	StateActive State = "ACTIVE"
	// StatePaused shows a result; frames are ignored
	StatePaused State = "PAUSED"
)

// DefaultSaveTimeout bounds the background save of a scan result
const DefaultSaveTimeout = 5 * time.Second

// Saver persists scan records
type Saver interface {
	SaveRecord(ctx context.Context, record models.CodeRecord) (models.CodeRecord, error)
}

// Snapshot is the observable state of a session
type Snapshot struct {
	ID               string             `json:"id"`
	State            State              `json:"state"`
	Suspended        bool               `json:"suspended"`
	PermissionDenied bool               `json:"permission_denied"`
	Result           *models.ScanResult `json:"result,omitempty"`
}

// Analyzing reports whether frames submitted now would be analysed
func (s Snapshot) Analyzing() bool {
	return s.State == StateActive && !s.Suspended && !s.PermissionDenied
}

type SessionConfig struct {
	Saver       Saver
	Camera      *Camera
	Decoder     *barcode.Decoder
	SaveTimeout time.Duration
	Log         zerolog.Logger
}

// Session accepts at most one scan result per pause cycle. Frames go through a
// keep-latest slot to a single analysis goroutine.
type Session struct {
	id          string
	saver       Saver
	camera      *Camera
	decoder     *barcode.Decoder
	saveTimeout time.Duration
	log         zerolog.Logger

	mu               sync.Mutex
	state            State
	suspended        bool
	permissionDenied bool
	result           *models.ScanResult
	closed           bool
	lastActive       time.Time
	watchers         map[chan Snapshot]struct{}

	slot *frameSlot
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSession binds the camera and starts the analysis worker
func NewSession(id string, cfg SessionConfig) (*Session, error) {
	if cfg.Camera == nil {
		cfg.Camera = NewCamera()
	}
	if cfg.Decoder == nil {
		cfg.Decoder = barcode.NewDecoder()
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultSaveTimeout
	}
	if err := cfg.Camera.Bind(id); err != nil {
		return nil, err
	}

	s := &Session{
		id:          id,
		saver:       cfg.Saver,
		camera:      cfg.Camera,
		decoder:     cfg.Decoder,
		saveTimeout: cfg.SaveTimeout,
		log:         cfg.Log.With().Str("session", id).Logger(),
		state:       StateActive,
		lastActive:  time.Now(),
		watchers:    make(map[chan Snapshot]struct{}),
		slot:        newFrameSlot(),
		done:        make(chan struct{}),
	}
	s.wg.Add(1)
	go s.analyze()
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) analyze() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.slot.ready:
		}
		frame, ok := s.slot.take()
		if !ok {
			continue
		}
		if !s.Snapshot().Analyzing() {
			metrics.FramesProcessed.WithLabelValues("dropped").Inc()
			continue
		}
		result, found := s.decoder.Decode(frame.Upright())
		if !found {
			metrics.FramesProcessed.WithLabelValues("miss").Inc()
			continue
		}
		metrics.FramesProcessed.WithLabelValues("decoded").Inc()
		s.Detect(result)
	}
}

// SubmitFrame queues a frame for analysis without blocking. It returns false
// when the session is not analysing and the frame was dropped.
func (s *Session) SubmitFrame(f Frame) bool {
	s.mu.Lock()
	analyzing := !s.closed && s.snapshotLocked().Analyzing()
	s.lastActive = time.Now()
	s.mu.Unlock()

	if !analyzing {
		metrics.FramesProcessed.WithLabelValues("dropped").Inc()
		return false
	}
	if s.slot.put(f) {
		metrics.FramesProcessed.WithLabelValues("dropped").Inc()
	}
	return true
}

// Detect offers a decode result. The first non-empty result while analysing
// pauses the session; later ones are ignored until Continue or Dismiss.
// Observers see the result before the record is handed to the saver.
func (s *Session) Detect(result models.ScanResult) bool {
	if result.Content == "" {
		return false
	}

	s.mu.Lock()
	if s.closed || !s.snapshotLocked().Analyzing() {
		s.mu.Unlock()
		return false
	}
	s.state = StatePaused
	s.result = &result
	s.lastActive = time.Now()
	s.publishLocked()
	record := models.NewCodeRecord(result.Content, result.Format, models.RecordTypeScan)
	save := s.saver != nil
	if save {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	s.slot.clear()
	metrics.CodesScanned.WithLabelValues(string(result.Format)).Inc()
	if save {
		go s.persist(record)
	}
	return true
}

func (s *Session) persist(record models.CodeRecord) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	saved, err := s.saver.SaveRecord(ctx, record)
	if err != nil {
		s.log.Error().Err(err).Str("format", string(record.Format)).Msg("save scan result")
		return
	}
	s.log.Debug().Int64("id", saved.ID).Msg("scan result saved")
}

// Continue returns a paused session to scanning
func (s *Session) Continue() bool {
	return s.unpause()
}

// Dismiss closes the result; the session resumes scanning
func (s *Session) Dismiss() bool {
	return s.unpause()
}

func (s *Session) unpause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.closed || s.state != StatePaused {
		return false
	}
	s.state = StateActive
	s.result = nil
	s.publishLocked()
	return true
}

// Suspend freezes analysis and releases the camera. The state is kept.
func (s *Session) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.suspended {
		return
	}
	s.suspended = true
	s.camera.Unbind(s.id)
	s.publishLocked()
}

// Resume rebinds the camera. A session paused before Suspend stays paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.closed || !s.suspended {
		return nil
	}
	if !s.permissionDenied {
		if err := s.camera.Bind(s.id); err != nil {
			return err
		}
	}
	s.suspended = false
	s.publishLocked()
	return nil
}

// SetPermission records the camera permission outcome. Without permission the
// camera is released and nothing is analysed.
func (s *Session) SetPermission(granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.closed {
		return nil
	}
	if granted && !s.suspended {
		if err := s.camera.Bind(s.id); err != nil {
			return err
		}
	}
	if !granted {
		s.camera.Unbind(s.id)
	}
	if s.permissionDenied != !granted {
		s.permissionDenied = !granted
		s.publishLocked()
	}
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:               s.id,
		State:            s.state,
		Suspended:        s.suspended,
		PermissionDenied: s.permissionDenied,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Watch streams snapshots, starting with the current one. Readers that fall
// behind only get the latest. The channel closes with ctx or the session.
func (s *Session) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	ch <- s.snapshotLocked()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch
	}
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
			s.lastActive = time.Now()
		}
	}()
	return ch
}

// publishLocked sends the current snapshot to every watcher, replacing any unread one
func (s *Session) publishLocked() {
	snap := s.snapshotLocked()
	for ch := range s.watchers {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Watched reports whether a subscriber is following the session
func (s *Session) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers) > 0
}

// LastActive is the time of the last client interaction or watcher detach
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops analysis, releases the camera and waits for pending saves
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	s.mu.Unlock()

	s.camera.Unbind(s.id)
	s.wg.Wait()
}
