package viewstate

import (
	"context"

	"codescan/internal/models"
	"codescan/internal/scanner"
)

// ScanState is what the scan screen renders
type ScanState struct {
	Result           *models.ScanResult `json:"result"`
	IsScanning       bool               `json:"is_scanning"`
	ShowResultDialog bool               `json:"show_result_dialog"`
	PermissionDenied bool               `json:"permission_denied"`
}

// ScanStateFrom derives the screen state from a session snapshot
func ScanStateFrom(snap scanner.Snapshot) ScanState {
	return ScanState{
		Result:           snap.Result,
		IsScanning:       snap.Analyzing(),
		ShowResultDialog: snap.State == scanner.StatePaused && snap.Result != nil,
		PermissionDenied: snap.PermissionDenied,
	}
}

// ScanController mirrors a scan session into a ScanState holder
type ScanController struct {
	session *scanner.Session
	state   *Holder[ScanState]
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScanController(session *scanner.Session) *ScanController {
	ctx, cancel := context.WithCancel(context.Background())
	c := &ScanController{
		session: session,
		state:   NewHolder(ScanStateFrom(session.Snapshot())),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	updates := session.Watch(ctx)
	go func() {
		defer close(c.done)
		for snap := range updates {
			c.state.Set(ScanStateFrom(snap))
		}
	}()
	return c
}

func (c *ScanController) State() ScanState {
	return c.state.Value()
}

func (c *ScanController) Subscribe(ctx context.Context) <-chan ScanState {
	return c.state.Subscribe(ctx)
}

func (c *ScanController) SessionID() string {
	return c.session.ID()
}

// OnPermissionResult reports the camera permission outcome
func (c *ScanController) OnPermissionResult(granted bool) error {
	return c.session.SetPermission(granted)
}

func (c *ScanController) SubmitFrame(f scanner.Frame) bool {
	return c.session.SubmitFrame(f)
}

// Detect offers a result decoded on the device
func (c *ScanController) Detect(result models.ScanResult) bool {
	return c.session.Detect(result)
}

func (c *ScanController) Continue() {
	c.session.Continue()
}

func (c *ScanController) Dismiss() {
	c.session.Dismiss()
}

func (c *ScanController) Suspend() {
	c.session.Suspend()
}

func (c *ScanController) Resume() error {
	return c.session.Resume()
}

// Close stops mirroring. The session itself stays open.
func (c *ScanController) Close() {
	c.cancel()
	<-c.done
	c.state.Close()
}
