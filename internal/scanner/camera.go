package scanner

import (
	"errors"
	"sync"
)

// ErrCameraBusy is returned when another session holds the camera
var ErrCameraBusy = errors.New("scanner: camera is bound to another session")

// Camera is the single capture device. At most one session is bound at a time.
type Camera struct {
	mu    sync.Mutex
	owner string
}

func NewCamera() *Camera {
	return &Camera{}
}

// Bind gives the camera to owner. Binding again as the current owner is a no-op.
func (c *Camera) Bind(owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.owner {
	case owner:
		return nil
	case "":
		c.owner = owner
		return nil
	default:
		return ErrCameraBusy
	}
}

// Unbind releases the camera if owner holds it
func (c *Camera) Unbind(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == owner {
		c.owner = ""
	}
}

func (c *Camera) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}
