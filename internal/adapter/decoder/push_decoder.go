package decoder

import (
	"context"
	"errors"
	"sync"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

var (
	ErrNotRunning = errors.New("decoder not running")
	ErrBusy       = errors.New("decoder already in use")
)

// PushDecoder receives decode events from the browser front end, which
// runs the camera and QR library and posts each result to the API.
type PushDecoder struct {
	mu     sync.Mutex
	events chan<- domain.DecodeEvent
}

func NewPushDecoder() *PushDecoder {
	return &PushDecoder{}
}

func (d *PushDecoder) Start(_ context.Context, _ domain.CaptureConfig, events chan<- domain.DecodeEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.events != nil {
		return ErrBusy
	}
	d.events = events
	return nil
}

func (d *PushDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.events == nil {
		return nil
	}
	close(d.events)
	d.events = nil
	return nil
}

// Fail reports that the browser lost its camera, e.g. permission denied
// or device unplugged. The stream ends as if the decoder went away.
func (d *PushDecoder) Fail() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.events == nil {
		return ErrNotRunning
	}
	close(d.events)
	d.events = nil
	return nil
}

// Push forwards one event to the running scan. It blocks while the event
// buffer is full, until ctx is done.
func (d *PushDecoder) Push(ctx context.Context, ev domain.DecodeEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.events == nil {
		return ErrNotRunning
	}
	select {
	case d.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *PushDecoder) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events != nil
}
