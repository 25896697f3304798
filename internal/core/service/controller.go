package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/material-scanner/internal/core/domain"
	"github.com/rl1809/material-scanner/internal/port"
)

var (
	ErrAlreadyScanning    = errors.New("scan already in progress")
	ErrNotScanning        = errors.New("no scan in progress")
	ErrDecoderUnavailable = errors.New("decoder unavailable")
	ErrDecoderLost        = errors.New("decoder stopped unexpectedly")
	ErrNothingToValidate  = errors.New("nothing to validate")
)

const defaultEventBuffer = 64

type ControllerOptions struct {
	Capture     domain.CaptureConfig
	EventBuffer int
	Session     SessionOptions
	// Listener is called with the controller lock held and must not call back into it.
	Listener port.StateListener
	Log      *logrus.Entry
}

// State is a point-in-time copy of everything the presentation layer renders.
type State struct {
	Mode       domain.Mode
	Buffer     []domain.Material
	Inventory  []domain.Material
	DecoderErr error
}

// decoderRun is one acquisition of the decoder. A scan normally has one,
// or several when the decoder is lost and re-acquired.
type decoderRun struct {
	done     chan struct{}
	stopping bool
}

// Controller owns the current mode, the active scan session and the
// inventory. Every mode change goes through it.
type Controller struct {
	decoder   port.Decoder
	inventory *Inventory
	opts      ControllerOptions
	metrics   port.MetricsRecorder
	log       *logrus.Entry

	mu         sync.Mutex
	mode       domain.Mode
	session    *ScanSession
	run        *decoderRun
	decoderErr error
}

func NewController(decoder port.Decoder, inventory *Inventory, opts ControllerOptions) *Controller {
	opts.Session = opts.Session.withDefaults()
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.Log == nil {
		opts.Log = opts.Session.Log
	}
	if inventory == nil {
		inventory = NewInventory()
	}
	return &Controller{
		decoder:   decoder,
		inventory: inventory,
		opts:      opts,
		metrics:   opts.Session.Metrics,
		log:       opts.Log,
		mode:      domain.ModeHome,
	}
}

// StartScan opens a new scan session and acquires the decoder for it.
// If the decoder cannot be acquired the controller stays in home mode.
func (c *Controller) StartScan(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == domain.ModeScanning {
		return ErrAlreadyScanning
	}

	session := NewScanSession(c.opts.Session)
	run, err := c.acquire(ctx, session)
	if err != nil {
		session.Discard()
		c.decoderErr = err
		c.metrics.DecoderFailed()
		c.log.WithError(err).Error("failed to acquire decoder")
		c.notify()
		return fmt.Errorf("%w: %w", ErrDecoderUnavailable, err)
	}

	c.session = session
	c.run = run
	c.mode = domain.ModeScanning
	c.decoderErr = nil
	c.metrics.SessionStarted()
	c.log.Info("scan started")
	c.notify()
	return nil
}

// Cancel drops the scan buffer and returns to home. The inventory is untouched.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != domain.ModeScanning {
		return
	}

	// Discard first so events still in flight land on a closed session.
	discarded := c.session.Discard()
	c.release()

	c.session = nil
	c.mode = domain.ModeHome
	c.decoderErr = nil
	c.metrics.SessionCancelled(discarded)
	c.log.WithField("discarded", discarded).Info("scan cancelled")
	c.notify()
}

// Validate merges the scan buffer into the inventory and returns to home.
// It returns the number of materials committed; an empty buffer commits nothing.
func (c *Controller) Validate() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != domain.ModeScanning {
		return 0
	}

	return c.commit()
}

// ValidateNonEmpty is Validate for callers that must not commit an empty
// buffer. The check and the commit happen under one lock, so a concurrent
// removal cannot slip in between.
func (c *Controller) ValidateNonEmpty() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != domain.ModeScanning {
		return 0, ErrNotScanning
	}
	if c.session.IsEmpty() {
		return 0, ErrNothingToValidate
	}
	return c.commit(), nil
}

func (c *Controller) commit() int {
	c.release()
	records := c.session.Drain()
	c.inventory.MergeAll(records)
	c.session.Discard()

	c.session = nil
	c.mode = domain.ModeHome
	c.decoderErr = nil
	c.metrics.SessionValidated(len(records))
	c.log.WithFields(logrus.Fields{
		"committed": len(records),
		"inventory": c.inventory.Len(),
	}).Info("scan validated")
	c.notify()
	return len(records)
}

// Retry re-acquires the decoder for the current scan after it was lost.
// The scan buffer is kept. Calling it while the decoder runs is a no-op.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != domain.ModeScanning {
		return ErrNotScanning
	}
	if c.run != nil {
		return nil
	}

	run, err := c.acquire(ctx, c.session)
	if err != nil {
		c.decoderErr = err
		c.metrics.DecoderFailed()
		c.log.WithError(err).Error("failed to re-acquire decoder")
		c.notify()
		return fmt.Errorf("%w: %w", ErrDecoderUnavailable, err)
	}

	c.run = run
	c.decoderErr = nil
	c.log.Info("decoder re-acquired")
	c.notify()
	return nil
}

// RemoveScanned removes a material from the active scan buffer.
func (c *Controller) RemoveScanned(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != domain.ModeScanning {
		return false
	}
	return c.session.Remove(id)
}

// RemoveItem removes a committed material from the inventory.
func (c *Controller) RemoveItem(id string) bool {
	removed := c.inventory.Remove(id)
	if removed {
		c.log.WithField("id", id).Info("material removed from inventory")
	}
	return removed
}

// ClearInventory empties the inventory. Asking the user for confirmation
// is up to the caller.
func (c *Controller) ClearInventory() {
	n := c.inventory.Len()
	c.inventory.Clear()
	c.log.WithField("cleared", n).Info("inventory cleared")
}

func (c *Controller) Inventory() *Inventory {
	return c.inventory
}

func (c *Controller) Mode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Mode:       c.mode,
		Buffer:     []domain.Material{},
		Inventory:  c.inventory.Items(),
		DecoderErr: c.decoderErr,
	}
	if c.session != nil {
		st.Buffer = c.session.Items()
	}
	return st
}

// Close releases the decoder of an active scan, discarding its buffer.
func (c *Controller) Close() {
	c.Cancel()
}

func (c *Controller) acquire(ctx context.Context, session *ScanSession) (*decoderRun, error) {
	events := make(chan domain.DecodeEvent, c.opts.EventBuffer)
	if err := c.decoder.Start(ctx, c.opts.Capture, events); err != nil {
		return nil, err
	}

	run := &decoderRun{done: make(chan struct{})}
	go c.pump(session, run, events)
	return run, nil
}

func (c *Controller) pump(session *ScanSession, run *decoderRun, events <-chan domain.DecodeEvent) {
	for ev := range events {
		session.Handle(ev)
	}
	close(run.done)
	c.decoderStopped(run)
}

// decoderStopped runs once the event stream of run has ended. Unless the
// controller asked for it, the decoder went away on its own.
func (c *Controller) decoderStopped(run *decoderRun) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != run || run.stopping {
		return
	}
	c.run = nil
	c.decoderErr = ErrDecoderLost
	c.metrics.DecoderFailed()
	c.log.Warn("decoder stopped unexpectedly")
	c.notify()
}

// release stops the decoder and waits until no more events can reach the session.
func (c *Controller) release() {
	run := c.run
	if run == nil {
		return
	}
	run.stopping = true
	c.run = nil

	if err := c.decoder.Stop(); err != nil {
		c.log.WithError(err).Warn("decoder stop failed")
	}
	<-run.done
}

func (c *Controller) notify() {
	if c.opts.Listener != nil {
		c.opts.Listener.StateChanged(c.mode, c.decoderErr)
	}
}
