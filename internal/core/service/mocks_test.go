package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/rl1809/material-scanner/internal/core/domain"
	"github.com/rl1809/material-scanner/internal/port"
)

// Fake clock: timers fire synchronously inside Advance
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
	clock   *fakeClock
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) port.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f, clock: c}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Mock MetricsRecorder
type mockMetrics struct {
	mu        sync.Mutex
	accepted  int
	debounced int
	rejected  int
	errors    int
	started   int
	cancelled int
	discarded int
	validated int
	committed int
	failures  int
}

func (m *mockMetrics) scans() (accepted, debounced, discarded int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accepted, m.debounced, m.discarded
}

func (m *mockMetrics) ScanAccepted()  { m.mu.Lock(); m.accepted++; m.mu.Unlock() }
func (m *mockMetrics) ScanDebounced() { m.mu.Lock(); m.debounced++; m.mu.Unlock() }
func (m *mockMetrics) ScanRejected()  { m.mu.Lock(); m.rejected++; m.mu.Unlock() }
func (m *mockMetrics) DecodeError()   { m.mu.Lock(); m.errors++; m.mu.Unlock() }
func (m *mockMetrics) DecoderFailed() { m.mu.Lock(); m.failures++; m.mu.Unlock() }
func (m *mockMetrics) SessionStarted() {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
}
func (m *mockMetrics) SessionCancelled(n int) {
	m.mu.Lock()
	m.cancelled++
	m.discarded += n
	m.mu.Unlock()
}
func (m *mockMetrics) SessionValidated(n int) {
	m.mu.Lock()
	m.validated++
	m.committed += n
	m.mu.Unlock()
}

// Mock Decoder
type mockDecoder struct {
	mu       sync.Mutex
	startErr error
	events   chan<- domain.DecodeEvent
	capture  domain.CaptureConfig
	starts   int
	stops    int
	// onStop is delivered by Stop just before the stream closes
	onStop   *domain.DecodeEvent
}

func (m *mockDecoder) Start(ctx context.Context, cfg domain.CaptureConfig, events chan<- domain.DecodeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if m.startErr != nil {
		return m.startErr
	}
	m.events = events
	m.capture = cfg
	return nil
}

func (m *mockDecoder) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.events != nil {
		if m.onStop != nil {
			m.events <- *m.onStop
		}
		close(m.events)
		m.events = nil
	}
	return nil
}

func (m *mockDecoder) emit(t *testing.T, ev domain.DecodeEvent) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		t.Fatalf("decoder not running")
	}
	m.events <- ev
}

func (m *mockDecoder) emitOnStop(ev domain.DecodeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStop = &ev
}

// lose simulates the camera going away without being asked to stop
func (m *mockDecoder) lose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events != nil {
		close(m.events)
		m.events = nil
	}
}

func (m *mockDecoder) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events != nil
}

func (m *mockDecoder) counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

// Mock StateListener
type mockListener struct {
	mu    sync.Mutex
	modes []domain.Mode
	errs  []error
}

func (l *mockListener) StateChanged(mode domain.Mode, decoderErr error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modes = append(l.modes, mode)
	l.errs = append(l.errs, decoderErr)
}

func (l *mockListener) last() (domain.Mode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.modes) == 0 {
		return "", nil
	}
	return l.modes[len(l.modes)-1], l.errs[len(l.errs)-1]
}

func testLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}
