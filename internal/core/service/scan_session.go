package service

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/material-scanner/internal/core/domain"
	"github.com/rl1809/material-scanner/internal/port"
)

const DefaultDebounce = time.Second

type SessionOptions struct {
	Debounce time.Duration
	Namer    domain.NameFunc
	Clock    port.Clock
	Metrics  port.MetricsRecorder
	Log      *logrus.Entry
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Namer == nil {
		o.Namer = domain.DefaultName
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Metrics == nil {
		o.Metrics = port.NopMetrics{}
	}
	if o.Log == nil {
		o.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return o
}

// ScanSession collects materials while the camera is running. After an
// accepted scan it ignores further events until the debounce delay has
// elapsed, so a code held in frame is registered once.
type ScanSession struct {
	opts SessionOptions

	mu       sync.Mutex
	buffer   []domain.Material
	active   bool
	closed   bool
	debounce port.Timer
}

func NewScanSession(opts SessionOptions) *ScanSession {
	return &ScanSession{
		opts:   opts.withDefaults(),
		active: true,
	}
}

// Handle applies one decoder event.
func (s *ScanSession) Handle(ev domain.DecodeEvent) {
	if ev.IsError() {
		s.OnDecodeError(ev.Err)
		return
	}
	s.OnDecoded(ev.Text)
}

func (s *ScanSession) OnDecoded(text string) {
	if !domain.ValidCode(text) {
		s.opts.Metrics.ScanRejected()
		s.opts.Log.Debug("ignoring empty decode payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if !s.active {
		s.opts.Metrics.ScanDebounced()
		return
	}

	m := domain.Material{
		ID:        uuid.NewString(),
		Code:      text,
		Name:      s.opts.Namer(text),
		ScannedAt: s.opts.Clock.Now(),
	}
	s.buffer = append(s.buffer, m)
	s.active = false
	s.debounce = s.opts.Clock.AfterFunc(s.opts.Debounce, s.reactivate)

	s.opts.Metrics.ScanAccepted()
	s.opts.Log.WithFields(logrus.Fields{"id": m.ID, "code": m.Code}).Info("material scanned")
}

func (s *ScanSession) OnDecodeError(message string) {
	s.opts.Metrics.DecodeError()
	s.opts.Log.WithField("error", message).Debug("qr decode error")
}

func (s *ScanSession) reactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.active = true
	s.debounce = nil
}

// Remove deletes the buffered material with the given id, reports whether it existed.
func (s *ScanSession) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeByID(&s.buffer, id)
}

// Drain hands over the buffered materials in scan order and empties the buffer.
func (s *ScanSession) Drain() []domain.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buffer
	s.buffer = nil
	if out == nil {
		out = []domain.Material{}
	}
	return out
}

// Discard closes the session and returns how many materials it dropped.
// Later events and a pending debounce callback become no-ops.
func (s *ScanSession) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	n := len(s.buffer)
	s.closed = true
	s.buffer = nil
	return n
}

func (s *ScanSession) IsEmpty() bool {
	return s.Len() == 0
}

func (s *ScanSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

func (s *ScanSession) Items() []domain.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return []domain.Material{}
	}
	return slices.Clone(s.buffer)
}

// Active reports whether the next decode event would be accepted.
func (s *ScanSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.closed
}

func removeByID(items *[]domain.Material, id string) bool {
	i := slices.IndexFunc(*items, func(m domain.Material) bool { return m.ID == id })
	if i < 0 {
		return false
	}
	*items = slices.Delete(*items, i, i+1)
	return true
}
