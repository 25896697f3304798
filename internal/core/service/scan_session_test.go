package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

func newTestSession(clock *fakeClock, metrics *mockMetrics) *ScanSession {
	return NewScanSession(SessionOptions{
		Debounce: time.Second,
		Clock:    clock,
		Metrics:  metrics,
		Log:      testLog(),
	})
}

func codes(items []domain.Material) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.Code)
	}
	return out
}

func TestOnDecoded_AppendsInOrder(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock, &mockMetrics{})

	texts := []string{"ABC123", "XYZ789", "QR-0001", "QR-0002"}
	for _, text := range texts {
		s.OnDecoded(text)
		clock.Advance(time.Second)
	}

	items := s.Items()
	require.Len(t, items, len(texts))
	assert.Equal(t, texts, codes(items))
	assert.Equal(t, "Matériel ABC123", items[0].Name)
	assert.Equal(t, newFakeClock().Now(), items[0].ScannedAt)
	assert.Equal(t, newFakeClock().Now().Add(time.Second), items[1].ScannedAt)
}

func TestOnDecoded_Debounce(t *testing.T) {
	clock := newFakeClock()
	metrics := &mockMetrics{}
	s := newTestSession(clock, metrics)

	s.OnDecoded("ABC123")
	s.OnDecoded("ABC123")
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Active())

	clock.Advance(999 * time.Millisecond)
	s.OnDecoded("ABC123")
	assert.Equal(t, 1, s.Len())

	clock.Advance(time.Millisecond)
	assert.True(t, s.Active())
	s.OnDecoded("XYZ789")
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, 2, metrics.accepted)
	assert.Equal(t, 2, metrics.debounced)
}

func TestOnDecoded_IgnoresEmptyPayload(t *testing.T) {
	clock := newFakeClock()
	metrics := &mockMetrics{}
	s := newTestSession(clock, metrics)

	s.OnDecoded("")
	s.OnDecoded("   ")

	assert.True(t, s.IsEmpty())
	assert.True(t, s.Active(), "an ignored payload must not start the debounce window")
	assert.Equal(t, 2, metrics.rejected)
	assert.Zero(t, clock.pending())
}

func TestOnDecoded_DuplicateCodes(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock, &mockMetrics{})

	s.OnDecoded("ABC123")
	clock.Advance(time.Second)
	s.OnDecoded("ABC123")

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, items[0].Code, items[1].Code)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	assert.NotEmpty(t, items[0].ID)
}

func TestOnDecoded_CustomNamer(t *testing.T) {
	s := NewScanSession(SessionOptions{
		Clock: newFakeClock(),
		Namer: func(code string) string { return "Item " + strings.ToLower(code) },
		Log:   testLog(),
	})

	s.OnDecoded("ABC")

	require.Equal(t, 1, s.Len())
	assert.Equal(t, "Item abc", s.Items()[0].Name)
}

func TestHandle_DecodeErrorLeavesStateUntouched(t *testing.T) {
	clock := newFakeClock()
	metrics := &mockMetrics{}
	s := newTestSession(clock, metrics)

	s.Handle(domain.DecodeEvent{Err: "No MultiFormat Readers were able to detect the code."})
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Active())

	s.Handle(domain.DecodeEvent{Text: "ABC123"})
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, metrics.errors)
}

func TestSessionRemove(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock, &mockMetrics{})
	for _, text := range []string{"A", "B", "C"} {
		s.OnDecoded(text)
		clock.Advance(time.Second)
	}
	middle := s.Items()[1].ID

	assert.False(t, s.Remove("missing"))
	assert.Equal(t, 3, s.Len())

	assert.True(t, s.Remove(middle))
	assert.Equal(t, []string{"A", "C"}, codes(s.Items()))

	assert.False(t, s.Remove(middle))
	assert.Equal(t, 2, s.Len())
}

func TestSessionDrain(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock, &mockMetrics{})

	assert.Empty(t, s.Drain())

	s.OnDecoded("A")
	clock.Advance(time.Second)
	s.OnDecoded("B")

	drained := s.Drain()
	assert.Equal(t, []string{"A", "B"}, codes(drained))
	assert.True(t, s.IsEmpty())
}

func TestSessionDiscard(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock, &mockMetrics{})

	s.OnDecoded("ABC123")
	require.Equal(t, 1, clock.pending())

	assert.Equal(t, 1, s.Discard())
	assert.Zero(t, clock.pending(), "pending debounce timer must be stopped")
	assert.True(t, s.IsEmpty())

	clock.Advance(time.Second)
	assert.False(t, s.Active())

	s.OnDecoded("XYZ789")
	assert.True(t, s.IsEmpty())

	// discarding twice is harmless
	assert.Zero(t, s.Discard())
}

func TestSessionDiscard_LateTimerCallback(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock, &mockMetrics{})

	s.OnDecoded("ABC123")
	s.Discard()

	// a callback that was already running when Discard stopped the timer
	s.reactivate()
	assert.False(t, s.Active())
}
