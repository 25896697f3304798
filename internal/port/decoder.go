package port

import (
	"context"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

type Decoder interface {
	// Start acquires the camera/decoder and begins delivering events.
	// ctx bounds the acquisition only, not the lifetime of the stream.
	// On success the decoder owns events and closes it once it stops,
	// whether through Stop or because the underlying source went away.
	// On error events is left open and untouched.
	Start(ctx context.Context, cfg domain.CaptureConfig, events chan<- domain.DecodeEvent) error

	// Stop releases the decoder. It blocks until events has been closed
	// and is safe to call more than once.
	Stop() error
}
