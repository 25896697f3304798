package port

import "github.com/rl1809/material-scanner/internal/core/domain"

type StateListener interface {
	// StateChanged is called after every mode transition or decoder status change.
	// decoderErr is nil while the decoder is healthy or not in use.
	StateChanged(mode domain.Mode, decoderErr error)
}
