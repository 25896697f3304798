package port

type MetricsRecorder interface {
	ScanAccepted()
	ScanDebounced()
	ScanRejected()
	DecodeError()
	SessionStarted()
	SessionCancelled(discarded int)
	SessionValidated(committed int)
	DecoderFailed()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ScanAccepted()        {}
func (NopMetrics) ScanDebounced()       {}
func (NopMetrics) ScanRejected()        {}
func (NopMetrics) DecodeError()         {}
func (NopMetrics) SessionStarted()      {}
func (NopMetrics) SessionCancelled(int) {}
func (NopMetrics) SessionValidated(int) {}
func (NopMetrics) DecoderFailed()       {}
