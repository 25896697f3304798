package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "material_scanner"

// Recorder exports scan session activity as Prometheus collectors.
type Recorder struct {
	scans          *prometheus.CounterVec
	decodeErrors   prometheus.Counter
	sessions       *prometheus.CounterVec
	materials      *prometheus.CounterVec
	decoderFailure prometheus.Counter
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Decode events handled by scan sessions, by outcome.",
		}, []string{"outcome"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Per-frame decode failures reported by the decoder.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Scan sessions by lifecycle event.",
		}, []string{"event"}),
		materials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materials_total",
			Help:      "Materials leaving a scan session, committed or discarded.",
		}, []string{"result"}),
		decoderFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoder_failures_total",
			Help:      "Decoder acquisition failures and unexpected stops.",
		}),
	}
	reg.MustRegister(r.scans, r.decodeErrors, r.sessions, r.materials, r.decoderFailure)
	return r
}

func (r *Recorder) ScanAccepted()  { r.scans.WithLabelValues("accepted").Inc() }
func (r *Recorder) ScanDebounced() { r.scans.WithLabelValues("debounced").Inc() }
func (r *Recorder) ScanRejected()  { r.scans.WithLabelValues("rejected").Inc() }
func (r *Recorder) DecodeError()   { r.decodeErrors.Inc() }
func (r *Recorder) DecoderFailed() { r.decoderFailure.Inc() }

func (r *Recorder) SessionStarted() {
	r.sessions.WithLabelValues("started").Inc()
}

func (r *Recorder) SessionCancelled(discarded int) {
	r.sessions.WithLabelValues("cancelled").Inc()
	r.materials.WithLabelValues("discarded").Add(float64(discarded))
}

func (r *Recorder) SessionValidated(committed int) {
	r.sessions.WithLabelValues("validated").Inc()
	r.materials.WithLabelValues("committed").Add(float64(committed))
}
