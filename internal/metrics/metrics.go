// Package metrics exposes Athernet's counters and gauges to Prometheus,
// replacing the reference implementation's scattered atomic perf
// counters with a single injected Recorder every layer reports through.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what the protocol layers depend on, so tests can swap in
// NoopRecorder without pulling in a real registry.
type Recorder interface {
	CRCMismatch()
	AckTimeout()
	LinkDown()
	RingOverrun()
	RingUnderrun()
	HeaderDecodeFailure()
	ObserveRTTMillis(ms float64)
	ObserveFrameBytes(n int)
}

// Prometheus is the production Recorder, registering collectors with
// prometheus.DefaultRegisterer via promauto the way the teacher's
// PrometheusMetrics does.
type Prometheus struct {
	crcMismatches  prometheus.Counter
	ackTimeouts    prometheus.Counter
	linkDowns      prometheus.Counter
	ringOverruns   prometheus.Counter
	ringUnderruns  prometheus.Counter
	headerFailures prometheus.Counter
	rttMillis      prometheus.Gauge
	frameBytes     prometheus.Histogram
}

// NewPrometheus registers and returns a production Recorder.
func NewPrometheus() *Prometheus {
	return &Prometheus{
		crcMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "athernet_link_crc_mismatches_total",
			Help: "Frames dropped at the link layer due to a CRC mismatch.",
		}),
		ackTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "athernet_link_ack_timeouts_total",
			Help: "ACK waits that timed out and triggered a retransmission.",
		}),
		linkDowns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "athernet_link_down_total",
			Help: "Times the link layer gave up after exceeding its consecutive-loss threshold.",
		}),
		ringOverruns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "athernet_ring_overruns_total",
			Help: "Writer-side ring buffer waits caused by a full buffer.",
		}),
		ringUnderruns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "athernet_ring_underruns_total",
			Help: "Reader-side ring buffer waits caused by an empty buffer.",
		}),
		headerFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "athernet_transport_header_decode_failures_total",
			Help: "Transport packets that failed to decode.",
		}),
		rttMillis: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "athernet_transport_rtt_ms",
			Help: "Current smoothed round-trip-time estimate in milliseconds.",
		}),
		frameBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "athernet_link_frame_bytes",
			Help:    "Size in bytes of link-layer frames sent.",
			Buckets: prometheus.ExponentialBuckets(8, 2, 8),
		}),
	}
}

func (p *Prometheus) CRCMismatch()             { p.crcMismatches.Inc() }
func (p *Prometheus) AckTimeout()              { p.ackTimeouts.Inc() }
func (p *Prometheus) LinkDown()                { p.linkDowns.Inc() }
func (p *Prometheus) RingOverrun()             { p.ringOverruns.Inc() }
func (p *Prometheus) RingUnderrun()            { p.ringUnderruns.Inc() }
func (p *Prometheus) HeaderDecodeFailure()     { p.headerFailures.Inc() }
func (p *Prometheus) ObserveRTTMillis(ms float64) { p.rttMillis.Set(ms) }
func (p *Prometheus) ObserveFrameBytes(n int)  { p.frameBytes.Observe(float64(n)) }

// NoopRecorder discards every observation; it's the default for
// components that don't wire a real Recorder (tests, offline tools).
type NoopRecorder struct{}

func (NoopRecorder) CRCMismatch()                  {}
func (NoopRecorder) AckTimeout()                   {}
func (NoopRecorder) LinkDown()                     {}
func (NoopRecorder) RingOverrun()                  {}
func (NoopRecorder) RingUnderrun()                 {}
func (NoopRecorder) HeaderDecodeFailure()          {}
func (NoopRecorder) ObserveRTTMillis(ms float64)   {}
func (NoopRecorder) ObserveFrameBytes(n int)       {}
