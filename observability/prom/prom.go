package prom

import (
	"net/http"
	"time"

	"github.com/cipherwire/cipherwire-go/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry returns a fresh Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Handler returns a Prometheus HTTP handler bound to the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ChannelObserver exports channel metrics to Prometheus.
type ChannelObserver struct {
	handshakesStarted *prometheus.CounterVec
	handshakesTotal   *prometheus.CounterVec
	handshakeLatency  prometheus.Histogram
	framesTotal       *prometheus.CounterVec
	frameBytesTotal   *prometheus.CounterVec
	tagFailuresTotal  *prometheus.CounterVec
}

// NewChannelObserver registers channel metrics on the registry.
func NewChannelObserver(reg *prometheus.Registry) *ChannelObserver {
	o := &ChannelObserver{
		handshakesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherwire_handshakes_started_total",
			Help: "Handshake attempts by role.",
		}, []string{"role"}),
		handshakesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherwire_handshakes_total",
			Help: "Completed handshakes by role and result.",
		}, []string{"role", "result"}),
		handshakeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cipherwire_handshake_latency_seconds",
			Help:    "Latency from handshake start to secret derivation.",
			Buckets: prometheus.DefBuckets,
		}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherwire_frames_total",
			Help: "Frames processed by direction.",
		}, []string{"direction"}),
		frameBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherwire_frame_payload_bytes_total",
			Help: "Frame payload bytes processed by direction.",
		}, []string{"direction"}),
		tagFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherwire_tag_check_failures_total",
			Help: "MAC tag verification failures by direction.",
		}, []string{"direction"}),
	}
	reg.MustRegister(
		o.handshakesStarted,
		o.handshakesTotal,
		o.handshakeLatency,
		o.framesTotal,
		o.frameBytesTotal,
		o.tagFailuresTotal,
	)
	return o
}

func (o *ChannelObserver) HandshakeStarted(role observability.Role) {
	o.handshakesStarted.WithLabelValues(string(role)).Inc()
}

func (o *ChannelObserver) Handshake(role observability.Role, result observability.HandshakeResult, d time.Duration) {
	o.handshakesTotal.WithLabelValues(string(role), string(result)).Inc()
	if result == observability.HandshakeOK {
		o.handshakeLatency.Observe(d.Seconds())
	}
}

func (o *ChannelObserver) FrameRead(payloadBytes int) {
	o.framesTotal.WithLabelValues(string(observability.DirIngress)).Inc()
	o.frameBytesTotal.WithLabelValues(string(observability.DirIngress)).Add(float64(payloadBytes))
}

func (o *ChannelObserver) FrameWritten(payloadBytes int) {
	o.framesTotal.WithLabelValues(string(observability.DirEgress)).Inc()
	o.frameBytesTotal.WithLabelValues(string(observability.DirEgress)).Add(float64(payloadBytes))
}

func (o *ChannelObserver) TagCheckFailed(dir observability.Direction) {
	o.tagFailuresTotal.WithLabelValues(string(dir)).Inc()
}
