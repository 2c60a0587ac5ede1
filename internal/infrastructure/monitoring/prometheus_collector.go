package monitoring

import (
	"relaycast/internal/core/domain"
	"relaycast/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Metrics on top of promauto
// collectors registered with the default registry.
type PrometheusCollector struct {
	peersConnected prometheus.Gauge
	streamsActive  prometheus.Gauge
	streamViewers  *prometheus.GaugeVec

	eventsTotal          *prometheus.CounterVec
	forwardsTotal        *prometheus.CounterVec
	errorsTotal          *prometheus.CounterVec
	notificationsDropped prometheus.Counter
}

var _ ports.Metrics = (*PrometheusCollector)(nil)

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		peersConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaycast_peers_connected",
			Help: "Number of live delivery-channel connections",
		}),

		streamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaycast_streams_active",
			Help: "Number of live streams in the registry",
		}),

		streamViewers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relaycast_stream_viewers",
			Help: "Number of viewers attached to each stream",
		}, []string{"stream_id"}),

		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relaycast_events_total",
			Help: "Inbound signaling events handled, by type",
		}, []string{"type"}),

		forwardsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relaycast_forwards_total",
			Help: "Handshake payloads routed between peers, by type",
		}, []string{"type"}),

		errorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relaycast_errors_total",
			Help: "Error notifications returned to clients, by code",
		}, []string{"code"}),

		notificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaycast_notifications_dropped_total",
			Help: "Notifications dropped because the target was gone or not draining",
		}),
	}
}

func (p *PrometheusCollector) PeerConnected()    { p.peersConnected.Inc() }
func (p *PrometheusCollector) PeerDisconnected() { p.peersConnected.Dec() }

func (p *PrometheusCollector) StreamStarted(id domain.StreamID) {
	p.streamsActive.Inc()
}

func (p *PrometheusCollector) StreamEnded(id domain.StreamID) {
	p.streamsActive.Dec()
	p.streamViewers.DeleteLabelValues(string(id))
}

func (p *PrometheusCollector) ViewerCount(id domain.StreamID, n int) {
	p.streamViewers.WithLabelValues(string(id)).Set(float64(n))
}

func (p *PrometheusCollector) EventHandled(eventType string) {
	p.eventsTotal.WithLabelValues(eventType).Inc()
}

func (p *PrometheusCollector) ForwardRouted(eventType string) {
	p.forwardsTotal.WithLabelValues(eventType).Inc()
}

func (p *PrometheusCollector) ErrorReturned(code string) {
	p.errorsTotal.WithLabelValues(code).Inc()
}

func (p *PrometheusCollector) NotificationDropped() {
	p.notificationsDropped.Inc()
}
