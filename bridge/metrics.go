package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for bridge activity. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	events        *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	upstreamFails *prometheus.CounterVec
	adminCommands *prometheus.CounterVec
}

// MustNewMetrics registers the bridge collectors with reg. Registration errors
// panic, matching promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wechat_intercom",
				Subsystem: "bridge",
				Name:      "events_total",
				Help:      "Inbound webhook events by origin and kind.",
			},
			[]string{"source", "kind"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wechat_intercom",
				Subsystem: "bridge",
				Name:      "deliveries_total",
				Help:      "Messages delivered to the messaging platform by delivery mode.",
			},
			[]string{"mode"},
		),
		upstreamFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wechat_intercom",
				Subsystem: "bridge",
				Name:      "upstream_failures_total",
				Help:      "Failed calls to the gateway, the messaging platform or the image host.",
			},
			[]string{"op"},
		),
		adminCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wechat_intercom",
				Subsystem: "bridge",
				Name:      "admin_commands_total",
				Help:      "Admin commands received from the bot identity.",
			},
			[]string{"verb"},
		),
	}
	reg.MustRegister(m.events, m.deliveries, m.upstreamFails, m.adminCommands)
	return m
}

func (m *Metrics) event(source, kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) delivery(mode string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(mode).Inc()
}

func (m *Metrics) upstreamFailure(op string) {
	if m == nil {
		return
	}
	m.upstreamFails.WithLabelValues(op).Inc()
}

func (m *Metrics) adminCommand(verb string) {
	if m == nil {
		return
	}
	m.adminCommands.WithLabelValues(verb).Inc()
}
