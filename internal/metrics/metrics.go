package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for the streaming client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	Replies         *prometheus.CounterVec
	RequestTimeouts *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PongLatency     prometheus.Histogram
	Frames          *prometheus.CounterVec
	Unrouted        prometheus.Counter
	Malformed       prometheus.Counter
	Reconnects      prometheus.Counter
	Connected       prometheus.Gauge
	Subscriptions   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_requests_total",
				Help: "Outbound correlated requests by event",
			},
			[]string{"event"},
		),
		Replies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_replies_total",
				Help: "Matched replies by event and status",
			},
			[]string{"event", "status"},
		),
		RequestTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_request_timeouts_total",
				Help: "Requests abandoned without a reply",
			},
			[]string{"event"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptuff_ws_request_duration_seconds",
				Help:    "Time from sending a request to receiving its reply",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"event"},
		),
		PongLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cryptuff_ws_pong_latency_seconds",
				Help:    "Keep-alive ping round trip",
				Buckets: prometheus.DefBuckets,
			},
		),
		Frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_frames_total",
				Help: "Inbound frames by kind",
			},
			[]string{"kind"},
		),
		Unrouted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_unrouted_frames_total",
				Help: "Data frames for channels with no registered subscriber",
			},
		),
		Malformed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_malformed_frames_total",
				Help: "Inbound frames that failed to decode",
			},
		),
		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptuff_ws_reconnects_total",
				Help: "Successful reconnections after an unexpected close",
			},
		),
		Connected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptuff_ws_connected",
				Help: "1 while the stream is connected",
			},
		),
		Subscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptuff_ws_subscriptions",
				Help: "Channels currently in the subscription registry",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Requests, m.Replies, m.RequestTimeouts, m.RequestDuration,
			m.PongLatency, m.Frames, m.Unrouted, m.Malformed,
			m.Reconnects, m.Connected, m.Subscriptions,
		)
	}
	return m
}

func (m *Metrics) RequestSent(event string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(event).Inc()
}

func (m *Metrics) ReplyReceived(event, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(event, status).Inc()
	m.RequestDuration.WithLabelValues(event).Observe(elapsed.Seconds())
}

func (m *Metrics) RequestTimedOut(event string) {
	if m == nil {
		return
	}
	m.RequestTimeouts.WithLabelValues(event).Inc()
}

func (m *Metrics) Pong(rtt time.Duration) {
	if m == nil {
		return
	}
	m.PongLatency.Observe(rtt.Seconds())
}

func (m *Metrics) Frame(kind string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(kind).Inc()
}

func (m *Metrics) FrameUnrouted() {
	if m == nil {
		return
	}
	m.Unrouted.Inc()
}

func (m *Metrics) FrameMalformed() {
	if m == nil {
		return
	}
	m.Malformed.Inc()
}

func (m *Metrics) Reconnected() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

func (m *Metrics) SetSubscriptions(n int) {
	if m == nil {
		return
	}
	m.Subscriptions.Set(float64(n))
}
