package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestSent("subscribe")
	m.RequestSent("subscribe")
	m.ReplyReceived("subscribe", "subscribed", 20*time.Millisecond)
	m.RequestTimedOut("ping")
	m.Frame("data")
	m.FrameUnrouted()
	m.SetConnected(true)
	m.SetSubscriptions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("subscribe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Replies.WithLabelValues("subscribe", "subscribed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTimeouts.WithLabelValues("ping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues("data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unrouted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Subscriptions))

	m.SetConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Connected))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestSent("ping")
		m.ReplyReceived("ping", "", time.Millisecond)
		m.RequestTimedOut("ping")
		m.Pong(time.Millisecond)
		m.Frame("heartbeat")
		m.FrameUnrouted()
		m.FrameMalformed()
		m.Reconnected()
		m.SetConnected(true)
		m.SetSubscriptions(1)
	})
}
