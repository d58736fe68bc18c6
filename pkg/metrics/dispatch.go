package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks notification delivery outcomes per channel.
type DispatchMetrics struct {
	sent    *prometheus.CounterVec
	failed  *prometheus.CounterVec
	retried *prometheus.CounterVec
}

// NewDispatchMetrics registers delivery metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sent_total",
		Help: "Notifications delivered successfully.",
	}, []string{"channel", "kind"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failed_total",
		Help: "Notifications that exhausted retries or failed permanently.",
	}, []string{"channel", "kind"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_retried_total",
		Help: "Transient delivery failures scheduled for retry.",
	}, []string{"channel", "kind"})
	reg.MustRegister(sent, failed, retried)
	return &DispatchMetrics{sent: sent, failed: failed, retried: retried}
}

func (d *DispatchMetrics) IncSent(channel, kind string) {
	if d == nil || d.sent == nil {
		return
	}
	d.sent.WithLabelValues(normalizeLabel(channel), normalizeLabel(kind)).Inc()
}

func (d *DispatchMetrics) IncFailed(channel, kind string) {
	if d == nil || d.failed == nil {
		return
	}
	d.failed.WithLabelValues(normalizeLabel(channel), normalizeLabel(kind)).Inc()
}

func (d *DispatchMetrics) IncRetried(channel, kind string) {
	if d == nil || d.retried == nil {
		return
	}
	d.retried.WithLabelValues(normalizeLabel(channel), normalizeLabel(kind)).Inc()
}
