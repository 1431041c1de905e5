package publish

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts outbound and inbound messages. A nil *Metrics records nothing.
type Metrics struct {
	messages *prometheus.CounterVec
	reports  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors with reg
// (prometheus.DefaultRegisterer if nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seatplan",
			Subsystem: "publish",
			Name:      "messages_total",
			Help:      "Messages published by kind and result.",
		}, []string{"kind", "result"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seatplan",
			Subsystem: "publish",
			Name:      "attendance_reports_total",
			Help:      "Attendance reports received by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) message(kind string, err error) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) report(err error) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
