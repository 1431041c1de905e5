package arrangement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nerrad567/seatplan-core/internal/seating"
)

// Metrics holds the Prometheus collectors for arrangement editing.
// A nil *Metrics records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	moves       *prometheus.CounterVec
	unassigned  prometheus.Counter
	emergencies *prometheus.CounterVec
	sessions    prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
//
// Parameters:
//   - reg: Registerer to register with (prometheus.DefaultRegisterer if nil)
//
// Returns:
//   - *Metrics: Collectors ready for use
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seatplan",
			Subsystem: "arrangement",
			Name:      "operations_total",
			Help:      "Committed arrangement operations by kind.",
		}, []string{"op"}),
		moves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seatplan",
			Subsystem: "engine",
			Name:      "moves_total",
			Help:      "Members moved by the reassignment engine, by reason.",
		}, []string{"reason"}),
		unassigned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "seatplan",
			Subsystem: "engine",
			Name:      "unassigned_total",
			Help:      "Members the reassignment engine could not seat.",
		}),
		emergencies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seatplan",
			Subsystem: "arrangement",
			Name:      "emergency_changes_total",
			Help:      "Applied emergency changes by kind and process mode.",
		}, []string{"kind", "mode"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "seatplan",
			Subsystem: "arrangement",
			Name:      "sessions",
			Help:      "Open arrangement editing sessions.",
		}),
	}
}

func (m *Metrics) operation(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

func (m *Metrics) engineResult(moved []seating.MoveRecord, unassigned int) {
	if m == nil {
		return
	}
	for _, mv := range moved {
		m.moves.WithLabelValues(string(mv.Reason)).Inc()
	}
	m.unassigned.Add(float64(unassigned))
}

func (m *Metrics) emergency(kind EmergencyKind, mode ProcessMode) {
	if m == nil {
		return
	}
	m.emergencies.WithLabelValues(string(kind), string(mode)).Inc()
}

func (m *Metrics) setSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
