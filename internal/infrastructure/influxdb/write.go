package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the seat planner.
const (
	MeasurementEmergency   = "emergency_changes"
	MeasurementArrangement = "arrangement_snapshot"
)

// EmergencyPoint describes one applied emergency change.
type EmergencyPoint struct {
	ArrangementID string
	Kind          string // "removal" or "insertion"
	Mode          string // LEAVE_EMPTY, AUTO_PULL or MANUAL
	MovedMembers  int
	CascadeSteps  int
	At            time.Time
}

// ArrangementPoint summarises an arrangement when it is saved or published.
type ArrangementPoint struct {
	ArrangementID string
	Event         string // "saved" or "published"
	Rows          int
	Capacity      int
	Seated        int
	Unassigned    int
	At            time.Time
}

// WriteEmergencyChange records an applied emergency change.
//
// Tags are arrangement, kind and mode. The member is not a tag so series
// cardinality stays bounded by the number of arrangements.
func (c *Client) WriteEmergencyChange(p EmergencyPoint) {
	c.WritePointWithTime(MeasurementEmergency,
		map[string]string{
			"arrangement_id": p.ArrangementID,
			"kind":           p.Kind,
			"mode":           p.Mode,
		},
		map[string]interface{}{
			"moved_members": p.MovedMembers,
			"cascade_steps": p.CascadeSteps,
		},
		p.At,
	)
}

// WriteArrangementSnapshot records seat usage for an arrangement.
func (c *Client) WriteArrangementSnapshot(p ArrangementPoint) {
	fields := map[string]interface{}{
		"rows":       p.Rows,
		"capacity":   p.Capacity,
		"seated":     p.Seated,
		"unassigned": p.Unassigned,
	}
	if p.Capacity > 0 {
		fields["fill_ratio"] = float64(p.Seated) / float64(p.Capacity)
	}

	c.WritePointWithTime(MeasurementArrangement,
		map[string]string{
			"arrangement_id": p.ArrangementID,
			"event":          p.Event,
		},
		fields,
		p.At,
	)
}

// WritePoint writes a custom point stamped with the current time.
//
// Example:
//
//	client.WritePoint("roster",
//	    map[string]string{"part": "SOPRANO"},
//	    map[string]interface{}{"members": 12})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Time{})
}

// WritePointWithTime writes a custom point. A zero timestamp means now.
// Writes on a disconnected client are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() || c.writer == nil {
		return
	}
	if timestamp.IsZero() {
		timestamp = c.now()
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
