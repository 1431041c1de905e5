// Package influxdb provides InfluxDB connectivity for the seat planner.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks.
//
// # Measurements
//
//	emergency_changes      tags: arrangement_id, kind, mode
//	                       fields: moved_members, cascade_steps
//	arrangement_snapshot   tags: arrangement_id, event
//	                       fields: rows, capacity, seated, unassigned, fill_ratio
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteEmergencyChange(influxdb.EmergencyPoint{...})
//
// Write failures surface asynchronously through SetOnError.
package influxdb
