// Package publish delivers finished and changed arrangements to the
// outside world.
//
// Outbound, over MQTT:
//
//	step 7 publish  ──► seatplan/arrangement/{id}/published  (retained)
//	step 7 share    ──► seatplan/arrangement/{id}/shared
//	emergency apply ──► seatplan/arrangement/{id}/emergency
//	                └─► seatplan/attendance/{member}/notice  (removals)
//
// Inbound, over MQTT:
//
//	seatplan/attendance/{member}/report ──► AbsenceRecorder.MarkUnavailable
//
// Telemetry for emergencies and arrangement snapshots goes to InfluxDB
// when a Telemetry sink is configured. Both the broker and the sink are
// optional; a Publisher without a broker returns ErrTransportDisabled
// from the MQTT operations and still records telemetry.
//
// Publication happens after the in-memory commit and the save; a failed
// publish never rolls an arrangement back.
package publish
