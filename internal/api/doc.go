// Package api implements the HTTP REST API and WebSocket server for the seat planner.
//
// This package provides:
//   - REST endpoints for arrangement sessions: seat clicks, layout changes,
//     row offsets, row leaders, auto placement and undo/redo
//   - Emergency preview and apply, with attendance and MQTT follow-up
//   - Workflow navigation and the final publish/share step
//   - Member directory and absence endpoints backed by the roster
//   - WebSocket hub broadcasting "arrangement.changed" events
//   - Middleware stack (request ID, logging, metrics, recovery, CORS)
//   - Prometheus exposition at /metrics
//
// # Architecture
//
// Handlers never touch a Store directly. Every edit runs inside
// arrangement.Session.Do, which serializes access to the store and workflow
// machine of one arrangement. Persistence and publication happen after the
// in-memory commit; a failed publication never rolls back a saved
// arrangement.
//
// # Graceful Degradation
//
// The server operates without MQTT or InfluxDB. Editing and saving work;
// publish and share return 503 when no broker is connected.
package api
