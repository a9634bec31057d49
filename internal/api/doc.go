// Package api implements the HTTP REST API and WebSocket server for the
// sensor admin service.
//
// This package provides:
//   - REST endpoints for the sensor type catalogue and the sensor inventory
//   - Stateless endpoints that parse, render and format configuration text
//   - Current SVID readings, singly or in batches
//   - WebSocket hub broadcasting catalogue, inventory and reading changes
//   - JWT authentication for configured admin accounts, with login attempts
//     rate limited per client address
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Configuration editing
//
// Sensor type configurations travel either as INI-style text (config_text)
// or as an ordered JSON object (config). Parse failures answer 400 with the
// failure kind as the error code and, where there is one, the failing line:
//
//	{"status":400,"code":"malformed_line","message":"...","line":3,"raw":"oops"}
//
// Single values can be changed in place with
// PUT /sensor-types/{type}/config/{section}/{key}; the section "_" addresses
// keys outside any section.
//
// # Graceful Degradation
//
// Telemetry and the audit trail are optional. Without them the SVID and
// audit-log endpoints answer 503 and everything else keeps working.
package api
