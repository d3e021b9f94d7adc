// Package api serves a small read-only HTTP API next to the monitor.
//
// Endpoints:
//
//	GET /api/v1/health   monitor and broker connection status
//	GET /api/v1/alarms   recent alarms from the journal (?limit=N, ?all=true)
//	GET /api/v1/ws       WebSocket stream of received messages
//
// WebSocket clients subscribe to the "message" channel and then receive one
// event per message the monitor prints:
//
//	{"type":"subscribe","id":"1","payload":{"channels":["message"]}}
//
// The API has no authentication and binds to 127.0.0.1 by default.
//
// Lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
