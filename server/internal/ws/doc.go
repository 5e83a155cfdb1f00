// Package ws implements the WebSocket hub for embermeter-server.
//
// Hub manages the set of connected overlay clients. A ticker loop pushes
// the derived rows frame on a configurable interval (default 250ms in
// production); the buff projection loop injects its own frames through
// Publish between ticks.
//
// New(interval, build) creates a Hub; build produces the rows frame.
// Hub.Run(ctx) starts the broadcast ticker — blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends a rows
// frame immediately on connect, then streams updates.
//
// Frame format sent to clients:
//
//	{
//	  "event": "rows" | "buffs",
//	  "data":  { /* rows: header + player rows; buffs: same schema as GET /api/v1/buffs */ }
//	}
//
// The upgrader accepts all origins. WebSocket endpoint is mounted at
// /ws/stream by the server.
package ws
