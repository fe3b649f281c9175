// Package api provides the HTTP REST surface for the room service.
//
// The api package implements:
//   - Read-only room inspection endpoints
//   - Administrative room closing
//   - Aggregate service statistics
//   - WebSocket upgrade handling
//   - Health check
//
// Endpoints:
//
// Rooms:
//   - GET /api/rooms - List live rooms (order, limit query params)
//   - GET /api/rooms/{code} - Get one room's snapshot
//   - DELETE /api/rooms/{code} - Force-close a room, evicting its members
//
// Service:
//   - GET /api/stats - Room, player, and connection counts
//   - GET /healthz - Liveness probe
//
// WebSocket:
//   - /ws - Client protocol entry point (see transport/websocket)
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Room codes in paths are matched
// case-insensitively.
//
// Usage:
//
//	server := api.NewServer(roomService, hub)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "room not found"
//	}
//
// Membership is deliberately not exposed over REST: creating, joining,
// and leaving rooms are tied to a live WebSocket connection identity.
package api
