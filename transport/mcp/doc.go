// Package mcp provides the Model Context Protocol surface for the room service.
//
// The mcp package implements:
//   - MCP server exposing the operational room API as tools
//   - Thin-client proxying to the REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools:
//   - list_rooms: List all live rooms with codes and player counts
//   - get_room: Get one room's members and capacity
//   - close_room: Force-close a room, evicting its members
//   - server_stats: Aggregate room, player, and connection counts
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: HTTP endpoint for remote MCP integration
//
// Architecture:
//
// The client never touches room state directly; every tool call turns
// into a REST request against the running server. That keeps a single
// code path for authorization and error mapping, and lets the MCP
// process run on a different host than the room server.
//
// Usage:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	httpServer := server.NewStreamableHTTPServer(client.GetMCPServer())
//	http.Handle("/mcp", httpServer)
//
// Membership operations (create, join, leave) are deliberately absent:
// they are bound to a live WebSocket connection identity and cannot be
// driven from a stateless tool call.
package mcp
