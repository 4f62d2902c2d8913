// Package mcp exposes the sandboxed file-access core as MCP tools.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls the sandbox service directly. The tool layer owns argument
// range validation; the core owns containment, deny policy, and caps.
package mcp
