// Package hub_tools provides MCP tools for the integration hub.
//
// Read-only tools list the catalog and report the connection state.
// The remaining tools drive the connection flow: start a connection,
// store the user's email, complete an authorization from the callback URL
// and dismiss notices. They are only registered when the server is not in
// read-only mode.
package hub_tools
