// Package cmd implements the command-line interface for integrationhub.
//
// This package provides the following commands:
//   - serve: Start the HTTP server (JSON API, state events, MCP) or an MCP stdio server
//   - connect: Connect an integration from the terminal and relay the callback
//   - relay: Deliver an authorization code to the webhook by hand
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Configuration is read from the environment, optionally seeded from a
// .env file, and overridden by flags that are set explicitly.
package cmd
