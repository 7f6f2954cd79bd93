package hub_tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clientworkaccess-cmd/integration--hub/internal/server"
	"github.com/clientworkaccess-cmd/integration--hub/internal/tools/common"
)

// Tool names.
const (
	ToolListIntegrations      = "hub_list_integrations"
	ToolConnectionState       = "hub_connection_state"
	ToolConnectIntegration    = "hub_connect_integration"
	ToolSetIdentity           = "hub_set_identity"
	ToolCompleteAuthorization = "hub_complete_authorization"
	ToolDismissNotice         = "hub_dismiss_notice"
)

const argCallbackURL = "callbackUrl"

// RegisterHubTools registers all hub tools with the MCP server
func RegisterHubTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if s == nil || sc == nil {
		return fmt.Errorf("MCP server and server context are required")
	}

	s.AddTool(mcp.NewTool(ToolListIntegrations,
		mcp.WithDescription("List the integrations in the catalog with their connection status"),
		mcp.WithReadOnlyHintAnnotation(true),
	), common.InstrumentedToolHandler(ToolListIntegrations, sc, handleListIntegrations(sc)))

	s.AddTool(mcp.NewTool(ToolConnectionState,
		mcp.WithDescription("Show the current connection state: phase, error or success notice, stored email and integrations"),
		mcp.WithReadOnlyHintAnnotation(true),
	), common.InstrumentedToolHandler(ToolConnectionState, sc, handleConnectionState(sc)))

	if readOnly {
		return nil
	}

	s.AddTool(mcp.NewTool(ToolConnectIntegration,
		mcp.WithDescription("Start connecting an integration. Returns the authorization URL to open, or asks for an email first"),
		mcp.WithString(common.ArgIntegrationID,
			mcp.Required(),
			mcp.Description("ID of the integration, e.g. github-1"),
		),
		mcp.WithOpenWorldHintAnnotation(false),
	), common.InstrumentedToolHandler(ToolConnectIntegration, sc, handleConnectIntegration(sc)))

	s.AddTool(mcp.NewTool(ToolSetIdentity,
		mcp.WithDescription("Store the email that is sent along with the authorization code, and get the authorization URL"),
		mcp.WithString(common.ArgEmail,
			mcp.Required(),
			mcp.Description("Email address of the user"),
		),
		mcp.WithIdempotentHintAnnotation(true),
	), common.InstrumentedToolHandler(ToolSetIdentity, sc, handleSetIdentity(sc)))

	s.AddTool(mcp.NewTool(ToolCompleteAuthorization,
		mcp.WithDescription("Complete an authorization with the URL the provider redirected the browser to. Relays the code to the webhook"),
		mcp.WithString(argCallbackURL,
			mcp.Required(),
			mcp.Description("Full callback URL including the code parameter"),
		),
		mcp.WithOpenWorldHintAnnotation(true),
	), common.InstrumentedToolHandler(ToolCompleteAuthorization, sc, handleCompleteAuthorization(sc)))

	s.AddTool(mcp.NewTool(ToolDismissNotice,
		mcp.WithDescription("Dismiss the current success or error notice"),
		mcp.WithIdempotentHintAnnotation(true),
	), common.InstrumentedToolHandler(ToolDismissNotice, sc, handleDismissNotice(sc)))

	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
