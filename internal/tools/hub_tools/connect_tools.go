package hub_tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/server"
	"github.com/clientworkaccess-cmd/integration--hub/internal/tools/common"
)

func handleConnectIntegration(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		integrationID, err := request.RequireString(common.ArgIntegrationID)
		if err != nil || integrationID == "" {
			return mcp.NewToolResultError("integrationId is required"), nil
		}

		res, err := sc.Hub().RequestConnect(ctx, integrationID)
		switch {
		case errors.Is(err, hub.ErrUnsupported):
			return mcp.NewToolResultError(hub.UnsupportedMessage(res.Integration.Name)), nil
		case err != nil:
			return mcp.NewToolResultError(fmt.Sprintf("Failed to connect %s: %v", integrationID, err)), nil
		}

		if res.Outcome == hub.ConnectIdentityRequired {
			return mcp.NewToolResultText(fmt.Sprintf(
				"An email address is required before connecting %s. Ask the user for it and call %s.",
				res.Integration.Name, ToolSetIdentity)), nil
		}
		return mcp.NewToolResultText(authorizeInstructions(res.Integration.Name, res.RedirectURL)), nil
	}
}

func handleSetIdentity(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		email, err := request.RequireString(common.ArgEmail)
		if err != nil {
			return mcp.NewToolResultError("email is required"), nil
		}

		redirectURL, err := sc.Hub().SubmitIdentity(ctx, email)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to store email: %v", err)), nil
		}

		name := "the integration"
		if it, ok := sc.Hub().Catalog().FindByID(sc.Hub().Snapshot(ctx).IntegrationID); ok {
			name = it.Name
		}
		return mcp.NewToolResultText(authorizeInstructions(name, redirectURL)), nil
	}
}

func handleCompleteAuthorization(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString(argCallbackURL)
		if err != nil {
			return mcp.NewToolResultError("callbackUrl is required"), nil
		}
		callback, err := url.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid callback URL: %v", err)), nil
		}

		res, err := sc.Hub().HandleLoad(ctx, callback)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to complete authorization: %v", err)), nil
		}

		switch res.Outcome {
		case hub.LoadNoCallback:
			return mcp.NewToolResultError("The URL does not contain an authorization code"), nil
		case hub.LoadFailed:
			return mcp.NewToolResultError(res.Reason), nil
		}
		return mcp.NewToolResultText(sc.Hub().Snapshot(ctx).Notice), nil
	}
}

func authorizeInstructions(name, redirectURL string) string {
	return fmt.Sprintf(`To connect %s:

1. Open this URL in your browser:
   %s

2. Approve access
3. The browser is sent back to the hub, which completes the connection.
   If the hub is not reachable from the browser, pass the final URL to %s.`,
		name, redirectURL, ToolCompleteAuthorization)
}
