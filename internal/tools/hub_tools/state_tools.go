package hub_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clientworkaccess-cmd/integration--hub/internal/server"
	"github.com/clientworkaccess-cmd/integration--hub/internal/tools/common"
)

func handleListIntegrations(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sc.Hub().Catalog().List())
	}
}

func handleConnectionState(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sc.Hub().Snapshot(ctx))
	}
}

func handleDismissNotice(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sc.Hub().Dismiss()
		return mcp.NewToolResultText(fmt.Sprintf("Notice dismissed. Current phase: %s", sc.Hub().Phase())), nil
	}
}
