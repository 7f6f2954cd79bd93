package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/clientworkaccess-cmd/integration--hub/internal/catalog"
	"github.com/clientworkaccess-cmd/integration--hub/internal/gateway"
	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
	"github.com/clientworkaccess-cmd/integration--hub/internal/server"
)

type nopRelay struct{}

func (nopRelay) Deliver(context.Context, string, string) error { return nil }

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	gw, err := gateway.New(gateway.Config{ClientID: "client-123"})
	require.NoError(t, err)
	orch, err := hub.New(hub.Config{}, hub.Deps{
		Store:   identity.NewMemoryStore(),
		Catalog: catalog.Default(),
		Gateway: gw,
		Relay:   nopRelay{},
	})
	require.NoError(t, err)
	sc, err := server.NewServerContext(context.Background(), orch, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// auditRecords installs an audit logger writing JSON into a buffer and
// returns a function decoding the records written so far.
func auditRecords(t *testing.T, sc *server.ServerContext) func() []map[string]any {
	t.Helper()
	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	return func() []map[string]any {
		var records []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			records = append(records, rec)
		}
		return records
	}
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})

	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc := newServerContext(t)
	records := auditRecords(t, sc)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.ErrorIs(t, err, expectedErr)

	recs := records()
	require.Len(t, recs, 1)
	assert.Equal(t, "tool_failed", recs[0]["msg"])
	assert.Equal(t, "test error", recs[0]["error"])
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	sc := newServerContext(t)
	records := auditRecords(t, sc)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("error message"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	require.Len(t, records(), 1)
	assert.Equal(t, false, records()[0]["success"])
}

func TestInstrumentedToolHandler_AuditArguments(t *testing.T) {
	sc := newServerContext(t)
	records := auditRecords(t, sc)

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}
	req := callTool(map[string]any{ArgIntegrationID: "github-1", ArgEmail: "jane@example.com"})

	_, err = InstrumentedToolHandler("hub_connect_integration", sc, handler)(context.Background(), req)
	require.NoError(t, err)

	recs := records()
	require.Len(t, recs, 1)
	assert.Equal(t, "tool_executed", recs[0]["msg"])
	assert.Equal(t, "hub_connect_integration", recs[0]["tool"])
	assert.Equal(t, "github-1", recs[0]["integration_id"])
	assert.Equal(t, "example.com", recs[0]["user_domain"])
	assert.NotContains(t, recs[0], "user", "email is hashed unless PII logging is enabled")
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"a": "x", "b": 3}
	assert.Equal(t, "x", StringArg(args, "a"))
	assert.Empty(t, StringArg(args, "b"))
	assert.Empty(t, StringArg(args, "missing"))
	assert.Empty(t, StringArg(nil, "a"))
}
