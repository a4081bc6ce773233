package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// CatalogFetcher fetches a server's live tool catalog.
type CatalogFetcher interface {
	Fetch(ctx context.Context, entry *ServerEntry) ([]CatalogTool, error)
}

// MCPFetcher speaks the MCP protocol (streamable HTTP or SSE) to list a
// remote server's tools.
type MCPFetcher struct {
	logger *zap.Logger
}

// NewMCPFetcher creates an MCPFetcher.
func NewMCPFetcher(logger *zap.Logger) *MCPFetcher {
	return &MCPFetcher{logger: logger}
}

// headerTransport injects the registry entry's static headers into every
// request the MCP client makes.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

func httpClientFor(entry *ServerEntry) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if len(entry.Headers) > 0 {
		client.Transport = &headerTransport{base: http.DefaultTransport, headers: entry.Headers}
	}
	return client
}

// Fetch connects to the server, pages through tools/list, and returns the
// catalog. The caller bounds the total duration through ctx.
func (f *MCPFetcher) Fetch(ctx context.Context, entry *ServerEntry) ([]CatalogTool, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "rampart-pinner", Version: "1.0.0"}, nil)

	var transport mcp.Transport
	switch entry.Transport {
	case TransportSSE:
		transport = &mcp.SSEClientTransport{Endpoint: entry.URL, HTTPClient: httpClientFor(entry)}
	case TransportStreamableHTTP, "":
		transport = &mcp.StreamableClientTransport{Endpoint: entry.URL, HTTPClient: httpClientFor(entry)}
	default:
		return nil, fmt.Errorf("unsupported transport %q", entry.Transport)
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", entry.URL, err)
	}
	defer session.Close()

	var tools []CatalogTool
	cursor := ""
	for {
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("list tools on %s: %w", entry.URL, err)
		}
		for _, t := range res.Tools {
			tools = append(tools, CatalogTool{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schemaToMap(t.InputSchema),
			})
		}
		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}

	f.logger.Debug("fetched tool catalog",
		zap.String("server_id", entry.ServerID),
		zap.Int("tool_count", len(tools)),
	)
	return tools, nil
}

// schemaToMap round-trips the SDK's schema type through JSON so the pinner
// works with the same plain map shape it persists.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
