// Package mcpbridge connects to an MCP server that mirrors the
// analytics backend's REST surface as tools. Tool names map 1:1 to
// REST paths: slashes become underscores, so /data/v1/metrics/overall
// is exposed as the tool data_v1_metrics_overall.
package mcpbridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"spyglass/pkg/logging"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MirrorClient talks to the protocol mirror. Callers own the client
// explicitly and inject it where needed; there is no process-global
// instance and no lazy construction.
type MirrorClient struct {
	client  *mcp.Client
	session *mcp.ClientSession
	logger  logging.Logger

	mu        sync.RWMutex
	toolIndex map[string]struct{}
}

// Config configures the mirror client.
type Config struct {
	// MirrorURL is the base URL of the MCP endpoint.
	MirrorURL string
	// ServiceToken authenticates the session, if the mirror requires it.
	ServiceToken string
	Logger       logging.Logger
}

// New connects to the mirror and discovers its tool surface.
func New(ctx context.Context, cfg Config) (*MirrorClient, error) {
	if cfg.MirrorURL == "" {
		return nil, fmt.Errorf("mcpbridge: MirrorURL is required")
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint: cfg.MirrorURL,
		HTTPClient: &http.Client{
			Transport: &authTransport{
				base:         http.DefaultTransport,
				serviceToken: cfg.ServiceToken,
			},
		},
	}

	impl := &mcp.Implementation{
		Name:    "spyglass",
		Version: "1.0.0",
	}
	client := mcp.NewClient(impl, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpbridge: connect to mirror: %w", err)
	}

	mc := &MirrorClient{
		client:  client,
		session: session,
		logger:  cfg.Logger,
	}

	if err := mc.refreshTools(ctx); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("mcpbridge: discover tools: %w", err)
	}

	return mc, nil
}

// ToolName maps an analytics REST path to its mirror tool name.
func ToolName(restPath string) string {
	return strings.ReplaceAll(strings.Trim(restPath, "/"), "/", "_")
}

// HasEndpoint reports whether the mirror exposes a tool for the REST path.
func (mc *MirrorClient) HasEndpoint(restPath string) bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	_, ok := mc.toolIndex[ToolName(restPath)]
	return ok
}

// InvokeEndpoint calls the mirror tool corresponding to a REST path
// and returns the text payload, which carries the same JSON the REST
// endpoint would have returned.
func (mc *MirrorClient) InvokeEndpoint(ctx context.Context, restPath string, args map[string]any) (string, error) {
	name := ToolName(restPath)

	result, err := mc.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcpbridge: call %s: %w", name, err)
	}

	if result.IsError {
		text := extractTextContent(result)
		if text != "" {
			return "", fmt.Errorf("mcpbridge: tool %s returned error: %s", name, text)
		}
		return "", fmt.Errorf("mcpbridge: tool %s returned error", name)
	}

	return extractTextContent(result), nil
}

// Close shuts down the MCP session.
func (mc *MirrorClient) Close() error {
	if mc.session != nil {
		return mc.session.Close()
	}
	return nil
}

// refreshTools fetches the tool list from the mirror and rebuilds the
// name index.
func (mc *MirrorClient) refreshTools(ctx context.Context) error {
	result, err := mc.session.ListTools(ctx, nil)
	if err != nil {
		return err
	}

	toolIndex := make(map[string]struct{}, len(result.Tools))
	for _, t := range result.Tools {
		toolIndex[t.Name] = struct{}{}
	}

	mc.mu.Lock()
	mc.toolIndex = toolIndex
	mc.mu.Unlock()

	if mc.logger != nil {
		mc.logger.WithField("count", len(toolIndex)).Info("Discovered mirror tools")
	}
	return nil
}

// extractTextContent joins all TextContent entries from a CallToolResult.
func extractTextContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// authTransport injects the service token into each HTTP request.
type authTransport struct {
	base         http.RoundTripper
	serviceToken string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.serviceToken)
	}
	return t.base.RoundTrip(req)
}
