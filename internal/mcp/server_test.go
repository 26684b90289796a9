package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
)

func echoTool() Tool {
	return Tool{
		Name:        "echo",
		Description: "Echo the text argument back",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "echo: " + StringArg(args, "text"), nil
		},
	}
}

func newTestServer(t *testing.T, apiKey string, tools ...Tool) *httptest.Server {
	t.Helper()

	srv := NewServer(config.MCPConfig{Port: 0, APIKey: apiKey}, zap.NewNop())
	srv.Register(tools...)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func callTool(t *testing.T, ts *httptest.Server, body string) (*http.Response, ToolCallResponse) {
	t.Helper()

	resp, err := http.Post(ts.URL+"/mcp/tools/call", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var result ToolCallResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return resp, result
}

func TestServer_Capabilities(t *testing.T) {
	ts := newTestServer(t, "", echoTool())

	resp, err := http.Get(ts.URL + "/mcp/capabilities")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var caps Capabilities
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&caps))
	assert.True(t, caps.Tools)
	assert.False(t, caps.Resources)
	assert.False(t, caps.Prompts)
}

func TestServer_ToolsList(t *testing.T) {
	ts := newTestServer(t, "", echoTool(), Tool{
		Name:        "second",
		Description: "Another tool",
		InputSchema: map[string]any{"type": "object"},
		Handler:     func(ctx context.Context, args map[string]any) (string, error) { return "", nil },
	})

	resp, err := http.Get(ts.URL + "/mcp/tools/list")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Tools []map[string]any `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Tools, 2)
	assert.Equal(t, "echo", body.Tools[0]["name"])
	assert.Equal(t, "second", body.Tools[1]["name"])
	assert.NotNil(t, body.Tools[0]["inputSchema"])
	assert.NotContains(t, body.Tools[0], "Handler")
}

func TestServer_ToolsCall(t *testing.T) {
	ts := newTestServer(t, "", echoTool())

	resp, result := callTool(t, ts, `{"name": "echo", "arguments": {"text": "hello"}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, "echo: hello", result.Content[0].Text)
}

func TestServer_ToolsCallUnknownTool(t *testing.T) {
	ts := newTestServer(t, "", echoTool())

	resp, result := callTool(t, ts, `{"name": "nope", "arguments": {}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode, "unknown tool is a tool-level error, not a server error")
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "unknown tool: nope")
}

func TestServer_ToolsCallMalformedJSON(t *testing.T) {
	ts := newTestServer(t, "", echoTool())

	resp, result := callTool(t, ts, `{"name": `)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "invalid request")
}

func TestServer_ToolsCallMissingRequiredArgs(t *testing.T) {
	ts := newTestServer(t, "", echoTool())

	t.Run("absent argument", func(t *testing.T) {
		_, result := callTool(t, ts, `{"name": "echo", "arguments": {}}`)

		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "missing required arguments: text")
	})

	t.Run("blank string counts as missing", func(t *testing.T) {
		_, result := callTool(t, ts, `{"name": "echo", "arguments": {"text": "  "}}`)

		assert.True(t, result.IsError)
	})
}

func TestServer_ToolsCallHandlerError(t *testing.T) {
	failing := Tool{
		Name:        "fail",
		Description: "Always fails",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", fmt.Errorf("mailbox unreachable")
		},
	}
	ts := newTestServer(t, "", failing)

	resp, result := callTool(t, ts, `{"name": "fail", "arguments": {}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, result.IsError)
	assert.Equal(t, "mailbox unreachable", result.Content[0].Text)
}

type stubRecorder struct {
	tools    []string
	metadata []map[string]any
}

func (r *stubRecorder) LogToolCalled(ctx context.Context, toolName string, metadata map[string]any) {
	r.tools = append(r.tools, toolName)
	r.metadata = append(r.metadata, metadata)
}

func TestServer_RecordsToolCalls(t *testing.T) {
	failing := Tool{
		Name:        "fail",
		Description: "Always fails",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", fmt.Errorf("mailbox unreachable")
		},
	}

	srv := NewServer(config.MCPConfig{}, zap.NewNop())
	recorder := &stubRecorder{}
	srv.SetRecorder(recorder)
	srv.Register(echoTool(), failing)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	callTool(t, ts, `{"name": "echo", "arguments": {"text": "hi"}}`)
	callTool(t, ts, `{"name": "fail", "arguments": {}}`)
	callTool(t, ts, `{"name": "nope", "arguments": {}}`)

	require.Len(t, recorder.tools, 2, "only executed tools land in the trail")
	assert.Equal(t, "echo", recorder.tools[0])
	assert.Contains(t, recorder.metadata[0], "durationMs")
	assert.NotContains(t, recorder.metadata[0], "error")
	assert.Equal(t, "fail", recorder.tools[1])
	assert.Equal(t, "mailbox unreachable", recorder.metadata[1]["error"])
}

func TestServer_ToolsCallMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, "", echoTool())

	resp, err := http.Get(ts.URL + "/mcp/tools/call")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_BearerKey(t *testing.T) {
	ts := newTestServer(t, "secret-key", echoTool())

	t.Run("missing key rejected", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/mcp/tools/list")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/mcp/tools/list", nil)
		req.Header.Set("Authorization", "Bearer wrong")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("correct key accepted", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/mcp/tools/call",
			bytes.NewReader([]byte(`{"name": "echo", "arguments": {"text": "hi"}}`)))
		req.Header.Set("Authorization", "Bearer secret-key")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("health stays open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
