// Package mcp implements the Model Context Protocol tool server that
// exposes Angela's Gmail and Calendar toolsets to local LLM agents. The
// protocol surface is the minimal HTTP dialect: capability discovery, tool
// listing, and tool calls with text content responses.
package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
)

// HandlerFunc executes one tool call. The returned text is shown to the
// calling model; a returned error becomes an isError response, never a 500.
type HandlerFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool describes a callable tool. InputSchema follows JSON Schema; the
// "required" list is enforced by the server before the handler runs.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`

	Handler HandlerFunc `json:"-"`
}

// Capabilities advertises which MCP features the server implements.
type Capabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
}

// ToolCallRequest is the body of POST /mcp/tools/call.
type ToolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCallResponse wraps tool output as MCP content parts.
type ToolCallResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is a single response part. Only text parts are produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolRecorder lands tool invocations in the audit trail. Implemented by
// service.AuditService.
type ToolRecorder interface {
	LogToolCalled(ctx context.Context, toolName string, metadata map[string]any)
}

// Server hosts registered tools over HTTP.
type Server struct {
	logger   *zap.Logger
	port     int
	apiKey   string
	recorder ToolRecorder

	tools map[string]Tool
	order []string

	httpServer *http.Server
}

func NewServer(cfg config.MCPConfig, logger *zap.Logger) *Server {
	return &Server{
		logger: logger,
		port:   cfg.Port,
		apiKey: cfg.APIKey,
		tools:  make(map[string]Tool),
	}
}

// SetRecorder sets the audit recorder. Optional; without one, tool calls
// only reach the log.
func (s *Server) SetRecorder(recorder ToolRecorder) {
	s.recorder = recorder
}

// Register adds tools. Call before serving starts; registration is not
// synchronized with request handling.
func (s *Server) Register(tools ...Tool) {
	for _, tool := range tools {
		if _, exists := s.tools[tool.Name]; !exists {
			s.order = append(s.order, tool.Name)
		}

		s.tools[tool.Name] = tool
	}
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []Tool {
	tools := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.tools[name])
	}

	return tools
}

// Handler builds the HTTP handler. /health stays open; the MCP endpoints
// require the bearer key when one is configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/capabilities", s.requireKey(s.handleCapabilities))
	mux.HandleFunc("/mcp/tools/list", s.requireKey(s.handleToolsList))
	mux.HandleFunc("/mcp/tools/call", s.requireKey(s.handleToolsCall))
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting mcp server",
		zap.String("addr", s.httpServer.Addr),
		zap.Int("tools", len(s.order)))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	if s.apiKey == "" {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		if token == header || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) != 1 {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		next(w, r)
	}
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, Capabilities{
		Tools:     true,
		Resources: false,
		Prompts:   false,
	})
}

func (s *Server) handleToolsList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"tools": s.Tools()})
}

func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeToolError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	tool, ok := s.tools[req.Name]
	if !ok {
		s.writeToolError(w, http.StatusOK, fmt.Sprintf("unknown tool: %s", req.Name))
		return
	}

	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	if missing := missingArgs(tool, req.Arguments); len(missing) > 0 {
		s.writeToolError(w, http.StatusOK, fmt.Sprintf("missing required arguments: %s", strings.Join(missing, ", ")))
		return
	}

	start := time.Now()

	text, err := tool.Handler(r.Context(), req.Arguments)
	s.record(r.Context(), req.Name, time.Since(start), err)
	if err != nil {
		s.logger.Warn("tool call failed",
			zap.String("tool", req.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))

		s.writeToolError(w, http.StatusOK, err.Error())

		return
	}

	s.logger.Info("tool call",
		zap.String("tool", req.Name),
		zap.Duration("duration", time.Since(start)))

	s.writeJSON(w, http.StatusOK, ToolCallResponse{
		Content: []Content{{Type: "text", Text: text}},
	})
}

// record writes the invocation to the audit trail, error included.
func (s *Server) record(ctx context.Context, tool string, elapsed time.Duration, callErr error) {
	if s.recorder == nil {
		return
	}

	metadata := map[string]any{"durationMs": elapsed.Milliseconds()}
	if callErr != nil {
		metadata["error"] = callErr.Error()
	}

	s.recorder.LogToolCalled(ctx, tool, metadata)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeToolError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ToolCallResponse{
		Content: []Content{{Type: "text", Text: msg}},
		IsError: true,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

// missingArgs checks the schema's required list against the provided
// arguments. Empty strings count as missing; the tools read them as unset.
func missingArgs(tool Tool, args map[string]any) []string {
	var required []string

	switch v := tool.InputSchema["required"].(type) {
	case []string:
		required = v
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok {
				required = append(required, name)
			}
		}
	}

	var missing []string

	for _, name := range required {
		value, ok := args[name]
		if !ok || value == nil {
			missing = append(missing, name)
			continue
		}

		if str, isStr := value.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, name)
		}
	}

	return missing
}
