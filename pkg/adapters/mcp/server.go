// Package mcp exposes an Engine's sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/internal/presentation/graph"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SchemasURI is the resource describing the served schemas.
const SchemasURI = "reschema://schemas"

const shutdownTimeout = 5 * time.Second

// Engine is the part of reschema.Engine the MCP server drives.
type Engine interface {
	Schemas() []*schema.Schema
	Lookup(ctx context.Context, id string) (*reschema.Session, error)
	Dispatch(ctx context.Context, sessionID, schemaName, operation string, payload any) (*domain.Future, error)
}

var _ Engine = (*reschema.Engine)(nil)

// DispatchArgs are the arguments of the dispatch tool.
type DispatchArgs struct {
	SessionID string `json:"session_id"`
	Schema    string `json:"schema"`
	Operation string `json:"operation"`
	Payload   string `json:"payload,omitempty"`
	Wait      bool   `json:"wait,omitempty"`
}

// DispatchResponse reports the outcome of a dispatch.
type DispatchResponse struct {
	Accepted bool         `json:"accepted" jsonschema_description:"The action was dispatched"`
	Settled  bool         `json:"settled" jsonschema_description:"The operation completed before the response"`
	Result   any          `json:"result,omitempty" jsonschema_description:"The action or request response"`
	Error    string       `json:"error,omitempty" jsonschema_description:"The request error, if it failed"`
	State    domain.State `json:"state,omitempty" jsonschema_description:"The session tree after the dispatch"`
}

// SessionArgs identify a session, with optional selector props as JSON.
type SessionArgs struct {
	SessionID string `json:"session_id"`
	Props     string `json:"props,omitempty"`
}

// StateResponse carries a session tree.
type StateResponse struct {
	SessionID string       `json:"session_id"`
	State     domain.State `json:"state"`
}

// SelectResponse carries every schema's selected values.
type SelectResponse struct {
	SessionID string                    `json:"session_id"`
	Selected  map[string]map[string]any `json:"selected"`
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRequestTimeout bounds how long waiting dispatches block.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// Server wraps an Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	timeout   time.Duration
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		timeout:   15 * time.Second,
		mcpServer: server.NewMCPServer("reschema-mcp", strings.TrimSpace(reschema.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: r}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Invoke an operation of a schema in a session. The session is created if missing."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema name")),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation name")),
		mcp.WithString("payload", mcp.Description("JSON payload (a bare string is sent as is)")),
		mcp.WithBoolean("wait", mcp.Description("Wait for async operations to settle")),
		mcp.WithOutputSchema[DispatchResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("state",
		mcp.WithDescription("Get the global state tree of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleState))

	s.mcpServer.AddTool(mcp.NewTool("select",
		mcp.WithDescription("Evaluate every schema's selectors in a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("props", mcp.Description("JSON object passed to selectors as props")),
		mcp.WithOutputSchema[SelectResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the Mermaid diagram of every operation, highlighting a session's loading and failed schemas."),
		mcp.WithString("session_id", mcp.Description("Session to overlay (optional)")),
	), s.handleGraph)
}

func (s *Server) handleDispatch(ctx context.Context, _ mcp.CallToolRequest, args DispatchArgs) (DispatchResponse, error) {
	if args.SessionID == "" || args.Schema == "" || args.Operation == "" {
		return DispatchResponse{}, errors.New("session_id, schema and operation are required")
	}

	// Requests outlive the tool call unless the caller waits for them.
	future, err := s.engine.Dispatch(context.WithoutCancel(ctx), args.SessionID, args.Schema, args.Operation, decodePayload(args.Payload))
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}
	s.logger.Debug("MCP dispatch", "session_id", args.SessionID, "schema", args.Schema, "operation", args.Operation)

	resp := DispatchResponse{Accepted: true}
	if !future.Settled() && !args.Wait {
		return resp, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := future.Wait(waitCtx)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return resp, nil
	case err != nil:
		resp.Settled = true
		resp.Error = err.Error()
	default:
		resp.Settled = true
		resp.Result = result
	}

	sess, err := s.engine.Lookup(ctx, args.SessionID)
	if err == nil {
		resp.State = sess.State()
	}
	return resp, nil
}

func (s *Server) handleState(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (StateResponse, error) {
	sess, err := s.engine.Lookup(ctx, args.SessionID)
	if err != nil {
		return StateResponse{}, fmt.Errorf("state failed: %w", err)
	}
	return StateResponse{SessionID: sess.ID(), State: sess.State()}, nil
}

func (s *Server) handleSelect(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (SelectResponse, error) {
	sess, err := s.engine.Lookup(ctx, args.SessionID)
	if err != nil {
		return SelectResponse{}, fmt.Errorf("select failed: %w", err)
	}
	var props any
	if args.Props != "" {
		if err := json.Unmarshal([]byte(args.Props), &props); err != nil {
			return SelectResponse{}, fmt.Errorf("invalid props: %w", err)
		}
	}
	return SelectResponse{SessionID: sess.ID(), Selected: sess.Select(props)}, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schemas := s.engine.Schemas()
	var overlay *graph.Overlay

	if id := request.GetString("session_id", ""); id != "" {
		sess, err := s.engine.Lookup(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		overlay = graph.OverlayFromState(schemas, sess.State())
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(schemas, overlay)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SchemasURI, "Served schemas",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(describe(s.engine.Schemas()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode schemas: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SchemasURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

type schemaInfo struct {
	Name       string   `json:"name"`
	Namespace  string   `json:"namespace"`
	Operations []string `json:"operations"`
}

func describe(schemas []*schema.Schema) []schemaInfo {
	out := make([]schemaInfo, 0, len(schemas))
	for _, sc := range schemas {
		info := schemaInfo{Name: sc.Name(), Namespace: sc.Namespace()}
		for _, op := range sc.Operations() {
			info.Operations = append(info.Operations, op.Name)
		}
		out = append(out, info)
	}
	return out
}

// decodePayload parses raw as JSON, falling back to the raw string.
func decodePayload(raw string) any {
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
