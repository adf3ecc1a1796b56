package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/auth"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/pkg/logging"
)

// Server is the MCP server with its transports and dispatch pipeline.
type Server struct {
	cfg      *config.Config
	verifier auth.Verifier
	registry *Registry
	mcp      *mcpserver.MCPServer

	mu         sync.Mutex
	httpServer *http.Server
	cancel     context.CancelFunc
}

// New builds a server. The verifier may be nil when authentication is
// disabled.
func New(cfg *config.Config, verifier auth.Verifier, version string) *Server {
	s := &Server{
		cfg:      cfg,
		verifier: verifier,
		registry: NewRegistry(),
	}
	s.mcp = mcpserver.NewMCPServer(
		cfg.Server.Name,
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
	)
	return s
}

// RegisterTool adds a tool to the registry and exposes it over MCP.
// The required scope is appended to the advertised description so
// clients can see the gate in tools/list.
func (s *Server) RegisterTool(d ToolDescriptor) {
	if d.RequiredScope != "" {
		d.Tool.Description = fmt.Sprintf("%s Requires scope %q.", d.Tool.Description, d.RequiredScope)
	}
	s.registry.Register(d)
	s.mcp.AddTool(d.Tool, s.toolHandler(d.Tool.Name))
}

// RegisterPrompt exposes a prompt over MCP.
func (s *Server) RegisterPrompt(p mcp.Prompt, handler mcpserver.PromptHandlerFunc) {
	s.mcp.AddPrompt(p, handler)
}

// Registry returns the tool registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) toolHandler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]interface{})
		return s.Dispatch(ctx, name, args).MCPResult(), nil
	}
}

// Dispatch runs one tool invocation through the pipeline: resolve the
// tool, authenticate, authorize, execute, envelope. It never returns a
// bare error; every outcome is an Envelope.
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]interface{}) Envelope {
	reqID := uuid.NewString()[:8]

	d, ok := s.registry.Get(name)
	if !ok {
		logging.Warn("Dispatcher", "[%s] Unknown tool %q", reqID, name)
		return FailureEnvelope(apierr.New(apierr.KindNotFound, "unknown tool %q", name))
	}

	identity, err := s.authenticate(ctx)
	if err != nil {
		logging.Warn("Dispatcher", "[%s] Authentication failed for %q: %v", reqID, name, err)
		return FailureEnvelope(err)
	}

	if err := auth.RequireScope(identity, d.RequiredScope); err != nil {
		logging.Warn("Dispatcher", "[%s] Caller %q denied for %q: %v", reqID, identity.Subject, name, err)
		return FailureEnvelope(err)
	}

	logging.Debug("Dispatcher", "[%s] Caller %q invoking %q", reqID, identity.Subject, name)
	payload, err := d.Handler(auth.WithIdentity(ctx, identity), args)
	if err != nil {
		logging.Error("Dispatcher", err, "[%s] Tool %q failed", reqID, name)
		return FailureEnvelope(err)
	}
	return SuccessEnvelope(payload)
}

func (s *Server) authenticate(ctx context.Context) (*auth.Identity, error) {
	if !s.cfg.Auth.Enabled {
		return auth.DevelopmentIdentity(s.cfg.Auth.Scopes.All()), nil
	}
	raw, ok := auth.BearerFromContext(ctx)
	if !ok {
		return nil, apierr.New(apierr.KindAuth, "missing bearer token")
	}
	return s.verifier.Verify(ctx, raw)
}

// Start brings up the configured transport. It returns once the
// transport is listening; serving continues in the background until
// Stop is called or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	switch s.cfg.Server.Transport {
	case config.TransportStdio:
		logging.Info("Server", "Starting MCP server on stdio")
		stdio := mcpserver.NewStdioServer(s.mcp)
		go func() {
			if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				logging.Error("Server", err, "Stdio server error")
			}
		}()
		return nil

	case config.TransportSSE:
		logging.Info("Server", "Starting MCP server with SSE transport on %s", addr)
		sse := mcpserver.NewSSEServer(
			s.mcp,
			mcpserver.WithBaseURL(fmt.Sprintf("http://%s", addr)),
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
			mcpserver.WithKeepAlive(true),
			mcpserver.WithKeepAliveInterval(30*time.Second),
			mcpserver.WithSSEContextFunc(auth.HTTPContextFunc),
		)
		mux := http.NewServeMux()
		mux.Handle("/sse", sse.SSEHandler())
		mux.Handle("/message", sse.MessageHandler())
		mux.HandleFunc("/healthz", s.handleHealth)
		return s.serveHTTP(addr, mux)

	case config.TransportStreamableHTTP:
		logging.Info("Server", "Starting MCP server with streamable HTTP transport on %s", addr)
		streamable := mcpserver.NewStreamableHTTPServer(
			s.mcp,
			mcpserver.WithHTTPContextFunc(auth.HTTPContextFunc),
		)
		mux := http.NewServeMux()
		mux.Handle("/mcp", streamable)
		mux.HandleFunc("/healthz", s.handleHealth)
		return s.serveHTTP(addr, mux)

	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Server.Transport)
	}
}

func (s *Server) serveHTTP(addr string, handler http.Handler) error {
	s.httpServer = &http.Server{Addr: addr, Handler: handler}
	httpServer := s.httpServer
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Server", err, "HTTP server error")
		}
	}()
	return nil
}

// handleHealth reports process liveness only; it never calls ServiceNow.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","server":%q}`, s.cfg.Server.Name)
}

// Stop shuts the transport down, allowing in-flight HTTP requests a
// short grace period.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	httpServer := s.httpServer
	s.cancel = nil
	s.httpServer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if httpServer != nil {
		shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
		defer done()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
	}
	logging.Info("Server", "MCP server stopped")
	return nil
}
