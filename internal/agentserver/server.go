// Package agentserver exposes the execution engine to editor agents over the
// Model Context Protocol. It is the integration boundary: the editor talks
// tools, the engine stays in charge of launch, retry, and teardown.
package agentserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hochshi/vscode-python/internal/app"
	"github.com/hochshi/vscode-python/internal/orchestrator"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "AgentServer"

// AgentServer serves engine operations as MCP tools.
type AgentServer struct {
	application *app.App
	version     string

	mu        sync.Mutex
	server    *server.MCPServer
	sseServer *server.SSEServer
	nextID    int
	connected map[string]*orchestrator.ConnectedServer
}

// New builds an agent server around a wired application.
func New(application *app.App, version string) *AgentServer {
	return &AgentServer{
		application: application,
		version:     version,
		connected:   make(map[string]*orchestrator.ConnectedServer),
	}
}

// Start runs the server until ctx is done. Transport is "sse" or "stdio".
func (a *AgentServer) Start(ctx context.Context) error {
	mcpServer := server.NewMCPServer(
		"jupyterd",
		a.version,
		server.WithToolCapabilities(true),
	)
	a.mu.Lock()
	a.server = mcpServer
	a.mu.Unlock()

	a.registerTools(mcpServer)

	settings := a.application.Config.Agent
	if settings.Transport == "stdio" {
		logging.Info(logSubsystem, "serving MCP over stdio")
		errCh := make(chan error, 1)
		go func() { errCh <- server.ServeStdio(mcpServer) }()
		select {
		case <-ctx.Done():
			a.shutdown()
			return ctx.Err()
		case err := <-errCh:
			a.shutdown()
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
	baseURL := fmt.Sprintf("http://%s", addr)
	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
	)
	a.mu.Lock()
	a.sseServer = sseServer
	a.mu.Unlock()

	logging.Info(logSubsystem, "serving MCP on %s", addr)
	errCh := make(chan error, 1)
	go func() {
		if err := sseServer.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		_ = sseServer.Shutdown(context.Background())
		a.shutdown()
		return ctx.Err()
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

// shutdown disposes every server connected through this agent, then the
// application's disposal registry.
func (a *AgentServer) shutdown() {
	a.mu.Lock()
	servers := make([]*orchestrator.ConnectedServer, 0, len(a.connected))
	for _, s := range a.connected {
		servers = append(servers, s)
	}
	a.connected = make(map[string]*orchestrator.ConnectedServer)
	a.mu.Unlock()

	for _, s := range servers {
		s.Dispose()
	}
	a.application.Shutdown()
	logging.Info(logSubsystem, "agent server stopped")
}

// track stores a connected server and returns its handle id.
func (a *AgentServer) track(s *orchestrator.ConnectedServer) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := fmt.Sprintf("server-%d", a.nextID)
	a.connected[id] = s
	return id
}

// take removes and returns a tracked server, nil if unknown.
func (a *AgentServer) take(id string) *orchestrator.ConnectedServer {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.connected[id]
	delete(a.connected, id)
	return s
}

// snapshot lists tracked server ids.
func (a *AgentServer) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.connected))
	for id := range a.connected {
		ids = append(ids, id)
	}
	return ids
}
