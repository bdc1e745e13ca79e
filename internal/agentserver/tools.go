package agentserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/orchestrator"
)

// registerTools wires every engine operation onto the MCP server.
func (a *AgentServer) registerTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("notebook_connect",
		mcp.WithDescription("Connect to a Jupyter notebook server, launching one locally unless a URI is given"),
		mcp.WithString("uri", mcp.Description("Remote server URI, e.g. https://host:8888/?token=...")),
		mcp.WithString("purpose", mcp.Description("Connection purpose: interactive or notebook"), mcp.Enum("interactive", "notebook")),
		mcp.WithBoolean("debug", mcp.Description("Request kernel debugging support")),
		mcp.WithBoolean("default_config", mcp.Description("Force default Jupyter configuration for a local launch")),
	), a.handleConnect)

	s.AddTool(mcp.NewTool("notebook_disconnect",
		mcp.WithDescription("Dispose a connected server and its local resources"),
		mcp.WithString("server_id", mcp.Required(), mcp.Description("Handle returned by notebook_connect")),
	), a.handleDisconnect)

	s.AddTool(mcp.NewTool("notebook_import",
		mcp.WithDescription("Convert a notebook file to a Python script and return the text"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to the .ipynb file")),
	), a.handleImport)

	s.AddTool(mcp.NewTool("notebook_spawn",
		mcp.WithDescription("Launch a notebook server pointed at a file; the caller owns the process"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to the notebook file to open")),
	), a.handleSpawn)

	s.AddTool(mcp.NewTool("kernelspec_list",
		mcp.WithDescription("List the kernel specs installed on this machine"),
	), a.handleKernelSpecList)

	s.AddTool(mcp.NewTool("kernelspec_match",
		mcp.WithDescription("Resolve the kernel spec best matching the active interpreter"),
	), a.handleKernelSpecMatch)

	s.AddTool(mcp.NewTool("jupyter_capabilities",
		mcp.WithDescription("Probe which Jupyter capabilities are available"),
	), a.handleCapabilities)

	s.AddTool(mcp.NewTool("engine_status",
		mcp.WithDescription("List connected server handles"),
	), a.handleStatus)

	s.AddTool(mcp.NewTool("interpreter_changed",
		mcp.WithDescription("Notify the engine that the active interpreter changed so caches reset"),
		mcp.WithString("python_path", mcp.Description("New interpreter path; empty keeps the configured one")),
	), a.handleInterpreterChanged)

	s.AddTool(mcp.NewTool("config_changed",
		mcp.WithDescription("Notify the engine that workspace Jupyter configuration changed"),
	), a.handleConfigChanged)
}

func (a *AgentServer) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	options := orchestrator.ConnectOptions{
		URI:              request.GetString("uri", ""),
		Purpose:          jupyter.Purpose(request.GetString("purpose", string(jupyter.PurposeInteractive))),
		EnableDebugging:  request.GetBool("debug", false),
		UseDefaultConfig: request.GetBool("default_config", false),
	}

	connected, err := a.application.Engine.ConnectToNotebookServer(ctx, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("connect failed: %v", err)), nil
	}

	id := a.track(connected)
	info := map[string]interface{}{
		"server_id":    id,
		"base_url":     connected.LaunchInfo.ConnectionInfo.BaseURL,
		"local_launch": connected.LaunchInfo.ConnectionInfo.LocalLaunch,
	}
	if spec := connected.LaunchInfo.KernelSpec; spec != nil {
		info["kernel_spec"] = spec.Name
	}
	if kernel := connected.Kernel(); kernel != nil {
		info["kernel_id"] = kernel.ID
	}
	return jsonResult(info)
}

func (a *AgentServer) handleDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("server_id")
	if err != nil {
		return mcp.NewToolResultError("server_id parameter is required"), nil
	}
	connected := a.take(id)
	if connected == nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown server handle: %s", id)), nil
	}
	connected.Dispose()
	return mcp.NewToolResultText(fmt.Sprintf("disposed %s", id)), nil
}

func (a *AgentServer) handleImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file parameter is required"), nil
	}
	text, err := a.application.Engine.ImportNotebook(ctx, file)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (a *AgentServer) handleSpawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file parameter is required"), nil
	}
	spawned, err := a.application.Engine.SpawnNotebook(ctx, file)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("spawn failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"pid": spawned.PID})
}

func (a *AgentServer) handleKernelSpecList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	specs, err := a.application.Matcher.ListKernelSpecs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("kernel spec listing failed: %v", err)), nil
	}
	entries := make([]map[string]interface{}, 0, len(specs))
	for _, spec := range specs {
		entries = append(entries, map[string]interface{}{
			"name":         spec.Name,
			"display_name": spec.DisplayName,
			"language":     spec.Language,
			"path":         spec.Path,
		})
	}
	return jsonResult(map[string]interface{}{"kernelspecs": entries})
}

func (a *AgentServer) handleKernelSpecMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, err := a.application.Matcher.GetMatchingKernelSpec(ctx, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("kernel spec match failed: %v", err)), nil
	}
	if spec == nil {
		return mcp.NewToolResultText("no matching kernel spec"), nil
	}
	return jsonResult(map[string]interface{}{
		"name":         spec.Name,
		"display_name": spec.DisplayName,
		"language":     spec.Language,
		"argv":         spec.Argv,
		"path":         spec.Path,
	})
}

func (a *AgentServer) handleCapabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	engine := a.application.Engine
	return jsonResult(map[string]interface{}{
		"notebook":        engine.IsNotebookSupported(ctx),
		"import":          engine.IsImportSupported(ctx),
		"kernel_create":   engine.IsKernelCreateSupported(ctx),
		"kernelspec_list": engine.IsKernelSpecSupported(ctx),
		"spawn":           engine.IsSpawnSupported(ctx),
	})
}

func (a *AgentServer) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := a.snapshot()
	sort.Strings(ids)
	return jsonResult(map[string]interface{}{"connected_servers": ids})
}

func (a *AgentServer) handleInterpreterChanged(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if path := request.GetString("python_path", ""); path != "" {
		a.application.Locator.SetActivePath(path)
	}
	a.application.InterpreterChanges.Fire()
	return mcp.NewToolResultText("interpreter change applied"), nil
}

func (a *AgentServer) handleConfigChanged(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a.application.ConfigChanges.Fire()
	return mcp.NewToolResultText("configuration change applied"), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
