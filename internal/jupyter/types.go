// Package jupyter holds the data model shared across the execution engine:
// connection descriptors, launch parameters, the server-info wire format and
// the error taxonomy every component classifies against.
package jupyter

import (
	"encoding/json"
	"os/exec"

	"github.com/hochshi/vscode-python/internal/interpreters"
)

// Purpose tags a connection attempt so downstream consumers (telemetry, the
// editor) can distinguish interactive windows from notebook editors.
type Purpose string

const (
	PurposeInteractive Purpose = "interactive"
	PurposeNotebook    Purpose = "notebook"
)

// ConnectionInfo describes a running Jupyter server, local or remote.
// It is immutable once created; the orchestrator owns it until it is handed
// to a connected server, and Dispose releases whatever it owns.
type ConnectionInfo struct {
	BaseURL     string
	Token       string
	HostName    string
	LocalLaunch bool

	// LocalProcExitCode reports the exit code of the launched server process.
	// It returns nil until the process has exited, and is nil itself for
	// remote connections.
	LocalProcExitCode func() *int

	// dispose kills the local process and releases the working directory.
	// Nil for remote connections, which own no local resources.
	dispose func()
}

// NewLocalConnectionInfo builds a descriptor for a locally launched server.
// exitCode and dispose must both be provided: a local connection always owns
// a subprocess and a working directory.
func NewLocalConnectionInfo(baseURL, token, hostName string, exitCode func() *int, dispose func()) *ConnectionInfo {
	return &ConnectionInfo{
		BaseURL:           baseURL,
		Token:             token,
		HostName:          hostName,
		LocalLaunch:       true,
		LocalProcExitCode: exitCode,
		dispose:           dispose,
	}
}

// NewRemoteConnectionInfo builds a descriptor for an already-running remote
// server. A remote connection never owns a subprocess and never triggers
// local cleanup.
func NewRemoteConnectionInfo(baseURL, token, hostName string) *ConnectionInfo {
	return &ConnectionInfo{
		BaseURL:     baseURL,
		Token:       token,
		HostName:    hostName,
		LocalLaunch: false,
	}
}

// Dispose releases resources owned by this connection. Safe on remote
// descriptors, where it is a no-op.
func (c *ConnectionInfo) Dispose() {
	if c.dispose != nil {
		c.dispose()
	}
}

// KernelSpec describes how Jupyter launches a specific kernel. Read-only
// after construction except for ID, which is set when the spec is bound to a
// running kernel instance.
type KernelSpec struct {
	ID          string
	Name        string
	DisplayName string
	Language    string
	Argv        []string
	// Path is the interpreter the spec launches, Argv[0] after resolution.
	Path string
	// SpecFile is the on-disk kernel.json the spec was read from, empty for
	// specs enumerated from a remote server.
	SpecFile string
}

// specFileModel is the kernel.json wire format.
type specFileModel struct {
	Argv        []string `json:"argv"`
	DisplayName string   `json:"display_name"`
	Language    string   `json:"language"`
	Name        string   `json:"name,omitempty"`
}

// ParseKernelSpecFile decodes a kernel.json payload into a KernelSpec.
func ParseKernelSpecFile(name, specFile string, raw []byte) (*KernelSpec, error) {
	var model specFileModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, err
	}
	spec := &KernelSpec{
		Name:        name,
		DisplayName: model.DisplayName,
		Language:    model.Language,
		Argv:        model.Argv,
		SpecFile:    specFile,
	}
	if model.Name != "" {
		spec.Name = model.Name
	}
	if len(model.Argv) > 0 {
		spec.Path = model.Argv[0]
	}
	return spec, nil
}

// EncodeKernelSpecFile renders a KernelSpec back into kernel.json form,
// used after rewriting argv[0] on a synthesized spec.
func EncodeKernelSpecFile(spec *KernelSpec) ([]byte, error) {
	return json.MarshalIndent(specFileModel{
		Argv:        spec.Argv,
		DisplayName: spec.DisplayName,
		Language:    spec.Language,
		Name:        spec.Name,
	}, "", "  ")
}

// LaunchInfo aggregates everything a server needs on connect. Constructed
// fresh per connection attempt and never reused across retries.
type LaunchInfo struct {
	ConnectionInfo     *ConnectionInfo
	CurrentInterpreter *interpreters.Interpreter
	KernelSpec         *KernelSpec
	WorkingDir         string
	URI                string
	Purpose            Purpose
	EnableDebugging    bool
}

// SpawnedProcess is the caller-owned handle returned by fire-and-forget
// launches (SpawnNotebook). The caller decides when, or whether, to reap it.
type SpawnedProcess struct {
	Cmd *exec.Cmd
	PID int
}
