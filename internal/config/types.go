// Package config loads and layers jupyterd configuration: compiled defaults,
// the user-level file, then the project-level file.
package config

// Config is the top-level configuration structure for jupyterd.
type Config struct {
	Logging LoggingSettings `yaml:"logging"`
	Jupyter JupyterSettings `yaml:"jupyter"`
	Agent   AgentSettings   `yaml:"agent"`
}

// LoggingSettings controls log output.
type LoggingSettings struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// JupyterSettings configures the execution engine.
type JupyterSettings struct {
	// PythonPath pins the active interpreter. Empty means discover one.
	PythonPath string `yaml:"pythonPath,omitempty"`

	// SearchPaths overrides the well-known interpreter locations.
	SearchPaths []string `yaml:"searchPaths,omitempty"`

	// MaxConnectRetries bounds the connect retry loop. Only kernel-idle
	// timeouts are retried; every other failure kind is final.
	MaxConnectRetries int `yaml:"maxConnectRetries,omitempty"`

	// RemoteURI points connections at an already-running server instead of
	// launching one, e.g. "https://host:8888/?token=...".
	RemoteURI string `yaml:"remoteURI,omitempty"`

	// SavedKernelSpec is the kernel spec to reuse for remote connections,
	// where no disk enumeration happens.
	SavedKernelSpec *SavedKernelSpec `yaml:"savedKernelSpec,omitempty"`

	// ServerInfoTimeoutSeconds bounds the wait for a launched server to
	// publish its connection info.
	ServerInfoTimeoutSeconds int `yaml:"serverInfoTimeoutSeconds,omitempty"`

	// Debug passes --debug to the notebook server. The JUPYTERD_JUPYTER_DEBUG
	// environment variable also enables it.
	Debug bool `yaml:"debug,omitempty"`
}

// SavedKernelSpec is a kernel spec persisted in configuration.
type SavedKernelSpec struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"displayName,omitempty"`
	Language    string   `yaml:"language,omitempty"`
	Argv        []string `yaml:"argv,omitempty"`
	Path        string   `yaml:"path,omitempty"`
}

// AgentSettings configures the MCP agent server started by `jupyterd serve`.
type AgentSettings struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	Transport string `yaml:"transport,omitempty"` // sse or stdio
}
