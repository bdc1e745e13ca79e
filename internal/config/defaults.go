package config

const (
	// DefaultMaxConnectRetries bounds the connect retry loop when the
	// configuration does not say otherwise.
	DefaultMaxConnectRetries = 3

	// DefaultServerInfoTimeoutSeconds bounds the wait for a freshly launched
	// server to publish connection info.
	DefaultServerInfoTimeoutSeconds = 60
)

// GetDefaultConfig returns the compiled-in defaults that user and project
// files overlay.
func GetDefaultConfig() Config {
	return Config{
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		Jupyter: JupyterSettings{
			MaxConnectRetries:        DefaultMaxConnectRetries,
			ServerInfoTimeoutSeconds: DefaultServerInfoTimeoutSeconds,
		},
		Agent: AgentSettings{
			Host:      "localhost",
			Port:      8317,
			Transport: "sse",
		},
	}
}
