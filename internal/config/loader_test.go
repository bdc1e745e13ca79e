package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigPaths(t *testing.T, userPath, projectPath string) {
	t.Helper()
	origUser := getUserConfigPath
	origProject := getProjectConfigPath
	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }
	t.Cleanup(func() {
		getUserConfigPath = origUser
		getProjectConfigPath = origProject
	})
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaultsOnly(t *testing.T) {
	withConfigPaths(t,
		filepath.Join(t.TempDir(), "missing", configFileName),
		filepath.Join(t.TempDir(), "missing", configFileName))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Equal(t, DefaultMaxConnectRetries, cfg.Jupyter.MaxConnectRetries)
	assert.Equal(t, DefaultServerInfoTimeoutSeconds, cfg.Jupyter.ServerInfoTimeoutSeconds)
}

func TestLoadConfigUserOverridesDefaults(t *testing.T) {
	userPath := writeConfigFile(t, t.TempDir(), `
logging:
  level: debug
jupyter:
  pythonPath: /opt/python/bin/python3
  maxConnectRetries: 5
`)
	withConfigPaths(t, userPath, filepath.Join(t.TempDir(), "missing", configFileName))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/opt/python/bin/python3", cfg.Jupyter.PythonPath)
	assert.Equal(t, 5, cfg.Jupyter.MaxConnectRetries)
	// Untouched fields keep their defaults.
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, DefaultServerInfoTimeoutSeconds, cfg.Jupyter.ServerInfoTimeoutSeconds)
}

func TestLoadConfigProjectOverridesUser(t *testing.T) {
	userPath := writeConfigFile(t, t.TempDir(), `
jupyter:
  pythonPath: /user/python
  remoteURI: https://user-host:8888/?token=u
`)
	projectPath := writeConfigFile(t, t.TempDir(), `
jupyter:
  pythonPath: /project/python
`)
	withConfigPaths(t, userPath, projectPath)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/project/python", cfg.Jupyter.PythonPath)
	// Fields the project file does not set survive from the user layer.
	assert.Equal(t, "https://user-host:8888/?token=u", cfg.Jupyter.RemoteURI)
}

func TestLoadConfigSavedKernelSpec(t *testing.T) {
	userPath := writeConfigFile(t, t.TempDir(), `
jupyter:
  savedKernelSpec:
    name: python3
    displayName: Python 3
    argv: ["/usr/bin/python3", "-m", "ipykernel_launcher"]
    path: /usr/bin/python3
`)
	withConfigPaths(t, userPath, filepath.Join(t.TempDir(), "missing", configFileName))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Jupyter.SavedKernelSpec)
	assert.Equal(t, "python3", cfg.Jupyter.SavedKernelSpec.Name)
	assert.Equal(t, "/usr/bin/python3", cfg.Jupyter.SavedKernelSpec.Path)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	userPath := writeConfigFile(t, t.TempDir(), "jupyter: [not: valid")
	withConfigPaths(t, userPath, filepath.Join(t.TempDir(), "missing", configFileName))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading user config")
}

func TestMergeConfigsDebugIsSticky(t *testing.T) {
	base := GetDefaultConfig()
	base.Jupyter.Debug = true

	merged := mergeConfigs(base, Config{})
	assert.True(t, merged.Jupyter.Debug, "overlay without debug must not clear it")
}

func TestWatcherNotifiesSubscribers(t *testing.T) {
	w := NewWatcher()
	fired := 0
	unsubscribe := w.Subscribe(func() { fired++ })

	w.Fire()
	assert.Equal(t, 1, fired)

	unsubscribe()
	w.Fire()
	assert.Equal(t, 1, fired)
}
