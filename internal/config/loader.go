package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests.
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/jupyterd"
	projectConfigDir = ".jupyterd"
	configFileName   = "config.yaml"
)

// LoadConfig loads the jupyterd configuration by layering default, user, and
// project settings. Missing files are fine; unreadable or malformed ones are
// not.
func LoadConfig() (Config, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' into 'base'. Zero values in the overlay leave
// the base value in place.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.Format != "" {
		merged.Logging.Format = overlay.Logging.Format
	}

	if overlay.Jupyter.PythonPath != "" {
		merged.Jupyter.PythonPath = overlay.Jupyter.PythonPath
	}
	if overlay.Jupyter.SearchPaths != nil {
		merged.Jupyter.SearchPaths = overlay.Jupyter.SearchPaths
	}
	if overlay.Jupyter.MaxConnectRetries > 0 {
		merged.Jupyter.MaxConnectRetries = overlay.Jupyter.MaxConnectRetries
	}
	if overlay.Jupyter.RemoteURI != "" {
		merged.Jupyter.RemoteURI = overlay.Jupyter.RemoteURI
	}
	if overlay.Jupyter.SavedKernelSpec != nil {
		merged.Jupyter.SavedKernelSpec = overlay.Jupyter.SavedKernelSpec
	}
	if overlay.Jupyter.ServerInfoTimeoutSeconds > 0 {
		merged.Jupyter.ServerInfoTimeoutSeconds = overlay.Jupyter.ServerInfoTimeoutSeconds
	}
	if overlay.Jupyter.Debug {
		merged.Jupyter.Debug = true
	}

	if overlay.Agent.Host != "" {
		merged.Agent.Host = overlay.Agent.Host
	}
	if overlay.Agent.Port > 0 {
		merged.Agent.Port = overlay.Agent.Port
	}
	if overlay.Agent.Transport != "" {
		merged.Agent.Transport = overlay.Agent.Transport
	}

	return merged
}
