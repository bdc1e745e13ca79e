// Package launcher starts a local Jupyter notebook server: it assembles the
// command line, spawns the process inside a disposable working directory,
// and waits for the server to publish its connection info.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/disposal"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/kernelspec"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "Launcher"

// DebugEnvVar turns on the notebook server's --debug flag regardless of
// configuration.
const DebugEnvVar = "JUPYTERD_JUPYTER_DEBUG"

const serverInfoPollInterval = 500 * time.Millisecond

// serverInfoScript is run through the resolved interpreter and prints a JSON
// array describing the locally running servers.
const serverInfoScript = `import json
try:
    from jupyter_server import serverapp as app
except ImportError:
    from notebook import notebookapp as app
print(json.dumps([
    {
        "base_url": s.get("url", ""),
        "token": s.get("token", ""),
        "hostname": s.get("hostname", "localhost"),
        "notebook_dir": s.get("notebook_dir", s.get("root_dir", "")),
        "port": s.get("port", 0),
        "secure": s.get("secure", False),
    }
    for s in app.list_running_servers()
]))
`

// Launcher owns local notebook server startup.
type Launcher struct {
	finder   *commandfinder.Finder
	matcher  *kernelspec.Matcher
	procs    process.Service
	registry *disposal.Registry

	// serverInfoTimeout bounds the readiness wait, separately from the
	// caller's cancellation.
	serverInfoTimeout time.Duration
	debug             bool
}

// New builds a launcher. serverInfoTimeout <= 0 falls back to one minute.
func New(finder *commandfinder.Finder, matcher *kernelspec.Matcher, procs process.Service, registry *disposal.Registry, serverInfoTimeout time.Duration, debug bool) *Launcher {
	if serverInfoTimeout <= 0 {
		serverInfoTimeout = time.Minute
	}
	return &Launcher{
		finder:            finder,
		matcher:           matcher,
		procs:             procs,
		registry:          registry,
		serverInfoTimeout: serverInfoTimeout,
		debug:             debug,
	}
}

// StartResult is a successful launch: a live connection descriptor and the
// kernel spec resolved for it (possibly nil).
type StartResult struct {
	Connection *jupyter.ConnectionInfo
	KernelSpec *jupyter.KernelSpec
}

// StartNotebookServer launches a local notebook server and resolves its
// connection info. useDefaultConfig forces the server to ignore user
// configuration by pointing it at an empty config file.
func (l *Launcher) StartNotebookServer(ctx context.Context, useDefaultConfig bool) (*StartResult, error) {
	findResult, err := l.finder.FindBestCommand(ctx, commandfinder.CapabilityNotebookServer)
	if err != nil {
		return nil, err
	}
	if findResult.Command == nil {
		return nil, &jupyter.InstallMissingError{
			Capability: string(commandfinder.CapabilityNotebookServer),
			Hint:       "run 'python -m pip install jupyter notebook' in the selected environment",
		}
	}
	notebookCmd := findResult.Command

	tmpDir, err := newTemporaryDirectory(l.registry)
	if err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}

	args, err := l.buildArgs(tmpDir.Path, useDefaultConfig)
	if err != nil {
		tmpDir.Disposer.Dispose()
		return nil, err
	}

	// The kernel spec is resolved before the server is spawned so the spec
	// is ready by the time anyone tells the server to use it.
	spec, err := l.matcher.GetMatchingKernelSpec(ctx, nil)
	if err != nil {
		tmpDir.Disposer.Dispose()
		return nil, err
	}

	logging.Info(logSubsystem, "starting notebook server: %s %v", notebookCmd.Interpreter.Path, args)
	observed, err := notebookCmd.Observe(ctx, process.Options{Dir: tmpDir.Path},
		func(line string) { logging.Debug(logSubsystem, "[notebook stdout] %s", line) },
		func(line string) { logging.Debug(logSubsystem, "[notebook stderr] %s", line) },
		args...)
	if err != nil {
		tmpDir.Disposer.Dispose()
		return nil, fmt.Errorf("failed to launch notebook server: %w", err)
	}

	info, err := l.waitForServerInfo(ctx, notebookCmd.Interpreter.Path, tmpDir.Path, observed)
	if err != nil {
		observed.Kill()
		tmpDir.Disposer.Dispose()
		if jupyter.IsCancellation(err) {
			return nil, err
		}
		return nil, classifyLaunchFailure(err, observed.ExitCode())
	}

	conn := jupyter.NewLocalConnectionInfo(
		info.EffectiveURL(),
		info.Token,
		info.Hostname,
		observed.ExitCode,
		func() {
			observed.Kill()
			tmpDir.Disposer.Dispose()
		},
	)
	return &StartResult{Connection: conn, KernelSpec: spec}, nil
}

// buildArgs assembles the notebook server command line.
func (l *Launcher) buildArgs(workingDir string, useDefaultConfig bool) ([]string, error) {
	args := []string{
		"--no-browser",
		fmt.Sprintf("--notebook-dir=%s", workingDir),
		"--NotebookApp.iopub_data_rate_limit=10000000000.0",
	}

	if useDefaultConfig {
		configFile := filepath.Join(workingDir, "jupyter_notebook_config.py")
		if err := os.WriteFile(configFile, nil, 0o644); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
		args = append(args, fmt.Sprintf("--config=%s", configFile))
	}

	if l.debug || os.Getenv(DebugEnvVar) != "" {
		args = append(args, "--debug")
	}

	if inContainer, asRoot := containerEnvironment(); inContainer {
		args = append(args, "--ip", "127.0.0.1")
		if asRoot {
			args = append(args, "--allow-root")
		}
	}

	return args, nil
}

// waitForServerInfo polls the server-info helper until the launched server
// shows up, the process dies, the caller cancels, or the launcher's own
// readiness timeout elapses.
func (l *Launcher) waitForServerInfo(ctx context.Context, interpreterPath, workingDir string, observed *process.Observed) (*jupyter.ServerInfo, error) {
	deadline := time.NewTimer(l.serverInfoTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(serverInfoPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-observed.Exited():
			code := 0
			if c := observed.ExitCode(); c != nil {
				code = *c
			}
			return nil, &jupyter.ServerCrashedError{ExitCode: code}
		case <-deadline.C:
			return nil, fmt.Errorf("timed out after %s waiting for server connection info", l.serverInfoTimeout)
		case <-ticker.C:
			info := l.pollServerInfo(ctx, interpreterPath, workingDir)
			if info != nil {
				logging.Info(logSubsystem, "notebook server ready at %s", info.EffectiveURL())
				return info, nil
			}
		}
	}
}

// pollServerInfo runs the helper script once. Any failure, including
// malformed output, means "no info yet".
func (l *Launcher) pollServerInfo(ctx context.Context, interpreterPath, workingDir string) *jupyter.ServerInfo {
	out, err := l.procs.Exec(ctx, interpreterPath, []string{"-c", serverInfoScript}, process.Options{})
	if err != nil || out.ExitCode != 0 {
		return nil
	}
	infos, ok := jupyter.ParseServerInfos([]byte(out.Stdout))
	if !ok || len(infos) == 0 {
		return nil
	}
	// Prefer the server rooted in our working directory; with several
	// servers running, the first entry is not necessarily ours.
	for i := range infos {
		if infos[i].NotebookDir == workingDir {
			return &infos[i]
		}
	}
	return &infos[0]
}

// classifyLaunchFailure maps a non-cancellation launch failure onto the
// error taxonomy: a dead process with a non-zero code is a crash, anything
// else is a generic launch failure.
func classifyLaunchFailure(err error, exitCode *int) error {
	if _, ok := err.(*jupyter.ServerCrashedError); ok {
		return err
	}
	if exitCode != nil && *exitCode != 0 {
		return &jupyter.ServerCrashedError{ExitCode: *exitCode}
	}
	return fmt.Errorf("failed to start the jupyter notebook server: %w", err)
}
