// Package orchestrator ties the engine together: it decides local versus
// remote, launches or dials servers, retries transient failures, classifies
// the rest, and hands back connected server handles.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/config"
	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/kernelspec"
	"github.com/hochshi/vscode-python/internal/launcher"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/internal/sessions"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "Orchestrator"

// kernelIdleTimeout bounds how long a freshly started kernel may take to
// reach the idle state before the attempt counts as a WaitForIdleTimeout.
const kernelIdleTimeout = 30 * time.Second

// LauncherAPI is the slice of the launcher the orchestrator needs.
type LauncherAPI interface {
	StartNotebookServer(ctx context.Context, useDefaultConfig bool) (*launcher.StartResult, error)
}

// ConnectOptions shapes one connection attempt.
type ConnectOptions struct {
	// Purpose tags the attempt for telemetry.
	Purpose jupyter.Purpose
	// URI selects a remote server; empty means launch locally.
	URI string
	// WorkingDir is surfaced to the connected server's launch info.
	WorkingDir string
	// EnableDebugging asks the server for kernel debugging support.
	EnableDebugging bool
	// UseDefaultConfig forces the local server to ignore user configuration.
	UseDefaultConfig bool
}

// Engine is the execution orchestrator.
type Engine struct {
	settings config.JupyterSettings
	finder   *commandfinder.Finder
	matcher  *kernelspec.Matcher
	launcher LauncherAPI
	sessions sessions.Factory
	locator  interpreters.Locator
	procs    process.Service

	// usable-interpreter memo: computed at most once per interpreter-change
	// cycle.
	mu            sync.Mutex
	usable        *interpreters.Interpreter
	usableChecked bool
}

// New wires the orchestrator. The interpreter-change notifier resets the
// usable-interpreter memo.
func New(
	settings config.JupyterSettings,
	finder *commandfinder.Finder,
	matcher *kernelspec.Matcher,
	launch LauncherAPI,
	sessionFactory sessions.Factory,
	locator interpreters.Locator,
	procs process.Service,
	interpreterChanges *interpreters.ChangeNotifier,
) *Engine {
	e := &Engine{
		settings: settings,
		finder:   finder,
		matcher:  matcher,
		launcher: launch,
		sessions: sessionFactory,
		locator:  locator,
		procs:    procs,
	}
	if interpreterChanges != nil {
		interpreterChanges.Subscribe(e.resetUsableInterpreter)
	}
	return e
}

func (e *Engine) resetUsableInterpreter() {
	e.mu.Lock()
	e.usable = nil
	e.usableChecked = false
	e.mu.Unlock()
	logging.Debug(logSubsystem, "usable-interpreter memo reset")
}

// UsableInterpreter returns the interpreter to run Jupyter with: the active
// one when it carries notebook support, otherwise the first known
// interpreter that does. The lookup runs at most once per interpreter-change
// cycle; subsequent calls return the memoized value.
func (e *Engine) UsableInterpreter(ctx context.Context) (*interpreters.Interpreter, error) {
	e.mu.Lock()
	if e.usableChecked {
		usable := e.usable
		e.mu.Unlock()
		return usable, nil
	}
	e.mu.Unlock()

	result, err := e.finder.FindBestCommand(ctx, commandfinder.CapabilityNotebookServer)
	if err != nil {
		return nil, err
	}

	var usable *interpreters.Interpreter
	if result.Command != nil {
		interp := result.Command.Interpreter
		usable = &interp
	}

	e.mu.Lock()
	e.usable = usable
	e.usableChecked = true
	e.mu.Unlock()
	return usable, nil
}

// maxTries returns the configured retry bound, at least one attempt.
func (e *Engine) maxTries() int {
	if e.settings.MaxConnectRetries > 0 {
		return e.settings.MaxConnectRetries
	}
	return config.DefaultMaxConnectRetries
}
