// Package app wires the engine together for the CLI: configuration,
// logging, collaborator services, and the orchestrator.
package app

import (
	"os"
	"time"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/config"
	"github.com/hochshi/vscode-python/internal/disposal"
	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/kernelspec"
	"github.com/hochshi/vscode-python/internal/launcher"
	"github.com/hochshi/vscode-python/internal/orchestrator"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/internal/sessions"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// App is a fully wired engine instance plus the shared state the CLI needs
// to tear it down.
type App struct {
	Config             config.Config
	Engine             *orchestrator.Engine
	Finder             *commandfinder.Finder
	Matcher            *kernelspec.Matcher
	Locator            *interpreters.PathLocator
	Registry           *disposal.Registry
	InterpreterChanges *interpreters.ChangeNotifier
	ConfigChanges      *config.Watcher
}

// Options tweaks construction from command-line flags.
type Options struct {
	// Debug forces debug-level logging regardless of configuration.
	Debug bool
}

// New loads configuration, initializes logging, and builds the engine.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if opts.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.Format(cfg.Logging.Format), os.Stderr)

	procs := process.New()
	locator := interpreters.NewPathLocator(procs, cfg.Jupyter.PythonPath, cfg.Jupyter.SearchPaths)

	interpreterChanges := interpreters.NewChangeNotifier()
	configChanges := config.NewWatcher()
	interpreterChanges.Subscribe(locator.Reset)

	finder := commandfinder.NewFinder(procs, locator, interpreterChanges, configChanges)
	matcher := kernelspec.NewMatcher(finder, locator)
	registry := disposal.NewRegistry()

	launch := launcher.New(finder, matcher, procs, registry,
		time.Duration(cfg.Jupyter.ServerInfoTimeoutSeconds)*time.Second, cfg.Jupyter.Debug)

	engine := orchestrator.New(cfg.Jupyter, finder, matcher, launch,
		sessions.HTTPFactory{}, locator, procs, interpreterChanges)

	return &App{
		Config:             cfg,
		Engine:             engine,
		Finder:             finder,
		Matcher:            matcher,
		Locator:            locator,
		Registry:           registry,
		InterpreterChanges: interpreterChanges,
		ConfigChanges:      configChanges,
	}, nil
}

// Shutdown releases everything still registered, exactly once.
func (a *App) Shutdown() {
	a.Registry.DisposeAll()
}
