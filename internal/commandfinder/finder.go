package commandfinder

import (
	"context"
	"fmt"
	"sync"

	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "CommandFinder"

// strategy yields candidate interpreters for one resolution phase.
type strategy func(ctx context.Context) ([]interpreters.Interpreter, error)

// Finder resolves capabilities to commands. Results are cached per
// (capability, interpreter) and per capability; both caches reset whenever
// the active interpreter or workspace configuration changes.
type Finder struct {
	procs   process.Service
	locator interpreters.Locator

	mu          sync.Mutex
	probeCache  map[string]bool       // capability + interpreter path -> supported
	resultCache map[Capability]FindResult
}

// Subscribable is anything the finder can hook cache invalidation onto.
type Subscribable interface {
	Subscribe(fn func()) func()
}

// NewFinder builds a finder and subscribes its cache invalidation to the
// given notifiers (interpreter changes, configuration changes).
func NewFinder(procs process.Service, locator interpreters.Locator, invalidateOn ...Subscribable) *Finder {
	f := &Finder{
		procs:       procs,
		locator:     locator,
		probeCache:  make(map[string]bool),
		resultCache: make(map[Capability]FindResult),
	}
	for _, source := range invalidateOn {
		source.Subscribe(f.ClearCache)
	}
	return f
}

// ClearCache drops every memoized lookup.
func (f *Finder) ClearCache() {
	f.mu.Lock()
	f.probeCache = make(map[string]bool)
	f.resultCache = make(map[Capability]FindResult)
	f.mu.Unlock()
	logging.Debug(logSubsystem, "cache cleared")
}

// FindBestCommand locates an executable for the capability. It never returns
// an error for "not found" - the FindResult carries a diagnostic instead.
// The only error it returns is cancellation.
func (f *Finder) FindBestCommand(ctx context.Context, capability Capability) (FindResult, error) {
	f.mu.Lock()
	if cached, ok := f.resultCache[capability]; ok {
		f.mu.Unlock()
		return cached, nil
	}
	f.mu.Unlock()

	def, ok := capabilityDefs[capability]
	if !ok {
		return FindResult{Error: fmt.Sprintf("unknown capability %q", capability)}, nil
	}

	// Resolution order: the active interpreter, then the fixed search path,
	// then anything previously known. KnownInterpreters yields exactly that
	// order, so one strategy per phase keeps first-success-wins simple.
	strategies := []strategy{
		func(ctx context.Context) ([]interpreters.Interpreter, error) {
			active, err := f.locator.ActiveInterpreter(ctx)
			if err != nil || active == nil {
				return nil, err
			}
			return []interpreters.Interpreter{*active}, nil
		},
		f.locator.KnownInterpreters,
	}

	for _, resolve := range strategies {
		if ctx.Err() != nil {
			return FindResult{}, ctx.Err()
		}
		candidates, err := resolve(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return FindResult{}, ctx.Err()
			}
			logging.Debug(logSubsystem, "candidate resolution failed for %s: %v", capability, err)
			continue
		}
		for _, interp := range candidates {
			supported, err := f.supports(ctx, interp, capability, def)
			if err != nil {
				return FindResult{}, err
			}
			if supported {
				result := FindResult{Command: NewCommand(interp, def.moduleArgs, f.procs)}
				f.mu.Lock()
				f.resultCache[capability] = result
				f.mu.Unlock()
				logging.Debug(logSubsystem, "%s resolved to %s", capability, interp.Path)
				return result, nil
			}
		}
	}

	result := FindResult{
		Error: fmt.Sprintf("no interpreter with %s support was found; install jupyter into the active Python environment", capability),
	}
	f.mu.Lock()
	f.resultCache[capability] = result
	f.mu.Unlock()
	return result, nil
}

// supports probes whether the interpreter exposes the capability, memoizing
// the answer. Probe errors other than cancellation count as "not supported".
func (f *Finder) supports(ctx context.Context, interp interpreters.Interpreter, capability Capability, def capabilityDef) (bool, error) {
	key := string(capability) + "\x00" + interp.Path

	f.mu.Lock()
	if cached, ok := f.probeCache[key]; ok {
		f.mu.Unlock()
		return cached, nil
	}
	f.mu.Unlock()

	args := append(append([]string{}, def.moduleArgs...), "--version")
	out, err := f.procs.Exec(ctx, interp.Path, args, process.Options{})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logging.Debug(logSubsystem, "probe %s on %s failed: %v", capability, interp.Path, err)
		f.rememberProbe(key, false)
		return false, nil
	}

	supported := out.ExitCode == 0
	f.rememberProbe(key, supported)
	return supported, nil
}

func (f *Finder) rememberProbe(key string, supported bool) {
	f.mu.Lock()
	f.probeCache[key] = supported
	f.mu.Unlock()
}
