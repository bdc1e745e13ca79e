package interpreters

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "Interpreters"

// versionProbe prints the running interpreter's version on one line.
const versionProbe = "import sys; print('%d.%d.%d' % sys.version_info[:3])"

// Locator is the interpreter-discovery collaborator. The engine resolves the
// active interpreter first, then the well-known locations, then anything else
// previously seen.
type Locator interface {
	// ActiveInterpreter returns the interpreter currently selected for the
	// workspace, or nil when none is configured and none can be found.
	ActiveInterpreter(ctx context.Context) (*Interpreter, error)

	// KnownInterpreters returns every interpreter the locator has seen,
	// active one first.
	KnownInterpreters(ctx context.Context) ([]Interpreter, error)

	// DetailsFromPath resolves a path (possibly bare, possibly relative) to
	// a full interpreter with version information.
	DetailsFromPath(ctx context.Context, path string) (*Interpreter, error)
}

// For mocking in tests.
var execLookPath = exec.LookPath

// PathLocator is the default Locator. It probes candidate executables with a
// one-line version script and memoizes what it learns per path.
type PathLocator struct {
	procs process.Service

	mu sync.Mutex
	// activePath is the configured interpreter path; empty means "find one".
	activePath string
	// searchPaths are the well-known locations checked after the active
	// interpreter, in order.
	searchPaths []string
	cache       map[string]*Interpreter
	seen        []string
}

// DefaultSearchPaths are the fixed well-known interpreter locations.
func DefaultSearchPaths() []string {
	home, _ := os.UserHomeDir()
	paths := []string{
		"python3",
		"python",
		"/usr/local/bin/python3",
		"/usr/bin/python3",
		"/opt/homebrew/bin/python3",
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".pyenv", "shims", "python3"),
			filepath.Join(home, "anaconda3", "bin", "python"),
			filepath.Join(home, "miniconda3", "bin", "python"),
		)
	}
	return paths
}

// NewPathLocator builds a locator. activePath may be empty; nil searchPaths
// means DefaultSearchPaths.
func NewPathLocator(procs process.Service, activePath string, searchPaths []string) *PathLocator {
	if searchPaths == nil {
		searchPaths = DefaultSearchPaths()
	}
	return &PathLocator{
		procs:       procs,
		activePath:  activePath,
		searchPaths: searchPaths,
		cache:       make(map[string]*Interpreter),
	}
}

// SetActivePath updates the configured interpreter. Callers pair this with an
// interpreter-change notification so dependent caches reset.
func (l *PathLocator) SetActivePath(path string) {
	l.mu.Lock()
	l.activePath = path
	l.mu.Unlock()
}

func (l *PathLocator) ActiveInterpreter(ctx context.Context) (*Interpreter, error) {
	l.mu.Lock()
	active := l.activePath
	searchPaths := l.searchPaths
	l.mu.Unlock()

	if active != "" {
		return l.DetailsFromPath(ctx, active)
	}
	for _, candidate := range searchPaths {
		interp, err := l.DetailsFromPath(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		return interp, nil
	}
	return nil, nil
}

func (l *PathLocator) KnownInterpreters(ctx context.Context) ([]Interpreter, error) {
	var result []Interpreter
	seenPaths := make(map[string]bool)

	appendInterp := func(i *Interpreter) {
		if i != nil && !seenPaths[i.Path] {
			seenPaths[i.Path] = true
			result = append(result, *i)
		}
	}

	active, err := l.ActiveInterpreter(ctx)
	if err != nil {
		return nil, err
	}
	appendInterp(active)

	l.mu.Lock()
	searchPaths := l.searchPaths
	l.mu.Unlock()

	for _, candidate := range searchPaths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		interp, err := l.DetailsFromPath(ctx, candidate)
		if err != nil {
			continue
		}
		appendInterp(interp)
	}

	l.mu.Lock()
	for _, path := range l.seen {
		if cached := l.cache[path]; cached != nil && !seenPaths[path] {
			seenPaths[path] = true
			result = append(result, *cached)
		}
	}
	l.mu.Unlock()

	return result, nil
}

func (l *PathLocator) DetailsFromPath(ctx context.Context, path string) (*Interpreter, error) {
	resolved := path
	if !strings.ContainsRune(path, os.PathSeparator) {
		found, err := execLookPath(path)
		if err != nil {
			return nil, err
		}
		resolved = found
	}

	l.mu.Lock()
	if cached, ok := l.cache[resolved]; ok {
		l.mu.Unlock()
		if cached == nil {
			return nil, os.ErrNotExist
		}
		return cached, nil
	}
	l.mu.Unlock()

	out, err := l.procs.Exec(ctx, resolved, []string{"-c", versionProbe}, process.Options{})
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		logging.Debug(logSubsystem, "version probe of %s exited with %d: %s", resolved, out.ExitCode, out.Stderr)
		l.remember(resolved, nil)
		return nil, os.ErrNotExist
	}

	version, err := ParseVersion(out.Stdout)
	if err != nil {
		logging.Debug(logSubsystem, "unparseable version from %s: %q", resolved, out.Stdout)
		l.remember(resolved, nil)
		return nil, err
	}

	interp := &Interpreter{Path: resolved, Version: version}
	l.remember(resolved, interp)
	return interp, nil
}

func (l *PathLocator) remember(path string, interp *Interpreter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[path]; !ok {
		l.seen = append(l.seen, path)
	}
	l.cache[path] = interp
}

// Reset drops everything the locator has memoized. Used when the active
// interpreter or relevant configuration changes.
func (l *PathLocator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Interpreter)
	l.seen = nil
}
