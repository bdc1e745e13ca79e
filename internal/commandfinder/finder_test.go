package commandfinder

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/process"
)

// fakeProcs reports capability probes as supported when the interpreter path
// appears in supported, and counts every execution.
type fakeProcs struct {
	supported map[string]bool
	execs     int
}

func (f *fakeProcs) Exec(ctx context.Context, name string, args []string, opts process.Options) (process.Output, error) {
	if err := ctx.Err(); err != nil {
		return process.Output{}, err
	}
	f.execs++
	if f.supported[name] {
		return process.Output{Stdout: "7.0.0"}, nil
	}
	return process.Output{Stderr: "No module named jupyter", ExitCode: 1}, nil
}

func (f *fakeProcs) Observe(ctx context.Context, name string, args []string, opts process.Options, onStdout, onStderr process.LineFunc) (*process.Observed, error) {
	return nil, errors.New("not supported")
}

func (f *fakeProcs) Spawn(name string, args []string, opts process.Options) (*exec.Cmd, error) {
	return nil, errors.New("not supported")
}

// fakeLocator serves fixed interpreter lists.
type fakeLocator struct {
	active *interpreters.Interpreter
	known  []interpreters.Interpreter
}

func (f *fakeLocator) ActiveInterpreter(ctx context.Context) (*interpreters.Interpreter, error) {
	return f.active, ctx.Err()
}

func (f *fakeLocator) KnownInterpreters(ctx context.Context) ([]interpreters.Interpreter, error) {
	return f.known, ctx.Err()
}

func (f *fakeLocator) DetailsFromPath(ctx context.Context, path string) (*interpreters.Interpreter, error) {
	for _, k := range f.known {
		if k.Path == path {
			copied := k
			return &copied, nil
		}
	}
	return nil, errors.New("unknown path")
}

func interp(path string, major, minor int) interpreters.Interpreter {
	return interpreters.Interpreter{Path: path, Version: interpreters.Version{Major: major, Minor: minor}}
}

func TestFindBestCommandPrefersActiveInterpreter(t *testing.T) {
	active := interp("/active/python", 3, 11)
	procs := &fakeProcs{supported: map[string]bool{"/active/python": true, "/other/python": true}}
	finder := NewFinder(procs, &fakeLocator{
		active: &active,
		known:  []interpreters.Interpreter{active, interp("/other/python", 3, 9)},
	})

	result, err := finder.FindBestCommand(context.Background(), CapabilityNotebookServer)
	require.NoError(t, err)
	require.NotNil(t, result.Command)
	assert.Equal(t, "/active/python", result.Command.Interpreter.Path)
	assert.Equal(t, 1, procs.execs, "first supported candidate wins without extra probes")
}

func TestFindBestCommandFallsBackToKnownInterpreters(t *testing.T) {
	active := interp("/active/python", 3, 11)
	procs := &fakeProcs{supported: map[string]bool{"/fallback/python": true}}
	finder := NewFinder(procs, &fakeLocator{
		active: &active,
		known:  []interpreters.Interpreter{active, interp("/fallback/python", 3, 9)},
	})

	result, err := finder.FindBestCommand(context.Background(), CapabilityNotebookServer)
	require.NoError(t, err)
	require.NotNil(t, result.Command)
	assert.Equal(t, "/fallback/python", result.Command.Interpreter.Path)
}

func TestFindBestCommandNotFoundIsDiagnosticNotError(t *testing.T) {
	active := interp("/active/python", 3, 11)
	procs := &fakeProcs{}
	finder := NewFinder(procs, &fakeLocator{active: &active, known: []interpreters.Interpreter{active}})

	result, err := finder.FindBestCommand(context.Background(), CapabilityFileConverter)
	require.NoError(t, err)
	assert.Nil(t, result.Command)
	assert.Contains(t, result.Error, "file-converter")

	// The negative outcome is cached too.
	probes := procs.execs
	_, err = finder.FindBestCommand(context.Background(), CapabilityFileConverter)
	require.NoError(t, err)
	assert.Equal(t, probes, procs.execs)
}

func TestFindBestCommandCachesPositiveResult(t *testing.T) {
	active := interp("/active/python", 3, 11)
	procs := &fakeProcs{supported: map[string]bool{"/active/python": true}}
	finder := NewFinder(procs, &fakeLocator{active: &active, known: []interpreters.Interpreter{active}})

	_, err := finder.FindBestCommand(context.Background(), CapabilityNotebookServer)
	require.NoError(t, err)
	_, err = finder.FindBestCommand(context.Background(), CapabilityNotebookServer)
	require.NoError(t, err)
	assert.Equal(t, 1, procs.execs)
}

func TestNotifierInvalidatesCaches(t *testing.T) {
	active := interp("/active/python", 3, 11)
	procs := &fakeProcs{supported: map[string]bool{"/active/python": true}}
	notifier := interpreters.NewChangeNotifier()
	finder := NewFinder(procs, &fakeLocator{active: &active, known: []interpreters.Interpreter{active}}, notifier)

	_, err := finder.FindBestCommand(context.Background(), CapabilityNotebookServer)
	require.NoError(t, err)

	notifier.Fire()

	_, err = finder.FindBestCommand(context.Background(), CapabilityNotebookServer)
	require.NoError(t, err)
	assert.Equal(t, 2, procs.execs, "changed interpreter must be re-probed")
}

func TestFindBestCommandCancellation(t *testing.T) {
	active := interp("/active/python", 3, 11)
	finder := NewFinder(&fakeProcs{}, &fakeLocator{active: &active})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := finder.FindBestCommand(ctx, CapabilityNotebookServer)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindBestCommandUnknownCapability(t *testing.T) {
	finder := NewFinder(&fakeProcs{}, &fakeLocator{})

	result, err := finder.FindBestCommand(context.Background(), Capability("bogus"))
	require.NoError(t, err)
	assert.Nil(t, result.Command)
	assert.Contains(t, result.Error, "bogus")
}

func TestCommandArgs(t *testing.T) {
	cmd := NewCommand(interp("/usr/bin/python3", 3, 11), []string{"-m", "jupyter", "kernelspec"}, &fakeProcs{})

	args := cmd.Args("list", "--json")
	assert.Equal(t, "-m jupyter kernelspec list --json", strings.Join(args, " "))

	// Args never aliases the shared module slice.
	args[0] = "mutated"
	assert.Equal(t, []string{"-m", "jupyter", "kernelspec"}, cmd.Args())
}
