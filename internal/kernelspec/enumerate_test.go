package kernelspec

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/process"
)

// scriptedProcs replays a single canned Output for every Exec call.
type scriptedProcs struct {
	out process.Output
}

func (s *scriptedProcs) Exec(ctx context.Context, name string, args []string, opts process.Options) (process.Output, error) {
	if err := ctx.Err(); err != nil {
		return process.Output{}, err
	}
	return s.out, nil
}

func (s *scriptedProcs) Observe(ctx context.Context, name string, args []string, opts process.Options, onStdout, onStderr process.LineFunc) (*process.Observed, error) {
	return nil, errors.New("not supported")
}

func (s *scriptedProcs) Spawn(name string, args []string, opts process.Options) (*exec.Cmd, error) {
	return nil, errors.New("not supported")
}

func listCommand(out process.Output) *commandfinder.Command {
	return commandfinder.NewCommand(
		interpreters.Interpreter{Path: "/usr/bin/python3"},
		[]string{"-m", "jupyter", "kernelspec"},
		&scriptedProcs{out: out})
}

func TestEnumerateOnDisk(t *testing.T) {
	cmd := listCommand(process.Output{Stdout: `{
		"kernelspecs": {
			"zsh-kernel": {
				"resource_dir": "/specs/zsh-kernel",
				"spec": {"argv": ["/bin/zsh-kernel"], "display_name": "Zsh", "language": "shell"}
			},
			"python3": {
				"resource_dir": "/specs/python3",
				"spec": {"argv": ["/usr/bin/python3", "-m", "ipykernel_launcher"], "display_name": "Python 3", "language": "python"}
			}
		}
	}`})

	specs, err := enumerateOnDisk(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	// Order is deterministic regardless of JSON map iteration.
	assert.Equal(t, "python3", specs[0].Name)
	assert.Equal(t, "zsh-kernel", specs[1].Name)

	assert.Equal(t, "/usr/bin/python3", specs[0].Path)
	assert.Equal(t, "python", specs[0].Language)
	assert.Equal(t, "/specs/python3/kernel.json", specs[0].SpecFile)
}

func TestEnumerateOnDiskCommandFailure(t *testing.T) {
	cmd := listCommand(process.Output{Stderr: "jupyter not found", ExitCode: 1})

	_, err := enumerateOnDisk(context.Background(), cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with 1")
}

func TestEnumerateOnDiskMalformedOutput(t *testing.T) {
	cmd := listCommand(process.Output{Stdout: "{not json"})

	_, err := enumerateOnDisk(context.Background(), cmd)
	require.Error(t, err)
}

func TestListKernelSpecs(t *testing.T) {
	// The same canned output serves the capability probe (exit 0) and the
	// actual listing.
	procs := &scriptedProcs{out: process.Output{Stdout: `{
		"kernelspecs": {
			"python3": {
				"resource_dir": "/specs/python3",
				"spec": {"argv": ["/usr/bin/python3"], "display_name": "Python 3", "language": "python"}
			}
		}
	}`}}
	active := interpreters.Interpreter{Path: "/usr/bin/python3", Version: interpreters.Version{Major: 3, Minor: 11}}
	locator := &fakeLocator{active: &active}
	m := NewMatcher(commandfinder.NewFinder(procs, locator), locator)

	specs, err := m.ListKernelSpecs(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "python3", specs[0].Name)
}

func TestListKernelSpecsUnavailable(t *testing.T) {
	procs := &scriptedProcs{out: process.Output{ExitCode: 1}}
	active := interpreters.Interpreter{Path: "/usr/bin/python3"}
	locator := &fakeLocator{active: &active}
	m := NewMatcher(commandfinder.NewFinder(procs, locator), locator)

	_, err := m.ListKernelSpecs(context.Background())
	var missing *jupyter.InstallMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "kernelspec-list", missing.Capability)
}
