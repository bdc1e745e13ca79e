package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// ImportNotebook converts a notebook file to a Python script through the
// file-converter capability and returns the converted text. Conversion noise
// on stderr is logged, not treated as failure; only a missing converter or a
// non-zero exit is.
func (e *Engine) ImportNotebook(ctx context.Context, file string) (string, error) {
	result, err := e.finder.FindBestCommand(ctx, commandfinder.CapabilityFileConverter)
	if err != nil {
		return "", err
	}
	if result.Command == nil {
		return "", &jupyter.InstallMissingError{
			Capability: string(commandfinder.CapabilityFileConverter),
			Hint:       "run 'python -m pip install jupyter nbconvert' in the selected environment",
		}
	}

	out, err := result.Command.Exec(ctx, process.Options{}, file, "--to", "python", "--stdout")
	if err != nil {
		return "", err
	}
	if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
		logging.Debug(logSubsystem, "nbconvert stderr: %s", stderr)
	}
	if out.ExitCode != 0 {
		return "", fmt.Errorf("notebook conversion of %s exited with %d", file, out.ExitCode)
	}
	return out.Stdout, nil
}

// SpawnNotebook launches a notebook server pointed at the given file and
// hands the process to the caller, who owns its lifetime from then on.
func (e *Engine) SpawnNotebook(ctx context.Context, file string) (*jupyter.SpawnedProcess, error) {
	result, err := e.finder.FindBestCommand(ctx, commandfinder.CapabilityNotebookServer)
	if err != nil {
		return nil, err
	}
	if result.Command == nil {
		return nil, &jupyter.InstallMissingError{
			Capability: string(commandfinder.CapabilityNotebookServer),
			Hint:       "run 'python -m pip install jupyter notebook' in the selected environment",
		}
	}

	cmd, err := result.Command.Spawn(process.Options{}, file)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notebook for %s: %w", file, err)
	}
	spawned := &jupyter.SpawnedProcess{Cmd: cmd}
	if cmd.Process != nil {
		spawned.PID = cmd.Process.Pid
	}
	logging.Info(logSubsystem, "spawned notebook for %s (pid %d)", file, spawned.PID)
	return spawned, nil
}
