// Package commandfinder locates executables for the Jupyter capabilities the
// engine depends on: serving notebooks, converting files, creating kernel
// specs and listing them. Lookups walk an ordered list of interpreter
// resolution strategies and memoize what they learn.
package commandfinder

import (
	"context"
	"os/exec"

	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/process"
)

// Capability names one of the Jupyter-provided operations the engine must
// locate an executable for.
type Capability string

const (
	CapabilityNotebookServer   Capability = "notebook-server"
	CapabilityFileConverter    Capability = "file-converter"
	CapabilityKernelSpecCreate Capability = "kernelspec-create"
	CapabilityKernelSpecList   Capability = "kernelspec-list"
)

// capabilityDef maps a capability onto the interpreter module that provides
// it. Probing runs the module with --version; exit 0 means present.
type capabilityDef struct {
	moduleArgs []string
}

var capabilityDefs = map[Capability]capabilityDef{
	CapabilityNotebookServer:   {moduleArgs: []string{"-m", "jupyter", "notebook"}},
	CapabilityFileConverter:    {moduleArgs: []string{"-m", "jupyter", "nbconvert"}},
	CapabilityKernelSpecCreate: {moduleArgs: []string{"-m", "ipykernel"}},
	CapabilityKernelSpecList:   {moduleArgs: []string{"-m", "jupyter", "kernelspec"}},
}

// Command is an executable handle bound to the interpreter that exposes a
// capability. All execution styles of the process service are available so
// callers can capture, observe, or detach.
type Command struct {
	Interpreter interpreters.Interpreter
	moduleArgs  []string
	procs       process.Service
}

// NewCommand builds a handle directly; the finder is the usual constructor,
// this exists for tests and for saved-spec replay.
func NewCommand(interp interpreters.Interpreter, moduleArgs []string, procs process.Service) *Command {
	return &Command{Interpreter: interp, moduleArgs: moduleArgs, procs: procs}
}

// Args returns the full argument list for the given trailing args.
func (c *Command) Args(args ...string) []string {
	full := make([]string, 0, len(c.moduleArgs)+len(args))
	full = append(full, c.moduleArgs...)
	full = append(full, args...)
	return full
}

// Exec runs the command to completion and captures output.
func (c *Command) Exec(ctx context.Context, opts process.Options, args ...string) (process.Output, error) {
	return c.procs.Exec(ctx, c.Interpreter.Path, c.Args(args...), opts)
}

// Observe starts the command and watches it.
func (c *Command) Observe(ctx context.Context, opts process.Options, onStdout, onStderr process.LineFunc, args ...string) (*process.Observed, error) {
	return c.procs.Observe(ctx, c.Interpreter.Path, c.Args(args...), opts, onStdout, onStderr)
}

// Spawn starts the command detached; the caller owns the handle.
func (c *Command) Spawn(opts process.Options, args ...string) (*exec.Cmd, error) {
	return c.procs.Spawn(c.Interpreter.Path, c.Args(args...), opts)
}

// FindResult is a cached lookup outcome. Exactly one of Command or Error
// carries the information the caller needs: Command when the capability was
// located, Error explaining why when it was not.
type FindResult struct {
	Command *Command
	Error   string
}
