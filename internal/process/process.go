// Package process provides the process-execution service the engine uses for
// every subprocess it touches: capture-style execution for short commands,
// observed execution for long-running servers, and detached spawning for
// fire-and-forget launches.
package process

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/hochshi/vscode-python/pkg/logging"
)

// Options controls how a subprocess is started.
type Options struct {
	// Dir is the working directory; empty means inherit.
	Dir string
	// Env entries are appended to the inherited environment.
	Env map[string]string
}

// Output is the captured result of a completed command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// LineFunc receives one line of subprocess output.
type LineFunc func(line string)

// Service is the engine's window onto subprocess execution. Components take
// the interface so tests can substitute scripted fakes.
type Service interface {
	// Exec runs a command to completion and captures its output. A non-zero
	// exit status is not an error by itself; callers inspect Output.ExitCode.
	// Context cancellation kills the command and returns ctx.Err().
	Exec(ctx context.Context, name string, args []string, opts Options) (Output, error)

	// Observe starts a long-running command and watches it: stdout/stderr are
	// scanned line by line into the callbacks, and exit status is recorded as
	// soon as the process ends.
	Observe(ctx context.Context, name string, args []string, opts Options, onStdout, onStderr LineFunc) (*Observed, error)

	// Spawn starts a command without watching it. The caller owns the
	// returned handle and its lifetime.
	Spawn(name string, args []string, opts Options) (*exec.Cmd, error)
}

// execService is the default Service over os/exec.
type execService struct{}

// New returns the default process service.
func New() Service {
	return execService{}
}

func buildEnv(opts Options) []string {
	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func (execService) Exec(ctx context.Context, name string, args []string, opts Options) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = buildEnv(opts)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	out := Output{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	// Cancellation wins over whatever state the kill left the process in.
	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("exec %s: %w", name, runErr)
	}
	return out, nil
}

func (execService) Observe(ctx context.Context, name string, args []string, opts Options, onStdout, onStderr LineFunc) (*Observed, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = buildEnv(opts)

	stdoutPipe, pipeErr := cmd.StdoutPipe()
	if pipeErr != nil {
		return nil, fmt.Errorf("stdout pipe for %s: %w", name, pipeErr)
	}
	stderrPipe, pipeErr := cmd.StderrPipe()
	if pipeErr != nil {
		stdoutPipe.Close()
		return nil, fmt.Errorf("stderr pipe for %s: %w", name, pipeErr)
	}

	if err := cmd.Start(); err != nil {
		stdoutPipe.Close()
		stderrPipe.Close()
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	obs := &Observed{
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(stdoutPipe)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
	}()
	go func() {
		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			if onStderr != nil {
				onStderr(scanner.Text())
			}
		}
	}()

	go func() {
		err := cmd.Wait()
		code := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				logging.Debug("Process", "wait for %s (pid %d): %v", name, obs.PID(), err)
				code = -1
			}
		}
		obs.mu.Lock()
		obs.exitCode = &code
		obs.mu.Unlock()
		close(obs.exited)
	}()

	return obs, nil
}

func (execService) Spawn(name string, args []string, opts Options) (*exec.Cmd, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = buildEnv(opts)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return cmd, nil
}

// Observed is a running, watched subprocess.
type Observed struct {
	cmd *exec.Cmd

	mu       sync.Mutex
	exitCode *int
	exited   chan struct{}
}

// PID returns the process id.
func (o *Observed) PID() int {
	if o.cmd.Process == nil {
		return 0
	}
	return o.cmd.Process.Pid
}

// Exited is closed once the process has ended and its exit code recorded.
func (o *Observed) Exited() <-chan struct{} { return o.exited }

// ExitCode returns the recorded exit code, or nil while still running.
func (o *Observed) ExitCode() *int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exitCode
}

// Kill terminates the process if it is still running. Safe to call more than
// once and after exit.
func (o *Observed) Kill() {
	o.mu.Lock()
	done := o.exitCode != nil
	o.mu.Unlock()
	if done || o.cmd.Process == nil {
		return
	}
	if err := o.cmd.Process.Kill(); err != nil {
		logging.Debug("Process", "kill pid %d: %v", o.PID(), err)
	}
}
