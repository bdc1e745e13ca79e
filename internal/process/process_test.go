package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCapturesOutput(t *testing.T) {
	out, err := New().Exec(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "out\n", out.Stdout)
	assert.Equal(t, "err\n", out.Stderr)
	assert.Equal(t, 0, out.ExitCode)
}

func TestExecNonZeroExitIsNotAnError(t *testing.T) {
	out, err := New().Exec(context.Background(), "sh", []string{"-c", "exit 7"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, out.ExitCode)
}

func TestExecMissingBinary(t *testing.T) {
	_, err := New().Exec(context.Background(), "/nonexistent/binary", nil, Options{})
	require.Error(t, err)
}

func TestExecWorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	out, err := New().Exec(context.Background(), "sh", []string{"-c", "pwd; printf '%s' \"$EXTRA\""}, Options{
		Dir: dir,
		Env: map[string]string{"EXTRA": "value"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, dir)
	assert.Contains(t, out.Stdout, "value")
}

func TestExecCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New().Exec(ctx, "sh", []string{"-c", "sleep 30"}, Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestObserveStreamsLinesAndRecordsExit(t *testing.T) {
	var stdout, stderr []string
	obs, err := New().Observe(context.Background(), "sh",
		[]string{"-c", "echo one; echo two; echo oops >&2; exit 3"}, Options{},
		func(line string) { stdout = append(stdout, line) },
		func(line string) { stderr = append(stderr, line) })
	require.NoError(t, err)
	assert.NotZero(t, obs.PID())

	select {
	case <-obs.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process never exited")
	}

	require.NotNil(t, obs.ExitCode())
	assert.Equal(t, 3, *obs.ExitCode())
	assert.Equal(t, []string{"one", "two"}, stdout)
	assert.Equal(t, []string{"oops"}, stderr)
}

func TestObserveExitCodeNilWhileRunning(t *testing.T) {
	obs, err := New().Observe(context.Background(), "sh", []string{"-c", "sleep 30"}, Options{}, nil, nil)
	require.NoError(t, err)
	defer obs.Kill()

	assert.Nil(t, obs.ExitCode())
}

func TestKillStopsProcess(t *testing.T) {
	obs, err := New().Observe(context.Background(), "sh", []string{"-c", "sleep 30"}, Options{}, nil, nil)
	require.NoError(t, err)

	obs.Kill()
	select {
	case <-obs.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("killed process never exited")
	}

	// Repeat calls after exit are harmless.
	obs.Kill()
}

func TestSpawnReturnsDetachedHandle(t *testing.T) {
	cmd, err := New().Spawn("sh", []string{"-c", "exit 0"}, Options{})
	require.NoError(t, err)
	require.NotNil(t, cmd.Process)
	require.NoError(t, cmd.Wait())
}
