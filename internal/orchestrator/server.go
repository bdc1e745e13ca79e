package orchestrator

import (
	"context"

	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/sessions"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// ConnectedServer is the handle returned by a successful connection attempt:
// a live session manager with a kernel that has reached the idle state.
type ConnectedServer struct {
	LaunchInfo *jupyter.LaunchInfo

	manager sessions.ManagerAPI
	kernel  *sessions.Kernel
}

// newConnectedServer builds an unconnected server around launch info.
func newConnectedServer(launchInfo *jupyter.LaunchInfo) *ConnectedServer {
	return &ConnectedServer{LaunchInfo: launchInfo}
}

// Connect opens a session manager, starts a kernel for the launch info's
// spec, and waits for it to become idle. On failure the server is left for
// the caller to Dispose.
func (s *ConnectedServer) Connect(ctx context.Context, factory sessions.Factory) error {
	s.manager = factory.Create(s.LaunchInfo.ConnectionInfo)

	kernel, err := s.manager.StartKernel(ctx, s.LaunchInfo.KernelSpec)
	if err != nil {
		return err
	}
	s.kernel = kernel

	return s.manager.WaitForIdle(ctx, kernel, kernelIdleTimeout)
}

// Kernel returns the running kernel, nil before Connect succeeds.
func (s *ConnectedServer) Kernel() *sessions.Kernel { return s.kernel }

// Dispose tears the server down: the session manager first, then whatever
// the connection owns (the local process and working directory, if any).
// Safe on partially connected servers and safe to call twice.
func (s *ConnectedServer) Dispose() {
	if s.manager != nil {
		s.manager.Dispose()
		s.manager = nil
	}
	if s.LaunchInfo != nil && s.LaunchInfo.ConnectionInfo != nil {
		s.LaunchInfo.ConnectionInfo.Dispose()
	}
	logging.Debug(logSubsystem, "server disposed")
}
