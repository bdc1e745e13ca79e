package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/sessions"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// ConnectToNotebookServer resolves a server, local or remote, and returns a
// connected handle. Kernel-idle timeouts are retried up to the configured
// maximum; every other failure is classified once and returned. Cancellation
// aborts the whole operation and propagates as-is.
func (e *Engine) ConnectToNotebookServer(ctx context.Context, options ConnectOptions) (*ConnectedServer, error) {
	if options.Purpose == "" {
		options.Purpose = jupyter.PurposeInteractive
	}

	interp, err := e.UsableInterpreter(ctx)
	if err != nil {
		return nil, err
	}

	maxTries := e.maxTries()
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		conn, spec, err := e.startOrConnect(ctx, options)
		if err != nil {
			// Launch and spec-resolution failures are never retried; only
			// an established connection whose kernel stalls is.
			return nil, err
		}

		launchInfo := &jupyter.LaunchInfo{
			ConnectionInfo:     conn,
			CurrentInterpreter: interp,
			KernelSpec:         spec,
			WorkingDir:         options.WorkingDir,
			URI:                options.URI,
			Purpose:            options.Purpose,
			EnableDebugging:    options.EnableDebugging,
		}

		server := newConnectedServer(launchInfo)
		connectErr := server.Connect(ctx, e.sessions)
		if connectErr == nil {
			kind := "remote"
			if conn.LocalLaunch {
				kind = "local"
			}
			logging.Info("Telemetry", "jupyter connect succeeded: %s purpose=%s", kind, options.Purpose)
			return server, nil
		}

		server.Dispose()

		retry, classified := classifyConnectFailure(connectErr, attemptState{
			localLaunch:     conn.LocalLaunch,
			baseURL:         conn.BaseURL,
			connEstablished: true,
			triesRemaining:  maxTries - attempt - 1,
		})
		if !retry {
			// With no tries left the classifier never asks for a retry, so
			// the loop always terminates here.
			return nil, classified
		}
		logging.Info(logSubsystem, "kernel did not become idle, retrying (%d/%d)", attempt+1, maxTries)
	}
}

// startOrConnect yields the connection descriptor and kernel spec for one
// attempt: a remote descriptor built from saved settings when a URI is
// given, a fresh local launch otherwise.
func (e *Engine) startOrConnect(ctx context.Context, options ConnectOptions) (*jupyter.ConnectionInfo, *jupyter.KernelSpec, error) {
	if options.URI != "" {
		conn, err := e.remoteConnection(options.URI)
		if err != nil {
			return nil, nil, err
		}
		return conn, e.savedKernelSpec(), nil
	}

	result, err := e.launcher.StartNotebookServer(ctx, options.UseDefaultConfig)
	if err != nil {
		return nil, nil, err
	}

	conn, spec := result.Connection, result.KernelSpec
	if conn.LocalLaunch && spec == nil {
		spec, err = e.querySpecViaSession(ctx, conn)
		if err != nil {
			conn.Dispose()
			return nil, nil, err
		}
	}
	return conn, spec, nil
}

// querySpecViaSession opens a session manager purely to ask the freshly
// launched server for its kernel specs. The manager is disposed before
// returning on every path.
func (e *Engine) querySpecViaSession(ctx context.Context, conn *jupyter.ConnectionInfo) (*jupyter.KernelSpec, error) {
	mgr := e.sessions.Create(conn)
	defer mgr.Dispose()
	return e.matcher.GetMatchingKernelSpec(ctx, mgr)
}

// remoteConnection builds a descriptor from a saved server URI like
// "https://host:8888/?token=abc". No local process is involved.
func (e *Engine) remoteConnection(uri string) (*jupyter.ConnectionInfo, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid jupyter server URI %q: %w", uri, err)
	}
	token := parsed.Query().Get("token")
	base := *parsed
	base.RawQuery = ""
	base.Fragment = ""
	return jupyter.NewRemoteConnectionInfo(base.String(), token, parsed.Hostname()), nil
}

// savedKernelSpec converts the configured kernel spec, if any.
func (e *Engine) savedKernelSpec() *jupyter.KernelSpec {
	saved := e.settings.SavedKernelSpec
	if saved == nil {
		return nil
	}
	return &jupyter.KernelSpec{
		Name:        saved.Name,
		DisplayName: saved.DisplayName,
		Language:    saved.Language,
		Argv:        saved.Argv,
		Path:        saved.Path,
	}
}

// attemptState is the per-attempt context the failure classifier needs.
type attemptState struct {
	localLaunch     bool
	baseURL         string
	connEstablished bool
	triesRemaining  int
}

// classifyConnectFailure is the pure classification step of the retry loop:
// it maps a connect failure and the attempt state onto either "retry" or a
// final error. It performs no I/O so the policy is testable on its own.
func classifyConnectFailure(err error, st attemptState) (retry bool, out error) {
	if jupyter.IsCancellation(err) {
		return false, err
	}

	var idleTimeout *jupyter.WaitForIdleTimeoutError
	if errors.As(err, &idleTimeout) && st.triesRemaining > 0 {
		return true, err
	}

	if !st.connEstablished {
		return false, err
	}

	if !st.localLaunch {
		if sessions.IsSelfSignedError(err) {
			return false, &jupyter.SelfSignedCertError{BaseURL: st.baseURL, Err: err}
		}
		return false, &jupyter.ConnectFailureError{BaseURL: st.baseURL, Err: err}
	}
	return false, &jupyter.ConnectFailureError{BaseURL: st.baseURL, Err: err}
}
