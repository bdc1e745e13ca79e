package jupyter

import (
	"context"
	"errors"
	"fmt"
)

// InstallMissingError reports that a required Jupyter capability could not be
// located on any known interpreter. Fatal, never retried; Hint carries
// remediation guidance for the user.
type InstallMissingError struct {
	Capability string
	Hint       string
}

func (e *InstallMissingError) Error() string {
	msg := fmt.Sprintf("jupyter is not installed: %s support could not be located", e.Capability)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// ServerCrashedError reports that the notebook server process exited before
// it became ready. Fatal for the attempt; never retried.
type ServerCrashedError struct {
	ExitCode int
}

func (e *ServerCrashedError) Error() string {
	return fmt.Sprintf("jupyter server crashed with code %d", e.ExitCode)
}

// WaitForIdleTimeoutError reports that a kernel never reached the idle state.
// The orchestrator retries this kind up to the configured maximum.
type WaitForIdleTimeoutError struct {
	BaseURL string
}

func (e *WaitForIdleTimeoutError) Error() string {
	return fmt.Sprintf("kernel on %s never became idle", e.BaseURL)
}

// SelfSignedCertError reports a TLS trust failure against a remote server.
// Kept distinct from ConnectFailureError so the caller can offer a
// trust-override flow.
type SelfSignedCertError struct {
	BaseURL string
	Err     error
}

func (e *SelfSignedCertError) Error() string {
	return fmt.Sprintf("certificate for %s is not trusted: %v", e.BaseURL, e.Err)
}

func (e *SelfSignedCertError) Unwrap() error { return e.Err }

// ConnectFailureError wraps any other transport or protocol error with the
// base URL of the server that was being contacted.
type ConnectFailureError struct {
	BaseURL string
	Err     error
}

func (e *ConnectFailureError) Error() string {
	return fmt.Sprintf("failed to connect to jupyter server at %s: %v", e.BaseURL, e.Err)
}

func (e *ConnectFailureError) Unwrap() error { return e.Err }

// IsCancellation reports whether err is a cancellation outcome. Cancellation
// always propagates unwrapped, so the taxonomy types above never mask it.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
