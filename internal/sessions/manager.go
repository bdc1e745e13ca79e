// Package sessions implements the session-manager side of the engine: a
// short-lived handle for querying and controlling kernels on one Jupyter
// server, local or remote, over its REST interface.
package sessions

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "Sessions"

// Factory creates session managers over connection descriptors. The
// orchestrator depends on the interface so tests can substitute fakes.
type Factory interface {
	Create(conn *jupyter.ConnectionInfo) ManagerAPI
}

// ManagerAPI is what a session manager exposes to the rest of the engine.
type ManagerAPI interface {
	GetKernelSpecs(ctx context.Context) ([]*jupyter.KernelSpec, error)
	Connection() *jupyter.ConnectionInfo
	StartKernel(ctx context.Context, spec *jupyter.KernelSpec) (*Kernel, error)
	WaitForIdle(ctx context.Context, kernel *Kernel, timeout time.Duration) error
	Dispose()
}

// HTTPFactory is the default factory.
type HTTPFactory struct{}

func (HTTPFactory) Create(conn *jupyter.ConnectionInfo) ManagerAPI {
	return NewManager(conn)
}

// Kernel is a running kernel instance on the server.
type Kernel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ExecutionState string `json:"execution_state"`
}

// Manager talks to one Jupyter server. Dispose is safe to call on every exit
// path, including after failures.
type Manager struct {
	conn   *jupyter.ConnectionInfo
	client *http.Client
}

// NewManager builds a manager over the connection descriptor.
func NewManager(conn *jupyter.ConnectionInfo) *Manager {
	return &Manager{
		conn:   conn,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Connection returns the descriptor this manager talks to.
func (m *Manager) Connection() *jupyter.ConnectionInfo { return m.conn }

// Dispose releases the manager's transport resources. It does not touch the
// connection itself, whose lifetime the orchestrator owns.
func (m *Manager) Dispose() {
	m.client.CloseIdleConnections()
}

func (m *Manager) endpoint(path string) string {
	base := strings.TrimRight(m.conn.BaseURL, "/")
	return base + path
}

func (m *Manager) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.endpoint(path), reader)
	if err != nil {
		return nil, err
	}
	if m.conn.Token != "" {
		req.Header.Set("Authorization", "token "+m.conn.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

// kernelSpecsResponse is the /api/kernelspecs wire shape.
type kernelSpecsResponse struct {
	Default     string `json:"default"`
	KernelSpecs map[string]struct {
		Name string `json:"name"`
		Spec struct {
			Argv        []string `json:"argv"`
			DisplayName string   `json:"display_name"`
			Language    string   `json:"language"`
		} `json:"spec"`
	} `json:"kernelspecs"`
}

// GetKernelSpecs enumerates the kernel specs the server offers. The default
// spec sorts first; the rest keep a stable name order.
func (m *Manager) GetKernelSpecs(ctx context.Context) ([]*jupyter.KernelSpec, error) {
	payload, err := m.do(ctx, http.MethodGet, "/api/kernelspecs", nil)
	if err != nil {
		return nil, err
	}

	var decoded kernelSpecsResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("kernelspecs response: %w", err)
	}

	specs := make([]*jupyter.KernelSpec, 0, len(decoded.KernelSpecs))
	for name, entry := range decoded.KernelSpecs {
		spec := &jupyter.KernelSpec{
			Name:        name,
			DisplayName: entry.Spec.DisplayName,
			Language:    entry.Spec.Language,
			Argv:        entry.Spec.Argv,
		}
		if entry.Name != "" {
			spec.Name = entry.Name
		}
		if len(spec.Argv) > 0 {
			spec.Path = spec.Argv[0]
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		if (specs[i].Name == decoded.Default) != (specs[j].Name == decoded.Default) {
			return specs[i].Name == decoded.Default
		}
		return specs[i].Name < specs[j].Name
	})
	return specs, nil
}

// StartKernel starts a kernel for the given spec (or the server default when
// spec is nil) and binds the spec's ID to the new instance.
func (m *Manager) StartKernel(ctx context.Context, spec *jupyter.KernelSpec) (*Kernel, error) {
	reqBody := map[string]string{}
	if spec != nil && spec.Name != "" {
		reqBody["name"] = spec.Name
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	payload, err := m.do(ctx, http.MethodPost, "/api/kernels", body)
	if err != nil {
		return nil, err
	}

	var kernel Kernel
	if err := json.Unmarshal(payload, &kernel); err != nil {
		return nil, fmt.Errorf("kernel start response: %w", err)
	}
	if spec != nil {
		spec.ID = kernel.ID
	}
	logging.Debug(logSubsystem, "started kernel %s (%s)", kernel.ID, kernel.Name)
	return &kernel, nil
}

// WaitForIdle polls the kernel until it reports the idle execution state.
// Elapsing the timeout yields WaitForIdleTimeoutError, the one retriable
// failure kind in the engine.
func (m *Manager) WaitForIdle(ctx context.Context, kernel *Kernel, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return &jupyter.WaitForIdleTimeoutError{BaseURL: m.conn.BaseURL}
		case <-ticker.C:
			payload, err := m.do(ctx, http.MethodGet, "/api/kernels/"+url.PathEscape(kernel.ID), nil)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Debug(logSubsystem, "kernel %s poll failed: %v", kernel.ID, err)
				continue
			}
			var state Kernel
			if err := json.Unmarshal(payload, &state); err != nil {
				continue
			}
			if state.ExecutionState == "idle" {
				return nil
			}
		}
	}
}

// IsSelfSignedError reports whether err stems from an untrusted server
// certificate, so remote TLS trust failures classify separately from other
// connection failures.
func IsSelfSignedError(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	return errors.As(err, &invalidCert)
}
