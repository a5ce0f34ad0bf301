package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rootless-containers/guestproxyagent/pkg/api/daemon/router"
	"github.com/rootless-containers/guestproxyagent/pkg/proxyerror"
	"github.com/rootless-containers/guestproxyagent/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	s   *status.GuestProxyAgentAggregateStatus
	err error
}

func (p *fakeProvider) AggregateStatus() (*status.GuestProxyAgentAggregateStatus, error) {
	return p.s, p.err
}

// serveUnix serves h on a UNIX socket in a temporary directory and returns its path.
func serveUnix(t *testing.T, h http.Handler) string {
	socketPath := filepath.Join(t.TempDir(), "statusd.sock")
	l, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	ts := httptest.NewUnstartedServer(h)
	ts.Listener.Close()
	ts.Listener = l
	ts.Start()
	t.Cleanup(ts.Close)
	return socketPath
}

func serveBackend(t *testing.T, p router.StatusProvider) string {
	r := mux.NewRouter()
	router.AddRoutes(r, &router.Backend{StatusProvider: p})
	return serveUnix(t, r)
}

func TestGetStatus(t *testing.T) {
	s := &status.GuestProxyAgentAggregateStatus{
		Timestamp: "2024-05-01T10:20:30.123Z",
		ProxyAgentStatus: status.ProxyAgentStatus{
			Version: "1.0.20",
			Status:  status.OverallSuccess,
			KeyLatchStatus: status.ProxyAgentDetailStatus{
				Status:  status.ModuleRunning,
				Message: "key latched",
				States:  map[string]string{"secureChannelState": "wireserver"},
			},
			ProxyConnectionsCount: status.NewConnectionsCount(9),
		},
		ProxyConnectionSummary:    []status.ProxyConnectionSummary{{UserName: "root", Port: 80, Count: 9, UserGroups: []string{"root"}}},
		FailedAuthenticateSummary: []status.ProxyConnectionSummary{},
	}
	c, err := New(serveBackend(t, &fakeProvider{s: s}))
	require.NoError(t, err)

	sm := c.StatusManager()
	assert.Equal(t, nil, sm.Ping(context.TODO()))

	got, err := sm.Get(context.TODO())
	assert.Equal(t, nil, err)
	assert.Equal(t, s, got)
}

func TestGetStatusServerError(t *testing.T) {
	p := &fakeProvider{err: proxyerror.ParseURLMessage("status.json", "not a file")}
	c, err := New(serveBackend(t, p))
	require.NoError(t, err)

	_, err = c.StatusManager().Get(context.TODO())
	assert.EqualError(t, err, "Failed to get response from http://proxyagent-statusd/v1/status, status code: 500 Internal Server Error")
}

func TestGetStatusNotFound(t *testing.T) {
	c, err := New(serveUnix(t, http.NotFoundHandler()))
	require.NoError(t, err)

	err = c.StatusManager().Ping(context.TODO())
	assert.EqualError(t, err, "Failed to get response from http://proxyagent-statusd/v1/ping, status code: 404 Not Found")
}

func TestGetStatusInvalidBody(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"proxyAgentStatus":{"status":"FAILED"}}`))
	})
	c, err := New(serveUnix(t, h))
	require.NoError(t, err)

	_, err = c.StatusManager().Get(context.TODO())
	assert.EqualError(t, err, `Deserialization failed: unknown overall state "FAILED"`)
}

func TestUnexpectedPong(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"ping"`))
	})
	c, err := New(serveUnix(t, h))
	require.NoError(t, err)

	err = c.StatusManager().Ping(context.TODO())
	assert.EqualError(t, err, `Deserialization failed: unexpected response expected="pong" actual="ping"`)
}

func TestNewMissingSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")
	_, err := New(socketPath)
	assert.EqualError(t, err, "IO error: status daemon socket is not available: stat "+socketPath+": no such file or directory")
}

func TestTransportError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")
	hc := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}
	err := NewWithHTTPClient(hc).StatusManager().Ping(context.TODO())
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to send request to http://proxyagent-statusd/v1/ping: "), err.Error())
}
