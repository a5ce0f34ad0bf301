// This code is copied from https://github.com/rootless-containers/rootlesskit/blob/master/pkg/api/client/client.go v0.14.6
// The code is licensed under Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"

	"github.com/rootless-containers/guestproxyagent/pkg/api"
	"github.com/rootless-containers/guestproxyagent/pkg/proxyerror"
	"github.com/rootless-containers/guestproxyagent/pkg/status"
	"github.com/sirupsen/logrus"
)

type Client interface {
	HTTPClient() *http.Client
	StatusManager() *StatusManager
}

// New creates a client.
// socketPath is a path to the UNIX socket, without unix:// prefix.
func New(socketPath string) (Client, error) {
	if _, err := os.Stat(socketPath); err != nil {
		return nil, proxyerror.IO("status daemon socket is not available", err)
	}
	hc := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}
	return NewWithHTTPClient(hc), nil
}

func NewWithHTTPClient(hc *http.Client) Client {
	return &client{
		Client:    hc,
		version:   api.Version,
		dummyHost: "proxyagent-statusd",
	}
}

type client struct {
	*http.Client
	version   string
	dummyHost string
}

func (c *client) HTTPClient() *http.Client {
	return c.Client
}

func (c *client) StatusManager() *StatusManager {
	return &StatusManager{
		client: c,
	}
}

func readAtMost(r io.Reader, maxBytes int) ([]byte, error) {
	lr := &io.LimitedReader{
		R: r,
		N: int64(maxBytes),
	}
	b, err := io.ReadAll(lr)
	if err != nil {
		return b, err
	}
	if lr.N == 0 {
		return b, fmt.Errorf("expected at most %d bytes, got more", maxBytes)
	}
	return b, nil
}

// ErrorBodyMaxLength bounds how much of a non-2XX response body is read for logging.
const ErrorBodyMaxLength = 64 * 1024

func successful(target string, resp *http.Response) error {
	if resp.StatusCode/100 != 2 {
		b, _ := readAtMost(resp.Body, ErrorBodyMaxLength)
		var ej api.ErrorJSON
		if json.Unmarshal(b, &ej) == nil && ej.Message != "" {
			logrus.Debugf("%s returned %d: %s", target, resp.StatusCode, ej.Message)
		}
		return proxyerror.Hyper(proxyerror.HyperServerError{
			Target:     target,
			StatusCode: resp.StatusCode,
		})
	}
	return nil
}

type StatusManager struct {
	*client
}

func (sm *StatusManager) url(path string) (string, error) {
	raw := fmt.Sprintf("http://%s/%s/%s", sm.client.dummyHost, sm.client.version, path)
	u, err := url.Parse(raw)
	if err != nil {
		return "", proxyerror.ParseURL(raw, err)
	}
	return u.String(), nil
}

// get performs a GET on path and decodes the JSON response into v.
func (sm *StatusManager) get(ctx context.Context, path string, v interface{}) error {
	u, err := sm.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return proxyerror.Hyper(proxyerror.HyperRequestBuilder{Reason: err.Error()})
	}
	req.Header.Set("Accept", "application/json")
	resp, err := sm.client.HTTPClient().Do(req)
	if err != nil {
		return proxyerror.Hyper(proxyerror.HyperCustom{
			Context: fmt.Sprintf("Failed to send request to %s", u),
			Cause:   err,
		})
	}
	defer resp.Body.Close()
	if err := successful(u, resp); err != nil {
		return err
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(v); err != nil {
		return proxyerror.Hyper(proxyerror.HyperDeserialize{Reason: err.Error()})
	}
	return nil
}

func (sm *StatusManager) Ping(ctx context.Context) error {
	var pong string
	if err := sm.get(ctx, "ping", &pong); err != nil {
		return err
	}
	if pong != "pong" {
		return proxyerror.Hyper(proxyerror.HyperDeserialize{
			Reason: fmt.Sprintf("unexpected response expected=%q actual=%q", "pong", pong),
		})
	}
	return nil
}

func (sm *StatusManager) Get(ctx context.Context) (*status.GuestProxyAgentAggregateStatus, error) {
	var s status.GuestProxyAgentAggregateStatus
	if err := sm.get(ctx, "status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}
