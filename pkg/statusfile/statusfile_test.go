package statusfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rootless-containers/guestproxyagent/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := &status.GuestProxyAgentAggregateStatus{
		Timestamp: "2024-05-01T10:20:30.123Z",
		ProxyAgentStatus: status.ProxyAgentStatus{
			Version: "1.0.20",
			Status:  status.OverallError,
			MonitorStatus: status.ProxyAgentDetailStatus{
				Status:  status.ModuleStopped,
				Message: "monitor stopped",
				States:  map[string]string{},
			},
			ProxyConnectionsCount: status.NewConnectionsCount(7),
		},
		ProxyConnectionSummary:    []status.ProxyConnectionSummary{{UserName: "root", Port: 443, Count: 2}},
		FailedAuthenticateSummary: []status.ProxyConnectionSummary{},
	}

	err := Write(path, s)
	assert.Equal(t, nil, err)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())

	s2, err := Read(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, s, s2)

	// overwrite
	s.ProxyAgentStatus.Status = status.OverallSuccess
	assert.Equal(t, nil, Write(path, s))
	store := &Store{Path: path}
	s3, err := store.AggregateStatus()
	assert.Equal(t, nil, err)
	assert.Equal(t, status.OverallSuccess, s3.ProxyAgentStatus.Status)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, 1, len(entries))
}

func TestReadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := Read(path)
	assert.EqualError(t, err, "IO error: failed to read status file: open "+path+": no such file or directory")
}

func TestReadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"proxyAgentStatus":{"status":"BROKEN"}}`), 0o644))
	_, err := Read(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "IO error: failed to parse status file "+path+": ")
	assert.Contains(t, err.Error(), `unknown overall state "BROKEN"`)
}

func TestWriteToMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "status.json")
	err := Write(path, &status.GuestProxyAgentAggregateStatus{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "IO error: failed to create temporary file for "+path)
}

func TestWriteNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	err := Write(path, nil)
	assert.EqualError(t, err, "IO error: refusing to write status file "+path+": nil snapshot")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
