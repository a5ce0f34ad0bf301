package statusfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rootless-containers/guestproxyagent/pkg/proxyerror"
	"github.com/rootless-containers/guestproxyagent/pkg/status"
	"github.com/sirupsen/logrus"
)

// Write stores s at path. The file is replaced atomically, so a concurrent
// Read sees either the previous snapshot or this one.
func Write(path string, s *status.GuestProxyAgentAggregateStatus) error {
	if s == nil {
		return proxyerror.IO(fmt.Sprintf("refusing to write status file %s", path), errors.New("nil snapshot"))
	}
	m, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return proxyerror.IO(fmt.Sprintf("failed to encode status for %s", path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return proxyerror.IO(fmt.Sprintf("failed to create temporary file for %s", path), err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(m); err != nil {
		tmp.Close()
		return proxyerror.IO(fmt.Sprintf("failed to write %s", tmpPath), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return proxyerror.IO(fmt.Sprintf("failed to chmod %s", tmpPath), err)
	}
	if err := tmp.Close(); err != nil {
		return proxyerror.IO(fmt.Sprintf("failed to close %s", tmpPath), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return proxyerror.IO(fmt.Sprintf("failed to replace %s", path), err)
	}
	logrus.Debugf("wrote status file %s (%d bytes)", path, len(m))
	return nil
}

// Read loads the snapshot stored at path.
func Read(path string) (*status.GuestProxyAgentAggregateStatus, error) {
	m, err := os.ReadFile(path)
	if err != nil {
		return nil, proxyerror.IO("failed to read status file", err)
	}
	var s status.GuestProxyAgentAggregateStatus
	if err := json.Unmarshal(m, &s); err != nil {
		return nil, proxyerror.IO(fmt.Sprintf("failed to parse status file %s", path), err)
	}
	return &s, nil
}

// Store serves the snapshot at Path. Every call re-reads the file.
type Store struct {
	Path string
}

func (st *Store) AggregateStatus() (*status.GuestProxyAgentAggregateStatus, error) {
	return Read(st.Path)
}
