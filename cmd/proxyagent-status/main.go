package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rootless-containers/guestproxyagent/pkg/api/daemon/client"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var socketFile string

func main() {
	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		logrus.Fatalf("$XDG_RUNTIME_DIR needs to be set")
	}

	flag.StringVar(&socketFile, "socket", filepath.Join(xdgRuntimeDir, "proxyagent-statusd.sock"), "Socket file of proxyagent-statusd")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	debug := flag.Bool("debug", false, "Enable debug mode")

	// Parse arguments
	flag.Parse()
	if flag.NArg() > 0 {
		flag.PrintDefaults()
		logrus.Fatal("Invalid command")
	}
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	c, err := client.New(socketFile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	s, err := c.StatusManager().Get(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to get status")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		logrus.WithError(err).Fatal("failed to print status")
	}
}
