package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rootless-containers/guestproxyagent/pkg/api/daemon/router"
	"github.com/rootless-containers/guestproxyagent/pkg/proxyerror"
	"github.com/rootless-containers/guestproxyagent/pkg/statusfile"
	pkgversion "github.com/rootless-containers/guestproxyagent/pkg/version"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

var (
	socketFile  string
	statusFile  string
	pidFile     string
	logFilePath string
)

func main() {
	unix.Umask(0o077) // https://github.com/golang/go/issues/11822#issuecomment-123850227
	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		logrus.Fatalf("$XDG_RUNTIME_DIR needs to be set")
	}

	flag.StringVar(&socketFile, "socket", filepath.Join(xdgRuntimeDir, "proxyagent-statusd.sock"), "Socket file")
	flag.StringVar(&statusFile, "status-file", filepath.Join(xdgRuntimeDir, "status.json"), "Aggregate status file written by the guest proxy agent")
	flag.StringVar(&pidFile, "pid-file", "", "Pid file")
	flag.StringVar(&logFilePath, "log-file", "", "Output logs to file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	version := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")

	// Parse arguments
	flag.Parse()
	if flag.NArg() > 0 {
		flag.PrintDefaults()
		logrus.Fatal("Invalid command")
	}

	if *debug {
		logrus.Info("Debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	if *version {
		fmt.Printf("proxyagent-statusd version %s\n", strings.TrimPrefix(pkgversion.Version, "v"))
		os.Exit(0)
	}

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if err := os.Remove(socketFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(proxyerror.IO("cannot cleanup socket file", err)).Fatal("startup failed")
	}
	logrus.Infof("SocketPath: %s", socketFile)

	if pidFile != "" {
		pid := fmt.Sprintf("%d", os.Getpid())
		if err := os.WriteFile(pidFile, []byte(pid), 0o644); err != nil {
			logrus.WithError(proxyerror.IO("cannot write pid file", err)).Fatal("startup failed")
		}
		logrus.Infof("PidFilePath: %s", pidFile)
	}

	if logFilePath != "" {
		logFile, err := os.Create(logFilePath)
		if err != nil {
			logrus.WithError(proxyerror.IO("cannot create log file "+logFilePath, err)).Fatal("startup failed")
		}
		defer logFile.Close()
		logrus.SetOutput(io.MultiWriter(os.Stderr, logFile))
		logrus.Infof("LogFilePath %s", logFilePath)
	}

	if _, err := os.Stat(statusFile); err != nil {
		logrus.WithError(proxyerror.IO("status file is not available yet", err)).Warn("serving errors until the agent writes it")
	}
	logrus.Infof("StatusFilePath: %s", statusFile)

	err := listenServeStatusAPI(socketFile, &router.Backend{
		StatusProvider: &statusfile.Store{Path: statusFile},
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to serve status API")
	}
}

func listenServeStatusAPI(socketPath string, backend *router.Backend) error {
	r := mux.NewRouter()
	router.AddRoutes(r, backend)
	srv := &http.Server{Handler: r}
	err := os.RemoveAll(socketPath)
	if err != nil {
		return proxyerror.IO("cannot remove "+socketPath, err)
	}
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return proxyerror.IO("cannot listen on "+socketPath, err)
	}
	logrus.Infof("Starting status API to serve on %s", socketPath)
	return srv.Serve(l)
}
