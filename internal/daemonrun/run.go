// Package daemonrun wires the full daemon runtime from configuration and
// blocks until shutdown. It is shared by the redubd binary and the CLI's
// foreground run command.
package daemonrun

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"redub/internal/config"
	"redub/internal/daemon"
	"redub/internal/ipc"
	"redub/internal/logging"
	"redub/internal/prefs"
	"redub/internal/queue"
	"redub/internal/services/speech"
	"redub/internal/session"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the redub daemon runtime loop and blocks until the context is
// canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	if strings.TrimSpace(opts.LogLevel) != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "redub.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	svc := speech.NewClient(cfg.Speech.BaseURL, newSpeechDoer(cfg))
	prefStore := prefs.NewFileStore(cfg.PrefsPath())

	engine, err := session.New(cfg, store, svc, prefStore, logger)
	if err != nil {
		return fmt.Errorf("create session engine: %w", err)
	}

	d, err := daemon.New(cfg, store, engine, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, SocketPath(cfg), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("redub daemon shutting down")
	return nil
}

// SocketPath resolves the IPC socket location for a configuration.
func SocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "redub.sock")
	}
	if strings.TrimSpace(cfg.Paths.SocketPath) != "" {
		return cfg.Paths.SocketPath
	}
	return filepath.Join(cfg.Paths.StateDir, "redub.sock")
}

// newSpeechDoer builds the HTTP client used for speech service calls. The
// timeout covers synthesis renders, which run far longer than metadata
// requests.
func newSpeechDoer(cfg *config.Config) speech.HTTPDoer {
	timeout := cfg.Speech.RenderTimeout
	if timeout <= 0 {
		timeout = cfg.Speech.RequestTimeout
	}
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = time.Duration(timeout) * time.Second
	}
	return authDoer{base: client, token: strings.TrimSpace(cfg.Speech.APIToken)}
}

type authDoer struct {
	base  *http.Client
	token string
}

func (d authDoer) Do(req *http.Request) (*http.Response, error) {
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	return d.base.Do(req)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
