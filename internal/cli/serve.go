package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/takenote/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveBind string
	servePort int
	serveUI   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "bind address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveUI, "ui", "", "directory holding the built editor UI")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveBind != "" {
		cfg.Server.Bind = serveBind
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveUI != "" {
		cfg.Server.UIDir = serveUI
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.db, a.settings, server.Options{
		Version:     VersionString(),
		UIDir:       cfg.Server.UIDir,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})
	addr := cfg.ListenAddr()

	// Streams hang off baseCtx so they end before Shutdown waits on them.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errc := make(chan error, 1)
	go func() {
		stderr(cmd, "takenote serving on %s\n", addr)
		stderr(cmd, "  db: %s\n", a.db.Path)
		if cfg.Server.UIDir != "" {
			stderr(cmd, "  ui: %s\n", cfg.Server.UIDir)
		}
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	stderr(cmd, "\nshutting down...\n")
	cancelBase()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
