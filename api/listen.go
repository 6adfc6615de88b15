package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ibootdbg/recfg/config"
)

// ListenAndServe builds a Server from cfg and runs it until an interrupt or
// a parent-process death is observed, then shuts it down gracefully. It
// blocks for the life of the process, and is what the CLI's -serve flag runs.
func ListenAndServe(cfg *config.Config) error {
	srv := NewServer(cfg.Service.ListenAddr, cfg.Service.MaxSessions)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var (
		shutdownOnce sync.Once
		shutdownErr  error
	)
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Fprintln(os.Stderr, "shutting down decode server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			shutdownErr = srv.Shutdown(ctx)
		})
	}

	// A parent that dies without sending SIGTERM (a crashed or force-quit
	// front end) would otherwise leave this process listening forever.
	monitor := NewProcessMonitor(performShutdown)
	monitor.Start()
	defer monitor.Stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-sigChan:
		performShutdown()
		return shutdownErr
	}
}
