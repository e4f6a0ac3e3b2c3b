package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/entitlements"
	"github.com/jrsteele09/go-control-plane/internal/metrics"
	"github.com/jrsteele09/go-control-plane/organizations"
	"github.com/jrsteele09/go-control-plane/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := buildHandler(ctx, a)
	if err != nil {
		return err
	}

	displayAppname(cfg.GetAppName())
	srv := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	if err := shutdown(srv); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildHandler wires the services behind the HTTP API.
func buildHandler(ctx context.Context, a *app) (*server.Server, error) {
	m := metrics.New()
	if a.db != nil {
		m.RegisterDBStatsCollector(a.db, "controlplane")
	}

	authService, err := a.authService(ctx, auth.WithOutcomeObserver(m.ObserveAuthOutcome))
	if err != nil {
		return nil, err
	}
	codec, err := loadCodec(ctx, a.cfg, a.secrets)
	if err != nil {
		return nil, err
	}
	orgService, err := organizations.NewService(a.orgs)
	if err != nil {
		return nil, err
	}
	store, err := entitlements.NewStore(a.orgs, codec, entitlements.WithCheckObserver(m.ObserveLicenseCheck))
	if err != nil {
		return nil, err
	}

	svc := server.Services{
		Auth:          authService,
		Organizations: orgService,
		Entitlements:  store,
		Licenses:      codec,
		Metrics:       m,
	}
	if a.db != nil {
		svc.Ping = a.ping
	}
	return server.New(a.cfg, svc)
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
