// Command nomnom-dev runs a self-contained recommendation service for
// local development: the full HTTP API backed by in-memory fixtures, so
// the client can be exercised without the production backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nomnomhq/nomnom/internal/devserver"
	"github.com/nomnomhq/nomnom/internal/logging"
	"github.com/nomnomhq/nomnom/internal/model"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var addr string
	var fixturesPath string
	var jwtSecret string
	var pageSize int
	var rateLimit float64
	var verbose bool
	var showVersion bool

	flag.StringVar(&addr, "addr", model.DefaultDevListenAddr, "listen address")
	flag.StringVar(&fixturesPath, "fixtures", "", "fixtures file (YAML); built-in data when empty")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "token signing secret (default is a fixed dev secret)")
	flag.IntVar(&pageSize, "page-size", 0, "recommendations per page (default 5)")
	flag.Float64Var(&rateLimit, "rate-limit", 0, "requests per second per client; 0 disables limiting")
	flag.BoolVar(&verbose, "verbose", false, "debug logging")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("NomNom Dev Server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	log, err := logging.NewStderrLogger(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(addr, fixturesPath, jwtSecret, pageSize, rateLimit, log); err != nil {
		log.Error("dev server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(addr, fixturesPath, jwtSecret string, pageSize int, rateLimit float64, log *zap.Logger) error {
	fx, err := devserver.LoadFixtures(fixturesPath)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	srv, err := devserver.NewServer(devserver.Config{
		Addr:      addr,
		JWTSecret: jwtSecret,
		PageSize:  pageSize,
		RateLimit: rateLimit,
	}, fx, log)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}
	log.Info("dev server listening",
		zap.String("addr", srv.Addr()),
		zap.Int("restaurants", len(fx.Restaurants)),
		zap.Int("users", len(fx.Users)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		done := make(chan error, 1)
		go func() { done <- srv.Stop() }()
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			return fmt.Errorf("shutdown timed out")
		}
	})

	return g.Wait()
}
