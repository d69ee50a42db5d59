// Package main runs the prerender daemon: a pool of warm browser
// sessions behind a small HTTP API that renders JavaScript-heavy pages
// on demand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/prerender/pkg/browser"
	"github.com/entrhq/prerender/pkg/config"
	"github.com/entrhq/prerender/pkg/fetch"
	"github.com/entrhq/prerender/pkg/logging"
)

const (
	version = "0.1.0"

	shutdownGrace = 10 * time.Second
)

func main() {
	var (
		configPath  string
		listenAddr  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("PRERENDER_CONFIG"), "Path to YAML configuration file (or set PRERENDER_CONFIG)")
	flag.StringVar(&listenAddr, "listen", "", "Listen address, overrides configuration")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("prerenderd v%s\n", version)
		return
	}

	if err := run(configPath, listenAddr); err != nil {
		log.Fatalf("prerenderd: %v", err)
	}
}

func run(configPath, listenAddr string) error {
	logger, err := logging.NewLogger("daemon")
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Close()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	logger.Infof("starting prerenderd v%s: browser=%s mode=%s pool=%d listen=%s",
		version, cfg.Browser, cfg.Mode(), cfg.PoolSize, cfg.ListenAddr)

	factory, err := browser.NewFactory(cfg.FactoryOptions(), logger)
	if err != nil {
		return fmt.Errorf("provision browser runtime: %w", err)
	}
	defer factory.Close()

	pool, err := browser.NewPool(factory, browser.PoolOptions{
		Size:           cfg.PoolSize,
		AcquireTimeout: cfg.AcquireTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("warm session pool: %w", err)
	}

	rules, err := fetch.NewRules(cfg.RenderPatterns)
	if err != nil {
		return err
	}
	mw := fetch.NewMiddleware(pool, rules, logger)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newRouter(mw, pool, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("render API listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		pool.Shutdown()
		return fmt.Errorf("render API: %w", err)
	}

	// Stop accepting requests first, then terminate the sessions.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := pool.Shutdown(); err != nil {
		logger.Warnf("pool shutdown: %v", err)
	}

	logger.Infof("shutdown complete")
	return nil
}
