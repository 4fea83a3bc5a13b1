package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tinytelemetry/pulse/internal/control"
	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/export/otlp"
	"github.com/tinytelemetry/pulse/internal/httpserver"

	"golang.org/x/sync/errgroup"
)

// runServer starts the collecting engine with the HTTP API and control
// socket, and keeps them running until a signal arrives.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	eng := engine.New()
	eng.Start()
	defer eng.Stop()

	// Start HTTP API server if enabled
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, eng)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Start socket server for dashboard IPC
	sockServer := control.NewServer(cfg.SocketPath, eng, version)
	if err := sockServer.Start(); err != nil {
		log.Printf("Warning: failed to start socket server: %v", err)
	} else {
		defer sockServer.Stop()
	}

	// Start OTLP export if enabled
	if cfg.ExportEnabled {
		exporter, err := otlp.New(otlp.Config{
			Endpoint:    cfg.ExportEndpoint,
			Interval:    cfg.ExportInterval,
			ServiceName: cfg.ServiceName,
		}, eng)
		if err != nil {
			return fmt.Errorf("failed to initialize OTLP export: %w", err)
		}
		exporter.Start()
		defer exporter.Stop()
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	printStartupBanner(cfg)

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Workload {
		workload := newDemoWorkload(eng, cfg.PullInterval)
		g.Go(func() error {
			workload.run(gctx)
			return nil
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()

	// If we reach here, graceful shutdown succeeded within the deadline.
	// The signal goroutine (if active) dies with the process.
	signal.Stop(sigCh)

	return nil
}

func printStartupBanner(cfg appConfig) {
	fmt.Printf("pulse %s\n", version)
	if cfg.APIEnabled {
		fmt.Printf("  HTTP API    http://%s\n", cfg.APIAddr)
	}
	fmt.Printf("  control     %s\n", cfg.SocketPath)
	if cfg.ExportEnabled {
		fmt.Printf("  OTLP export %s every %s\n", cfg.ExportEndpoint, cfg.ExportInterval)
	}
	if cfg.Workload {
		fmt.Printf("  demo workload enabled (flip with workload: false)\n")
	}
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "pulse")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "pulse.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}
