package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/web/server"
)

func main() {
	defaults := server.DefaultConfig()

	// Parse command line flags
	port := flag.Int("port", defaults.Port, "Port to serve on")
	workers := flag.Int("workers", defaults.Workers, "Workers per render (0 = CPU count)")
	backendName := flag.String("backend", string(defaults.Backend), "Pool backend: native or process")
	static := flag.String("static", defaults.StaticDir, "Directory with the web client (empty disables it)")
	worker := flag.Bool("worker", false, "Run as a render worker process (internal)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// The process backend re-executes this binary with -worker
	if *worker {
		if err := renderer.ServeWorker(os.Stdin, os.Stdout); err != nil {
			os.Exit(1)
		}
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	core.SetLogger(logger)

	backend, err := renderer.ParseBackend(*backendName)
	if err != nil {
		logger.Error("invalid backend", "err", err)
		os.Exit(2)
	}

	config := defaults
	config.Port = *port
	config.Workers = *workers
	config.Backend = backend
	config.StaticDir = *static
	webServer := server.NewServer(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = webServer.Shutdown(shutdownCtx)
	}()

	logger.Info("sphere tracer web server", "port", *port, "backend", backend)
	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
