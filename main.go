package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/framebuffer"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// options holds everything the command line controls
type options struct {
	job        renderer.RenderJob
	workers    int
	backend    renderer.Backend
	out        string
	format     framebuffer.Format
	scale      int
	frame      time.Duration
	verbose    bool
	worker     bool
	configPath string
}

// loadJobFile reads a RenderJob from a JSON file
func loadJobFile(path string) (renderer.RenderJob, error) {
	job := renderer.DefaultRenderJob()
	data, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("parse config %s: %w", path, err)
	}
	return job, nil
}

// parseOptions parses args. Values from -config are used unless the
// matching flag is given explicitly.
func parseOptions(args []string, output io.Writer) (options, error) {
	defaults := renderer.DefaultRenderJob()
	fs := flag.NewFlagSet("sphere-tracer", flag.ContinueOnError)
	fs.SetOutput(output)

	sceneName := fs.String("scene", defaults.Scene, fmt.Sprintf("Scene to render: %s", strings.Join(scene.Names(), ", ")))
	width := fs.Int("width", defaults.Width, "Image width")
	height := fs.Int("height", defaults.Height, "Image height")
	samples := fs.Int("samples", defaults.SamplesPerPixel, "Samples per pixel")
	depth := fs.Int("depth", defaults.MaxDepth, "Maximum ray bounce depth")
	seed := fs.Int64("seed", defaults.Seed, "Seed for pixel sampling and reveal order")
	sceneSeed := fs.Int64("scene-seed", defaults.SceneSeed, "Seed for the procedural scene")
	workers := fs.Int("workers", 0, "Number of workers (0 = CPU count)")
	backendName := fs.String("backend", string(renderer.DefaultBackend), "Pool backend: native or process")
	out := fs.String("out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	formatName := fs.String("format", "", "Image format: png, bmp or tiff (default from -out, else png)")
	scale := fs.Int("scale", 1, "Also write a preview upscaled by this factor when above 1")
	frame := fs.Duration("frame", 50*time.Millisecond, "How often finished pixels are collected")
	configPath := fs.String("config", "", "JSON file with a render job")
	verbose := fs.Bool("v", false, "Verbose logging")
	worker := fs.Bool(strings.TrimPrefix(renderer.WorkerFlag, "-"), false, "Run as a render worker process (internal)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{
		workers:    *workers,
		out:        *out,
		scale:      *scale,
		frame:      *frame,
		verbose:    *verbose,
		worker:     *worker,
		configPath: *configPath,
	}
	if opts.worker {
		return opts, nil
	}

	job := defaults
	if opts.configPath != "" {
		var err error
		if job, err = loadJobFile(opts.configPath); err != nil {
			return options{}, err
		}
	}

	// Explicit flags win over the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			job.Scene = *sceneName
		case "width":
			job.Width = *width
		case "height":
			job.Height = *height
		case "samples":
			job.SamplesPerPixel = *samples
		case "depth":
			job.MaxDepth = *depth
		case "seed":
			job.Seed = *seed
		case "scene-seed":
			job.SceneSeed = *sceneSeed
		}
	})
	if err := job.Validate(); err != nil {
		return options{}, err
	}
	opts.job = job

	backend, err := renderer.ParseBackend(*backendName)
	if err != nil {
		return options{}, err
	}
	opts.backend = backend

	switch {
	case *formatName != "":
		opts.format, err = framebuffer.ParseFormat(*formatName)
	case opts.out != "" && filepath.Ext(opts.out) != "":
		opts.format, err = framebuffer.ParseFormat(filepath.Ext(opts.out))
	default:
		opts.format = framebuffer.FormatPNG
	}
	if err != nil {
		return options{}, err
	}

	if opts.scale < 1 {
		return options{}, fmt.Errorf("scale must be at least 1, got %d", opts.scale)
	}
	if opts.frame <= 0 {
		return options{}, fmt.Errorf("frame interval must be positive, got %v", opts.frame)
	}
	return opts, nil
}

// outputPath returns where the final image goes
func outputPath(opts options, now time.Time) string {
	if opts.out != "" {
		return opts.out
	}
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", opts.job.Scene, "render_"+timestamp+opts.format.Extension())
}

// scaledPath inserts the scale factor before the extension
func scaledPath(path string, scale int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_x%d%s", strings.TrimSuffix(path, ext), scale, ext)
}

// writeImage encodes fb to path, creating parent directories
func writeImage(path string, f framebuffer.Format, encode func(io.Writer, framebuffer.Format) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := encode(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// render runs the whole progressive render and writes the results. It
// returns the path of the final image.
func render(ctx context.Context, opts options, logger *slog.Logger) (string, error) {
	job := opts.job
	printer := message.NewPrinter(language.English)

	out := make(chan renderer.PixelUpdate, job.Width*4)
	pool, err := renderer.NewPool(ctx, opts.backend, job, opts.workers, out)
	if err != nil {
		return "", fmt.Errorf("create worker pool: %w", err)
	}
	logger.Info("rendering",
		"scene", job.Scene,
		"size", fmt.Sprintf("%dx%d", job.Width, job.Height),
		"samples", job.SamplesPerPixel,
		"backend", opts.backend,
		"workers", pool.NumWorkers())

	start := time.Now()
	fb := framebuffer.New(job.Width, job.Height)
	stats := renderer.NewRenderStats(job)
	progressive := renderer.NewProgressive(job.Width, job.Height, renderer.ProgressiveConfig{Shuffle: true, ShuffleSeed: job.Seed})
	errChan := progressive.Render(ctx, pool)

	ticker := time.NewTicker(opts.frame)
	defer ticker.Stop()
	lastReport := start

	interrupted := false
	for open := true; open; {
		select {
		case <-ctx.Done():
			interrupted = true
			open = false
			n, _ := fb.Drain(out)
			stats.Record(n, time.Since(start))
		case <-ticker.C:
			var n int
			n, open = fb.Drain(out)
			stats.Record(n, time.Since(start))
			if time.Since(lastReport) >= time.Second {
				lastReport = time.Now()
				logger.Info("progress",
					"pixels", printer.Sprintf("%d/%d", stats.CompletedPixels, stats.TotalPixels),
					"percent", printer.Sprintf("%.1f", 100*stats.Progress()))
			}
		}
	}

	if !interrupted {
		if err := <-errChan; err != nil {
			return "", err
		}
	}

	path := outputPath(opts, start)
	if err := writeImage(path, opts.format, fb.Encode); err != nil {
		return "", err
	}
	if opts.scale > 1 {
		preview := fb.Scaled(job.Width*opts.scale, job.Height*opts.scale)
		scaled := scaledPath(path, opts.scale)
		encode := func(w io.Writer, f framebuffer.Format) error { return framebuffer.Encode(w, preview, f) }
		if err := writeImage(scaled, opts.format, encode); err != nil {
			return "", err
		}
		logger.Info("preview saved", "path", scaled)
	}

	elapsed := time.Since(start)
	if interrupted {
		logger.Warn("render interrupted, partial image saved", "path", path,
			"pixels", printer.Sprintf("%d/%d", stats.CompletedPixels, stats.TotalPixels))
		return path, ctx.Err()
	}
	logger.Info("render completed",
		"path", path,
		"elapsed", elapsed.Round(time.Millisecond),
		"samples", printer.Sprintf("%d", stats.TotalSamples()),
		"samplesPerSecond", printer.Sprintf("%.0f", stats.SamplesPerSecond()))
	return path, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	// The process backend re-executes this binary with -worker
	if opts.worker {
		if err := renderer.ServeWorker(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "worker:", err)
			os.Exit(1)
		}
		return
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	core.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := render(ctx, opts, logger); err != nil {
		logger.Error("render failed", "err", err)
		stop()
		os.Exit(1)
	}
}
