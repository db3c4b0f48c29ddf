package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// Config contains web server settings
type Config struct {
	Port          int
	Workers       int              // Workers per render (0 = CPU count)
	Backend       renderer.Backend // Pool backend used for renders
	FrameInterval time.Duration    // How often pixels are flushed to the client
	StaticDir     string           // Directory served at / (empty disables it)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Port:          8080,
		Workers:       0,
		Backend:       renderer.DefaultBackend,
		FrameInterval: 50 * time.Millisecond,
		StaticDir:     "static",
	}
}

// Server handles web requests for the sphere tracer
type Server struct {
	config Config
	echo   *echo.Echo
}

// NewServer creates a new web server with its routes registered
func NewServer(config Config) *Server {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultConfig().FrameInterval
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(corsMiddleware)

	s := &Server{config: config, echo: e}

	if config.StaticDir != "" {
		e.Static("/", config.StaticDir)
	}
	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/render", s.handleRender)
	e.GET("/api/inspect", s.handleInspect)

	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	core.Logger().Info("starting web server", "url", "http://localhost"+addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, letting active requests finish until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the scenes a render can use
func (s *Server) handleScenes(c echo.Context) error {
	return c.JSON(http.StatusOK, scene.ListScenes())
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene     string `json:"scene"`
	SceneSeed int64  `json:"sceneSeed"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Samples   int    `json:"samples"`
	MaxDepth  int    `json:"maxDepth"`
	Seed      int64  `json:"seed"`
}

// Job converts the request into a render job
func (r RenderRequest) Job() renderer.RenderJob {
	return renderer.RenderJob{
		Scene:           r.Scene,
		SceneSeed:       r.SceneSeed,
		Width:           r.Width,
		Height:          r.Height,
		SamplesPerPixel: r.Samples,
		MaxDepth:        r.MaxDepth,
		Seed:            r.Seed,
	}
}

// parseRenderRequest parses and validates query parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	defaults := renderer.DefaultRenderJob()
	req := &RenderRequest{Scene: defaults.Scene}

	if name := values.Get("scene"); name != "" {
		req.Scene = name
	}
	if !slices.Contains(scene.Names(), req.Scene) {
		return nil, fmt.Errorf("unknown scene %q", req.Scene)
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", defaults.Width, 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", defaults.Height, 1, 2000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(values, "samples", defaults.SamplesPerPixel, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(values, "depth", defaults.MaxDepth, 1, 1000); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(values, "seed", defaults.Seed); err != nil {
		return nil, err
	}
	if req.SceneSeed, err = parseInt64Param(values, "sceneSeed", defaults.SceneSeed); err != nil {
		return nil, err
	}

	if req.Width*req.Height > 800*600 && req.Samples > 100 {
		core.Logger().Warn("large image with high samples may render slowly",
			"width", req.Width, "height", req.Height, "samples", req.Samples)
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseInt64Param parses a 64-bit integer parameter from URL query
func parseInt64Param(values url.Values, key string, defaultValue int64) (int64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
