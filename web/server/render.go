package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/framebuffer"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
)

// PixelData is one finished pixel as [x, y, r, g, b]
type PixelData [5]int

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	CompletedPixels  int     `json:"completedPixels"`
	TotalSamples     int     `json:"totalSamples"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
}

// CompleteEvent is sent once every pixel has arrived
type CompleteEvent struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// handleRender streams a progressive render over Server-Sent Events.
// Finished pixels are batched once per frame into "pixels" events; a
// "complete" event carries the final image.
func (s *Server) handleRender(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
	}

	res := c.Response()
	setSSEHeaders(res.Header())
	res.WriteHeader(http.StatusOK)

	// Cancelled when the client disconnects; workers stop at their next send
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := slog.New(NewConsoleHandler(renderID, consoleChan, core.Logger().Handler()))

	job := req.Job()
	out := make(chan renderer.PixelUpdate, job.Width*4)
	pool, err := renderer.NewPool(ctx, s.config.Backend, job, s.config.Workers, out)
	if err != nil {
		logger.Error("render setup failed", "err", err)
		return s.finishWithError(res, consoleChan, err)
	}
	logger.Info("render started", "scene", job.Scene, "width", job.Width, "height", job.Height,
		"samples", job.SamplesPerPixel, "workers", pool.NumWorkers())

	start := time.Now()
	fb := framebuffer.New(job.Width, job.Height)
	stats := renderer.NewRenderStats(job)
	progressive := renderer.NewProgressive(job.Width, job.Height, renderer.ProgressiveConfig{Shuffle: true, ShuffleSeed: job.Seed})
	errChan := progressive.Render(ctx, pool)

	ticker := time.NewTicker(s.config.FrameInterval)
	defer ticker.Stop()

	for open := true; open; {
		select {
		case <-ctx.Done():
			logger.Info("client disconnected, render cancelled", "completed", stats.CompletedPixels)
			return nil
		case msg := <-consoleChan:
			if err := writeJSONEvent(res, "console", msg); err != nil {
				return nil
			}
		case <-ticker.C:
			var batch []PixelData
			batch, open = drainBatch(out, fb)
			if len(batch) == 0 {
				continue
			}
			stats.Record(len(batch), time.Since(start))
			if err := writeJSONEvent(res, "pixels", batch); err != nil {
				return nil
			}
		}
	}

	if err := <-errChan; err != nil {
		logger.Error("render failed", "err", err)
		return s.finishWithError(res, consoleChan, err)
	}

	elapsed := time.Since(start)
	stats.Record(0, elapsed)
	logger.Info("render completed", "elapsed", elapsed.Round(time.Millisecond),
		"samplesPerSecond", int(stats.SamplesPerSecond()))
	flushConsole(res, consoleChan)

	imageData, err := imageToBase64PNG(fb)
	if err != nil {
		return writeEvent(res, "error", fmt.Sprintf("failed to encode image: %v", err))
	}
	return writeJSONEvent(res, "complete", CompleteEvent{
		Width:     job.Width,
		Height:    job.Height,
		ImageData: imageData,
		Stats: Stats{
			TotalPixels:      stats.TotalPixels,
			CompletedPixels:  stats.CompletedPixels,
			TotalSamples:     stats.TotalSamples(),
			SamplesPerSecond: stats.SamplesPerSecond(),
		},
		ElapsedMs: elapsed.Milliseconds(),
	})
}

// drainBatch takes every update available right now, applies it to fb and
// returns the batch. open is false once out has been closed and emptied.
func drainBatch(out <-chan renderer.PixelUpdate, fb *framebuffer.Framebuffer) (batch []PixelData, open bool) {
	for {
		select {
		case u, ok := <-out:
			if !ok {
				return batch, false
			}
			fb.Set(u.X, u.Y, u.Pixel)
			batch = append(batch, PixelData{u.X, u.Y, int(u.Pixel.R), int(u.Pixel.G), int(u.Pixel.B)})
		default:
			return batch, true
		}
	}
}

// finishWithError sends pending console output followed by an error event
func (s *Server) finishWithError(res *echo.Response, consoleChan chan ConsoleMessage, err error) error {
	flushConsole(res, consoleChan)
	return writeEvent(res, "error", err.Error())
}

// flushConsole sends every console message already queued
func flushConsole(res *echo.Response, consoleChan chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			if err := writeJSONEvent(res, "console", msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(h http.Header) {
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}

// writeJSONEvent sends data encoded as JSON in a single SSE event
func writeJSONEvent(res *echo.Response, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return writeEvent(res, event, string(payload))
}

// writeEvent sends a generic SSE event
func writeEvent(res *echo.Response, event, data string) error {
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// imageToBase64PNG converts the framebuffer to a base64-encoded PNG
func imageToBase64PNG(fb *framebuffer.Framebuffer) (string, error) {
	var buf bytes.Buffer
	if err := fb.Encode(&buf, framebuffer.FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
