package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// ConsoleHandler is a slog.Handler that copies records at Info and above to
// a render's web console and passes every record on to the next handler
type ConsoleHandler struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	next        slog.Handler
	attrs       []slog.Attr
}

// NewConsoleHandler creates a handler for a specific render
func NewConsoleHandler(renderID string, consoleChan chan<- ConsoleMessage, next slog.Handler) *ConsoleHandler {
	return &ConsoleHandler{
		renderID:    renderID,
		consoleChan: consoleChan,
		next:        next,
	}
}

// Enabled implements slog.Handler
func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo && h.consoleChan != nil {
		msg := ConsoleMessage{
			RenderID:  h.renderID,
			Message:   formatRecord(r, h.attrs),
			Timestamp: r.Time,
			Level:     consoleLevel(r.Level),
		}
		select {
		case h.consoleChan <- msg:
		default:
			// Console full; the server log still gets the record
		}
	}

	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r.Clone())
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	clone.next = h.next.WithAttrs(attrs)
	return &clone
}

// WithGroup implements slog.Handler. Groups only affect the next handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	return &clone
}

// formatRecord renders the message followed by key=value pairs
func formatRecord(r slog.Record, attrs []slog.Attr) string {
	var b strings.Builder
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve())
		return true
	}
	for _, a := range attrs {
		write(a)
	}
	r.Attrs(write)
	return b.String()
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	default:
		return "info"
	}
}
