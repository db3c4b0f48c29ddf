package server

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandler(t *testing.T) {
	consoleChan := make(chan ConsoleMessage, 10)
	var serverLog bytes.Buffer
	next := slog.NewTextHandler(&serverLog, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewConsoleHandler("render-1", consoleChan, next)).With("scene", "ground")

	logger.Debug("worker ready", "worker", 0)
	logger.Info("render started", "pixels", 16)
	logger.Warn("worker process died", "worker", 1)
	logger.Error("render failed")

	close(consoleChan)
	var messages []ConsoleMessage
	for msg := range consoleChan {
		messages = append(messages, msg)
	}

	tests := []struct {
		message string
		level   string
	}{
		{"render started scene=ground pixels=16", "info"},
		{"worker process died scene=ground worker=1", "warning"},
		{"render failed scene=ground", "error"},
	}
	if len(messages) != len(tests) {
		t.Fatalf("Expected %d console messages, got %d: %+v", len(tests), len(messages), messages)
	}
	for i, tt := range tests {
		if messages[i].Message != tt.message || messages[i].Level != tt.level {
			t.Errorf("Message %d: expected %q (%s), got %q (%s)", i, tt.message, tt.level, messages[i].Message, messages[i].Level)
		}
		if messages[i].RenderID != "render-1" {
			t.Errorf("Message %d: expected render id, got %q", i, messages[i].RenderID)
		}
	}

	// Everything, including debug, reaches the server log
	for _, want := range []string{"worker ready", "render started", "worker process died", "render failed"} {
		if !strings.Contains(serverLog.String(), want) {
			t.Errorf("Server log misses %q:\n%s", want, serverLog.String())
		}
	}
}

func TestConsoleHandler_FullConsoleDoesNotBlock(t *testing.T) {
	consoleChan := make(chan ConsoleMessage) // unbuffered and never read
	h := NewConsoleHandler("render-2", consoleChan, slog.NewTextHandler(&bytes.Buffer{}, nil))

	done := make(chan struct{})
	go func() {
		slog.New(h).Info("dropped")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logging blocked on a full console")
	}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should always be enabled for the console")
	}
}
