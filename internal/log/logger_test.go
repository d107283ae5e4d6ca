/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type captureWriter struct{ b strings.Builder }

func (c *captureWriter) Write(p []byte) (int, error) { return c.b.WriteString(string(p)) }

func TestTextHandlerFormatsOneLine(t *testing.T) {
	w := &captureWriter{}
	h := &textHandler{level: slog.LevelInfo, w: w}
	l := slog.New(h).With(slog.String("component", "pagedoc"))

	l.Info("batch applied", slog.Int("intents", 3), slog.Bool("changed", true))

	out := w.b.String()
	if !strings.Contains(out, "INF batch applied") {
		t.Fatalf("missing level/message: %q", out)
	}
	if !strings.Contains(out, "component=pagedoc") || !strings.Contains(out, "intents=3") || !strings.Contains(out, "changed=true") {
		t.Fatalf("missing attrs: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", out)
	}
}

func TestTextHandlerLevelFiltering(t *testing.T) {
	w := &captureWriter{}
	h := &textHandler{level: slog.LevelWarn, w: w}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn level")
	}
}

func TestTextHandlerGroups(t *testing.T) {
	w := &captureWriter{}
	var h slog.Handler = &textHandler{level: slog.LevelDebug, w: w}
	h = h.WithGroup("store").WithAttrs([]slog.Attr{slog.Int("pages", 2)})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "resync", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(w.b.String(), "store.pages=2") {
		t.Fatalf("group prefix missing: %q", w.b.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponentReturnsLogger(t *testing.T) {
	Init(Options{Level: "error"})
	if WithComponent("test") == nil {
		t.Fatalf("nil component logger")
	}
}
