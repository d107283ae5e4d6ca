/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Editor.MaxLinesPerPage != 55 {
		t.Fatalf("default capacity = %d, want 55", cfg.Editor.MaxLinesPerPage)
	}
	if cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry must be opt-in (default off)")
	}
	if !cfg.Editor.Autosnapshot {
		t.Fatalf("autosnapshot should default on")
	}
}

func TestMergeIntoPrefersFileValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{
		ConfigVersion: 2,
		Editor:        EditorConfig{MaxLinesPerPage: 40, SnapshotKeep: 10},
		Backend:       BackendConfig{BaseURL: "https://scripts.example", TimeoutMs: 500},
		Logging:       LoggingConfig{Level: "DEBUG", File: "/tmp/gsw.log"},
	}
	mergeInto(&dst, &src)
	if dst.ConfigVersion != 2 {
		t.Fatalf("config version not merged")
	}
	if dst.Editor.MaxLinesPerPage != 40 || dst.Editor.SnapshotKeep != 10 {
		t.Fatalf("editor values not merged: %+v", dst.Editor)
	}
	if dst.Backend.BaseURL != "https://scripts.example" || dst.Backend.TimeoutMs != 500 {
		t.Fatalf("backend values not merged: %+v", dst.Backend)
	}
	if dst.Logging.Level != "debug" {
		t.Fatalf("logging level should be lower-cased, got %q", dst.Logging.Level)
	}
	if dst.Logging.File != "/tmp/gsw.log" {
		t.Fatalf("logging file not merged")
	}
}

func TestMergeIntoKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{}
	mergeInto(&dst, &src)
	if dst.Editor.MaxLinesPerPage != 55 {
		t.Fatalf("zero capacity must not override default")
	}
	if dst.Backend.BaseURL != Defaults().Backend.BaseURL {
		t.Fatalf("empty base URL must not override default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvMaxLinesPerPage, "12")
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvLogLevel, "WARN")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Editor.MaxLinesPerPage != 12 {
		t.Fatalf("env capacity override not applied: %d", cfg.Editor.MaxLinesPerPage)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("env telemetry override not applied")
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("env log level override not applied: %q", cfg.Logging.Level)
	}
}

func TestEnvOverrideIgnoresInvalidCapacity(t *testing.T) {
	t.Setenv(EnvMaxLinesPerPage, "not-a-number")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Editor.MaxLinesPerPage != 55 {
		t.Fatalf("invalid env value must keep default, got %d", cfg.Editor.MaxLinesPerPage)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Editor.MaxLinesPerPage = 58
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back AppConfig
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Editor.MaxLinesPerPage != 58 {
		t.Fatalf("round-trip lost editor capacity: %+v", back.Editor)
	}
}
