/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"path/filepath"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

// commandContext carries state shared by subcommands: the resolved project
// directory, the lazily loaded app config, and the open project handle (kept
// for the crash handler in main).
type commandContext struct {
	projectFlag string

	cfg *config.AppConfig
	ph  *storage.ProjectHandle
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (config.AppConfig, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	c.cfg = &cfg
	if cfg.General.TelemetryOptIn {
		telemetry.InitDefault()
	}
	return cfg, nil
}

// projectRoot resolves the project directory from --project, defaulting to
// the current directory.
func (c *commandContext) projectRoot() (string, error) {
	dir := c.projectFlag
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

// openProject opens the project at the resolved root and remembers the
// handle for crash autosave.
func (c *commandContext) openProject() (*storage.ProjectHandle, error) {
	root, err := c.projectRoot()
	if err != nil {
		return nil, err
	}
	ph, err := storage.Open(root)
	if err != nil {
		return nil, fmt.Errorf("open project at %s: %w", root, err)
	}
	c.ph = ph
	return ph, nil
}

// pageCapacity picks the page size: a per-project override in the manifest
// wins over the app config default.
func (c *commandContext) pageCapacity(ph *storage.ProjectHandle) (int, error) {
	if ph.Project.MaxLinesPerPage > 0 {
		return ph.Project.MaxLinesPerPage, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return 0, err
	}
	return cfg.Editor.MaxLinesPerPage, nil
}

// loadStore builds a paginated document store from the project's script file.
func (c *commandContext) loadStore(ph *storage.ProjectHandle) (*pagedoc.Store, error) {
	capacity, err := c.pageCapacity(ph)
	if err != nil {
		return nil, err
	}
	store, err := pagedoc.NewStore(capacity)
	if err != nil {
		return nil, err
	}
	store.Initialize()
	lines, err := storage.LoadScriptLines(ph)
	if err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	if len(lines) > 0 {
		store.Load(lines)
	}
	return store, nil
}
