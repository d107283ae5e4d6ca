/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"goscreenwriter/internal/editcmd"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [commands.json]",
		Short: "Apply a batch of edit commands to the script",
		Long: `Apply reads a JSON array of edit commands and applies them as a single
batch. A batch is all-or-nothing: any invalid command rejects the whole
batch and leaves the script untouched.

Commands look like:
  [{"command": "ADD", "lineNumber": 3, "value": "<action>She turns.</action>"},
   {"command": "DELETE", "lineNumber": 7}]

Reads from stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := readCommands(cmd, args)
			if err != nil {
				return err
			}
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			text, err := storage.LoadScript(ph)
			if err != nil {
				return err
			}

			res := editcmd.NewExecutor().Execute(text, cmds)
			printCommandResults(cmd.OutOrStdout(), res)
			if res.Err != nil {
				return fmt.Errorf("batch rejected: %w", res.Err)
			}
			if !res.Modified {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
				return nil
			}

			if err := storage.SaveScript(ph, res.Content); err != nil {
				return err
			}
			if err := ctx.afterScriptChange(cmd, ph, res.Content); err != nil {
				return err
			}
			telemetry.Event(telemetry.EventCommandApply, map[string]any{"commands": len(cmds)})
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d commands.\n", len(cmds))
			return nil
		},
	}
	return cmd
}

func readCommands(cmd *cobra.Command, args []string) ([]editcmd.Command, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var cmds []editcmd.Command
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cmds); err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}
	return cmds, nil
}

func printCommandResults(w io.Writer, res editcmd.Result) {
	for i, cr := range res.Results {
		status := "ok"
		if !cr.Success {
			status = "FAILED"
			if cr.Err != nil {
				status = fmt.Sprintf("FAILED: %v", cr.Err)
			}
		}
		fmt.Fprintf(w, "%3d  %-6s line %-4d %s\n", i+1, cr.Command.Action, cr.Command.LineNumber, status)
	}
}

// afterScriptChange refreshes the embedded index and, when configured,
// records a snapshot of the new script text.
func (c *commandContext) afterScriptChange(cmd *cobra.Command, ph *storage.ProjectHandle, text string) error {
	store, err := c.loadStore(ph)
	if err != nil {
		return err
	}
	l := applog.WithComponent("cli")
	if err := storage.UpdateIndex(cmd.Context(), ph.Root, store); err != nil {
		l.Warn("index update failed", slog.Any("err", err))
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg.Editor.Autosnapshot {
		if err := storage.SaveSnapshot(cmd.Context(), ph, text, time.Now()); err != nil {
			l.Warn("snapshot failed", slog.Any("err", err))
		} else if keep := cfg.Editor.SnapshotKeep; keep > 0 {
			if _, err := storage.PruneSnapshots(cmd.Context(), ph, keep); err != nil {
				l.Warn("snapshot prune failed", slog.Any("err", err))
			}
		}
	}
	return nil
}
