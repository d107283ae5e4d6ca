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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"goscreenwriter/internal/backend"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var server, token string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Exchange scripts with the screenplay archive server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "Archive base URL (default from config)")
	cmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (fetched automatically when empty)")

	newArchiveClient := func(cmd *cobra.Command) (*backend.Client, error) {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return nil, err
		}
		base := server
		if base == "" {
			base = cfg.Backend.BaseURL
		}
		cl := backend.NewClient(base, token)
		if token == "" {
			if err := cl.FetchToken(cmd.Context(), "cli", time.Hour); err != nil {
				return nil, fmt.Errorf("fetch token: %w", err)
			}
		}
		return cl, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scripts stored in the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newArchiveClient(cmd)
			if err != nil {
				return err
			}
			scripts, err := cl.ListScripts(cmd.Context())
			if err != nil {
				return err
			}
			if len(scripts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Archive is empty.")
				return nil
			}
			rows := make([][]string, 0, len(scripts))
			for _, s := range scripts {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Title,
					s.Author,
					strconv.FormatInt(s.Version, 10),
					s.UpdatedAt.Format(time.RFC3339),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Author", "Version", "Updated"}, rows, 0, 3))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Upload the project's script to the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			text, err := storage.LoadScript(ph)
			if err != nil {
				return err
			}
			cl, err := newArchiveClient(cmd)
			if err != nil {
				return err
			}
			id, ver, err := cl.Upload(cmd.Context(), backend.UploadRequest{
				StableID: ph.Project.ID,
				Title:    ph.Project.Title,
				Author:   ph.Project.Author,
				Body:     text,
			})
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventSync, map[string]any{"direction": "push"})
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed as script %d, version %d.\n", id, ver)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pull <id>",
		Short: "Replace the local script with the archived one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad script id %q", args[0])
			}
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			cl, err := newArchiveClient(cmd)
			if err != nil {
				return err
			}
			env, err := cl.GetScript(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := storage.SaveScript(ph, env.Body); err != nil {
				return err
			}
			if err := ctx.afterScriptChange(cmd, ph, env.Body); err != nil {
				return err
			}
			telemetry.Event(telemetry.EventSync, map[string]any{"direction": "pull"})
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled script %d version %d.\n", env.ScriptID, env.Version)
			return nil
		},
	})

	var speaker string
	var limit int
	remoteSearch := &cobra.Command{
		Use:   "search <id> <text>",
		Short: "Search a script stored in the archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad script id %q", args[0])
			}
			cl, err := newArchiveClient(cmd)
			if err != nil {
				return err
			}
			results, err := cl.Search(cmd.Context(), id, backend.RemoteQuery{
				Text:    args[1],
				Speaker: speaker,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					strconv.Itoa(r.LineNo),
					r.Format,
					r.Speaker,
					clip(r.Snippet, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Line", "Format", "Speaker", "Match"}, rows, 0))
			return nil
		},
	}
	remoteSearch.Flags().StringVar(&speaker, "speaker", "", "Only lines spoken by this character")
	remoteSearch.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")
	cmd.AddCommand(remoteSearch)

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the screenplay archive server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return backend.Start()
		},
	}
}
