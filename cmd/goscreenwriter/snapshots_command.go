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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goscreenwriter/internal/storage"
)

func newSnapshotsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Work with script snapshots in the embedded index",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			snaps, err := storage.ListSnapshots(cmd.Context(), ph, limit)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots.")
				return nil
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				lines := strings.Count(s.Text, "\n")
				rows = append(rows, []string{
					s.TS.Format(time.RFC3339),
					strconv.Itoa(lines),
					strconv.Itoa(len(s.Text)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Taken", "Lines", "Bytes"}, rows, 1, 2))
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum snapshots to list")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Snapshot the current script text",
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
			if err := storage.SaveSnapshot(cmd.Context(), ph, text, time.Now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Snapshot saved.")
			return nil
		},
	})

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Drop old snapshots, keeping the most recent ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			n, err := storage.PruneSnapshots(cmd.Context(), ph, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d snapshots.\n", n)
			return nil
		},
	}
	prune.Flags().IntVar(&keep, "keep", 20, "Snapshots to keep")
	cmd.AddCommand(prune)

	cmd.AddCommand(&cobra.Command{
		Use:   "restore",
		Short: "Replace the script file with the latest snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			snap, err := storage.LatestSnapshot(cmd.Context(), ph)
			if err != nil {
				return err
			}
			if err := storage.SaveScript(ph, snap.Text); err != nil {
				return err
			}
			if err := ctx.afterScriptChange(cmd, ph, snap.Text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot from %s.\n", snap.TS.Format(time.RFC3339))
			return nil
		},
	})

	return cmd
}
