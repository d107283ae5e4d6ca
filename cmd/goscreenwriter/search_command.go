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

	"github.com/spf13/cobra"

	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var speaker, formats string
	var pageFrom, pageTo, limit, offset int

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Full-text search over the script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(ph)
			if err != nil {
				return err
			}
			// The embedded index is derived state; make sure it exists
			// and is intact before querying it.
			if _, err := storage.DetectAndRebuildIndex(cmd.Context(), ph.Root, store); err != nil {
				return err
			}
			if err := storage.BuildIndexIfEmpty(cmd.Context(), ph.Root, store); err != nil {
				return err
			}

			q := storage.SearchQuery{
				Speaker:  speaker,
				PageFrom: pageFrom,
				PageTo:   pageTo,
				Limit:    limit,
				Offset:   offset,
			}
			if len(args) == 1 {
				q.Text = args[0]
			}
			if formats != "" {
				for _, f := range strings.Split(formats, ",") {
					q.Formats = append(q.Formats, strings.TrimSpace(f))
				}
			}

			results, err := storage.Search(cmd.Context(), ph.Root, q)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventSearch, map[string]any{"hits": len(results)})
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					strconv.Itoa(r.LineNo),
					strconv.Itoa(r.PageNo),
					r.Format,
					r.Speaker,
					clip(r.Snippet, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Line", "Page", "Format", "Speaker", "Match"}, rows, 0, 1))
			return nil
		},
	}

	cmd.Flags().StringVar(&speaker, "speaker", "", "Only lines spoken by this character")
	cmd.Flags().StringVar(&formats, "format", "", "Comma-separated formats, e.g. dialog,action")
	cmd.Flags().IntVar(&pageFrom, "page-from", 0, "First page of the range (1-based)")
	cmd.Flags().IntVar(&pageTo, "page-to", 0, "Last page of the range (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many results")
	return cmd
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the embedded search index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search index from the script file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(ph)
			if err != nil {
				return err
			}
			if err := storage.RebuildIndex(cmd.Context(), ph.Root, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d lines on %d pages.\n", store.LineCount(), store.PageCount())
			return nil
		},
	})
	return cmd
}
