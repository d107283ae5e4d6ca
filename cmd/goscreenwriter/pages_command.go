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

	"github.com/spf13/cobra"

	"goscreenwriter/internal/pagedoc"
)

func newPagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List pages of the paginated script",
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
			fmt.Fprintln(cmd.OutOrStdout(), pagesTable(store))
			return nil
		},
	}
}

// pagesTable renders one row per page: number, line count, whether a hard
// chapter break follows, and the opening line as orientation.
func pagesTable(store *pagedoc.Store) string {
	rows := make([][]string, 0, store.PageCount())
	for i, p := range store.Pages() {
		breakMark := ""
		if p.BreakAfter {
			breakMark = "chapter"
		}
		opening := ""
		if len(p.Lines) > 0 {
			opening = clip(p.Lines[0].Text, 48)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(p.LineCount()),
			breakMark,
			opening,
		})
	}
	return renderTable([]string{"Page", "Lines", "Break", "Opens with"}, rows, 0, 1)
}
