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

	"goscreenwriter/internal/export"
	"goscreenwriter/internal/telemetry"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var out string
	var titlePage, pageNumbers bool
	var pagesFlag string

	cmd := &cobra.Command{
		Use:   "export <pdf|tagged|plain>",
		Short: "Export the script (PDF, tagged text, or plain layout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(args[0])
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(ph)
			if err != nil {
				return err
			}

			if out == "" {
				out = ph.Project.Title
				if out == "" {
					out = "script"
				}
				switch format {
				case "pdf":
					out += ".pdf"
				default:
					out += ".txt"
				}
			}

			switch format {
			case "pdf":
				pages, err := parsePageSelection(pagesFlag)
				if err != nil {
					return err
				}
				opt := export.PDFOptions{
					Title:       ph.Project.Title,
					Author:      ph.Project.Author,
					TitlePage:   titlePage,
					PageNumbers: pageNumbers,
					Pages:       pages,
				}
				if err := export.WritePDF(ph, store, out, opt); err != nil {
					return err
				}
			case "tagged":
				if err := export.WriteTagged(ph, store, out); err != nil {
					return err
				}
			case "plain":
				if err := export.WritePlain(ph, store, out); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export format %q", format)
			}
			telemetry.Event(telemetry.EventExport, map[string]any{"format": format})
			fmt.Fprintln(cmd.OutOrStdout(), "Exported", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (relative paths land in exports/)")
	cmd.Flags().BoolVar(&titlePage, "title-page", true, "Include a title page (PDF only)")
	cmd.Flags().BoolVar(&pageNumbers, "page-numbers", true, "Print page numbers (PDF only)")
	cmd.Flags().StringVar(&pagesFlag, "pages", "", "Comma-separated 1-based page selection, e.g. 1,3,5 (PDF only)")
	return cmd
}

// parsePageSelection turns "1,3,5" into 0-based page indexes.
func parsePageSelection(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad page selection %q", part)
		}
		pages = append(pages, n-1)
	}
	return pages, nil
}
