/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var author, contact string
	var maxLines int

	cmd := &cobra.Command{
		Use:   "init <dir> <title>",
		Short: "Create a new screenplay project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			l := applog.WithComponent("cli")
			l.Info("init project", slog.String("root", abs), slog.String("title", args[1]))

			proj := storage.NewProject(args[1])
			proj.Author = author
			proj.Contact = contact
			if maxLines > 0 {
				proj.MaxLinesPerPage = maxLines
			}
			ph, err := storage.InitProject(abs, proj)
			if err != nil {
				return err
			}
			ctx.ph = ph
			telemetry.Event(telemetry.EventProjectInit, nil)
			fmt.Fprintln(cmd.OutOrStdout(), "Created project at", abs)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Author name for the title page")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact line for the title page")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Lines per page for this project (default from config)")
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		Aliases: []string{"open"},
		Short:   "Show project summary",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(ph)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventProjectOpen, nil)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:    %s\n", ph.Project.Title)
			if ph.Project.Author != "" {
				fmt.Fprintf(out, "Author:   %s\n", ph.Project.Author)
			}
			fmt.Fprintf(out, "ID:       %s\n", ph.Project.ID)
			fmt.Fprintf(out, "Root:     %s\n", ph.Root)
			fmt.Fprintf(out, "Pages:    %d (%d lines per page)\n", store.PageCount(), store.MaxLinesPerPage())
			fmt.Fprintf(out, "Lines:    %d\n", store.LineCount())
			if ph.Project.UpdatedAt != "" {
				fmt.Fprintf(out, "Updated:  %s\n", ph.Project.UpdatedAt)
			}
			return nil
		},
	}
}

func newFmtCommand(ctx *commandContext) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Rewrite the script file in a chosen encoding",
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
			lines, err := script.Parse(text)
			if err != nil {
				return err
			}

			var out string
			switch strings.ToLower(to) {
			case "tagged":
				out = script.SerializeTagged(lines)
			case "structured":
				out, err = script.SerializeStructured(lines)
				if err != nil {
					return err
				}
			default:
				return errors.New(`--to must be "tagged" or "structured"`)
			}
			if out == text {
				fmt.Fprintln(cmd.OutOrStdout(), "Already formatted.")
				return nil
			}
			if err := storage.SaveScript(ph, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rewrote %d lines as %s.\n", len(lines), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "tagged", "Target encoding: tagged or structured")
	return cmd
}
