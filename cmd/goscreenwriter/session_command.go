/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"goscreenwriter/internal/editcmd"
	"goscreenwriter/internal/history"
	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive editing session with undo/redo",
		Long: `Session keeps the paginated document in memory and reads one input per
line:

  [{"command":"ADD","lineNumber":1,...}]   apply a JSON command batch
  undo / redo                              step through document history
  pages                                    show the page table
  save                                     write the script file
  quit                                     exit (unsaved changes are lost)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := ctx.openProject()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(ph)
			if err != nil {
				return err
			}
			s := newEditSession(store)
			return s.run(cmd, ctx, ph)
		},
	}
}

// editSession drives a store plus a document-level revision log. Whole-doc
// text is recorded under a single key after every applied batch; undo/redo
// walk those revisions.
type editSession struct {
	store *pagedoc.Store
	log   *history.Log
	exec  *editcmd.Executor
	dirty bool
}

const docRevisionKey = "doc"

func newEditSession(store *pagedoc.Store) *editSession {
	s := &editSession{
		store: store,
		log:   history.NewLog(history.Config{MinInterval: 1}),
		exec:  editcmd.NewExecutor(),
	}
	// Baseline so the first batch can be undone.
	s.log.Record(history.Revision{PageID: docRevisionKey, Text: store.Text()})
	return s
}

func (s *editSession) run(cmd *cobra.Command, ctx *commandContext, ph *storage.ProjectHandle) error {
	out := cmd.OutOrStdout()
	sc := bufio.NewScanner(cmd.InOrStdin())
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	fmt.Fprintf(out, "Session on %q (%d pages). Type a JSON batch, undo, redo, pages, save or quit.\n",
		ph.Project.Title, s.store.PageCount())

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			if s.dirty {
				fmt.Fprintln(out, "Discarding unsaved changes.")
			}
			return nil
		case line == "undo":
			s.undo(out)
		case line == "redo":
			s.redo(out)
		case line == "pages":
			fmt.Fprintln(out, pagesTable(s.store))
		case line == "save":
			if err := s.save(cmd, ctx, ph); err != nil {
				fmt.Fprintln(out, "save failed:", err)
			} else {
				fmt.Fprintln(out, "Saved.")
			}
		case strings.HasPrefix(line, "["):
			s.applyBatch(out, line)
		default:
			fmt.Fprintf(out, "unknown input %q (expected a JSON batch, undo, redo, pages, save or quit)\n", line)
		}
	}
	return sc.Err()
}

func (s *editSession) applyBatch(out io.Writer, line string) {
	var cmds []editcmd.Command
	if err := json.Unmarshal([]byte(line), &cmds); err != nil {
		fmt.Fprintln(out, "parse batch:", err)
		return
	}
	res := s.exec.ApplyToStore(s.store, cmds)
	printCommandResults(out, res)
	if res.Err != nil {
		fmt.Fprintln(out, "batch rejected:", res.Err)
		return
	}
	if res.Modified {
		s.log.Record(history.Revision{PageID: docRevisionKey, Text: s.store.Text()})
		s.dirty = true
		fmt.Fprintf(out, "%d pages.\n", s.store.PageCount())
	}
}

// undo restores the previous document revision. The log's top entry is the
// current state, so two pops reach the previous one; the second is pushed
// straight back to keep it as the new top.
func (s *editSession) undo(out io.Writer) {
	if _, ok := s.log.Undo(docRevisionKey); !ok {
		fmt.Fprintln(out, "nothing to undo")
		return
	}
	prev, ok := s.log.Undo(docRevisionKey)
	if !ok {
		// Only the baseline was recorded; put it back.
		s.log.Redo(docRevisionKey)
		fmt.Fprintln(out, "nothing to undo")
		return
	}
	s.log.Redo(docRevisionKey)
	s.restore(prev.Text)
	s.dirty = true
	fmt.Fprintf(out, "undone; %d pages.\n", s.store.PageCount())
}

func (s *editSession) redo(out io.Writer) {
	r, ok := s.log.Redo(docRevisionKey)
	if !ok {
		fmt.Fprintln(out, "nothing to redo")
		return
	}
	s.restore(r.Text)
	s.dirty = true
	fmt.Fprintf(out, "redone; %d pages.\n", s.store.PageCount())
}

func (s *editSession) restore(text string) {
	s.store.Load(script.ParseTagged(text))
}

func (s *editSession) save(cmd *cobra.Command, ctx *commandContext, ph *storage.ProjectHandle) error {
	text := s.store.Text()
	if err := storage.SaveScript(ph, text); err != nil {
		return err
	}
	if err := ctx.afterScriptChange(cmd, ph, text); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
