/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editcmd validates and applies batches of line-numbered ADD/EDIT/
// DELETE commands against a screenplay document.
//
// Commands are not applied in caller order. DELETE and EDIT run first, in
// descending line-number order, so that lower line numbers stay valid
// references throughout the batch; ADD commands run afterwards in ascending
// order, so each insertion shifts only the lines after it. This reordering
// is what makes a multi-command batch insensitive to the order its author
// listed the commands in.
package editcmd

import (
	"log/slog"
	"sort"
	"strings"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/script"
)

// Executor applies edit-command batches. It is stateless apart from its
// logger and safe to reuse across batches.
type Executor struct {
	log *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor() *Executor {
	return &Executor{log: applog.WithComponent("editcmd")}
}

// Execute validates and applies a batch against serialized document text.
// Validation is all-or-nothing: any invalid command rejects the batch before
// mutation and the input content is returned unchanged. The output keeps the
// encoding of the input (tagged or structured).
func (e *Executor) Execute(content string, cmds []Command) Result {
	lines, err := script.Parse(content)
	if err != nil {
		// unparseable input is treated as an empty document
		e.log.Warn("content matched no encoding, treating as empty", slog.Any("err", err))
		lines = nil
	}
	structured := isStructured(content)

	results, verr := validate(cmds, len(lines))
	if verr != nil {
		e.log.Debug("batch rejected", slog.Any("err", verr), slog.Int("commands", len(cmds)))
		return Result{Content: content, Results: results, Modified: false, Err: verr}
	}

	buf := append([]script.Line(nil), lines...)
	modified := false
	for _, oc := range orderCommands(cmds) {
		ok, err := applyToBuffer(&buf, oc.cmd)
		results[oc.idx] = CommandResult{Command: oc.cmd, Success: ok, Err: err}
		if ok {
			modified = true
		}
	}

	if !modified {
		return Result{Content: content, Results: results, Modified: false}
	}
	out := ""
	if structured {
		if s, serr := script.SerializeStructured(buf); serr == nil {
			out = s
		} else {
			out = script.SerializeTagged(buf)
		}
	} else {
		out = script.SerializeTagged(buf)
	}
	e.log.Info("batch applied", slog.Int("commands", len(cmds)), slog.Int("lines", len(buf)))
	return Result{Content: out, Results: results, Modified: true}
}

// ApplyToStore validates a batch against the store's flattened document and
// delegates all mutation to the intent applier as a single batch, so the
// pagination invariants are enforced exactly once. Structural effects of the
// commands (chapter-break markers) become break intents.
func (e *Executor) ApplyToStore(store *pagedoc.Store, cmds []Command) Result {
	if store == nil {
		return Result{Err: ErrInvalidCommandValue}
	}
	sim := store.Lines()
	results, verr := validate(cmds, len(sim))
	if verr != nil {
		return Result{Content: store.Text(), Results: results, Modified: false, Err: verr}
	}

	var intents []pagedoc.Intent
	modified := false
	for _, oc := range orderCommands(cmds) {
		planned, ok, err := planCommand(store, &sim, oc.cmd)
		results[oc.idx] = CommandResult{Command: oc.cmd, Success: ok, Err: err}
		if ok {
			modified = true
			intents = append(intents, planned...)
		}
	}
	if modified && len(intents) > 0 {
		store.Apply(intents)
	}
	return Result{Content: store.Text(), Results: results, Modified: modified}
}

type orderedCommand struct {
	idx int
	cmd Command
}

// orderCommands produces the application order: DELETE/EDIT descending by
// line number, then ADD ascending; ties keep the caller's relative order.
func orderCommands(cmds []Command) []orderedCommand {
	var edits, adds []orderedCommand
	for i, c := range cmds {
		oc := orderedCommand{idx: i, cmd: c}
		if c.Action == ActionAdd {
			adds = append(adds, oc)
		} else {
			edits = append(edits, oc)
		}
	}
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].cmd.LineNumber > edits[j].cmd.LineNumber
	})
	sort.SliceStable(adds, func(i, j int) bool {
		return adds[i].cmd.LineNumber < adds[j].cmd.LineNumber
	})
	return append(edits, adds...)
}

// validate checks the whole batch against the pre-batch line count. It
// returns per-command results (for reporting) and the first error, which
// rejects the batch.
func validate(cmds []Command, lineCount int) ([]CommandResult, error) {
	results := make([]CommandResult, len(cmds))
	var firstErr error
	record := func(i int, err error) {
		results[i] = CommandResult{Command: cmds[i], Success: false, Err: err}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i, c := range cmds {
		switch c.Action {
		case ActionAdd:
			if c.LineNumber < 0 || c.LineNumber > lineCount+1 {
				record(i, ErrInvalidLineNumber)
				continue
			}
			if _, err := parseValue(c.Value); err != nil {
				record(i, err)
				continue
			}
		case ActionEdit:
			if c.LineNumber < 1 || c.LineNumber > lineCount {
				record(i, ErrInvalidLineNumber)
				continue
			}
			if _, err := parseValue(c.Value); err != nil {
				record(i, err)
				continue
			}
		case ActionDelete:
			if c.LineNumber < 1 || c.LineNumber > lineCount {
				record(i, ErrInvalidLineNumber)
				continue
			}
		default:
			record(i, ErrInvalidCommandValue)
			continue
		}
		record(i, nil)
	}
	return results, firstErr
}

// applyToBuffer applies one command to the working line buffer (pure mode).
// Bounds are re-checked against the current buffer: a command whose target
// vanished earlier in the batch fails individually without aborting.
func applyToBuffer(buf *[]script.Line, c Command) (bool, error) {
	b := *buf
	switch c.Action {
	case ActionDelete:
		i := c.LineNumber - 1
		if i < 0 || i >= len(b) {
			return false, ErrInvalidLineNumber
		}
		*buf = append(b[:i], b[i+1:]...)
		return true, nil

	case ActionEdit:
		i := c.LineNumber - 1
		if i < 0 || i >= len(b) {
			return false, ErrInvalidLineNumber
		}
		v, err := parseValue(c.Value)
		if err != nil {
			return false, err
		}
		// edits keep line identity
		b[i].Format = v.Format
		b[i].Text = v.Text
		b[i].Untagged = false
		return true, nil

	case ActionAdd:
		v, err := parseValue(c.Value)
		if err != nil {
			return false, err
		}
		pos := c.LineNumber
		if pos < 1 {
			pos = 1
		}
		if pos > len(b)+1 {
			pos = len(b) + 1
		}
		b = append(b, script.Line{})
		copy(b[pos:], b[pos-1:])
		b[pos-1] = v
		*buf = b
		return true, nil
	}
	return false, ErrInvalidCommandValue
}

// planCommand translates one command into intents against the store,
// updating sim (the working copy of the flattened document) so later
// commands in the batch resolve against the right positions.
func planCommand(store *pagedoc.Store, sim *[]script.Line, c Command) ([]pagedoc.Intent, bool, error) {
	s := *sim
	switch c.Action {
	case ActionDelete:
		i := c.LineNumber - 1
		if i < 0 || i >= len(s) {
			return nil, false, ErrInvalidLineNumber
		}
		target := s[i]
		*sim = append(s[:i], s[i+1:]...)
		if target.IsBreak() {
			return store.PlanRemovePageBreak(target.ID), true, nil
		}
		return store.PlanRemoveLine(target.ID), true, nil

	case ActionEdit:
		i := c.LineNumber - 1
		if i < 0 || i >= len(s) {
			return nil, false, ErrInvalidLineNumber
		}
		v, err := parseValue(c.Value)
		if err != nil {
			return nil, false, err
		}
		old := s[i]
		var intents []pagedoc.Intent
		if old.IsBreak() {
			intents = store.PlanRemovePageBreak(old.ID)
		} else {
			intents = store.PlanRemoveLine(old.ID)
			if !v.IsBreak() {
				v.ID = old.ID // edits keep line identity
			}
		}
		rest := append(s[:i:i], s[i+1:]...)
		more, repl := planInsert(store, rest, i, v)
		intents = append(intents, more...)
		*sim = repl
		return intents, true, nil

	case ActionAdd:
		v, err := parseValue(c.Value)
		if err != nil {
			return nil, false, err
		}
		pos := c.LineNumber
		if pos < 1 {
			pos = 1
		}
		if pos > len(s)+1 {
			pos = len(s) + 1
		}
		intents, repl := planInsert(store, s, pos-1, v)
		*sim = repl
		return intents, true, nil
	}
	return nil, false, ErrInvalidCommandValue
}

// planInsert computes the intents that place line v at 0-based position at
// within lines, and returns the updated working copy. Chapter-break payloads
// become break intents; regular lines anchor on their content-line neighbor.
func planInsert(store *pagedoc.Store, lines []script.Line, at int, v script.Line) ([]pagedoc.Intent, []script.Line) {
	updated := append(lines[:at:at], append([]script.Line{v}, lines[at:]...)...)

	if v.IsBreak() {
		// Break intents are structural and resolve before any line intents
		// in the same batch, so the anchor must be a line the store already
		// holds. Lines still pending in this batch insert after that same
		// anchor and land ahead of the boundary.
		for i := at - 1; i >= 0; i-- {
			if lines[i].IsBreak() || store.PageOf(lines[i].ID) == nil {
				continue
			}
			return store.PlanInsertPageBreak(lines[i].ID), updated
		}
		// a break with no settled line ahead of it is meaningless
		return nil, updated
	}

	if prev := prevContent(lines, at); prev != nil && at > 0 && !lines[at-1].IsBreak() {
		return []pagedoc.Intent{{Kind: pagedoc.IntentAddLine, Line: v, AnchorID: prev.ID}}, updated
	}
	// no usable predecessor (head of document, or directly after a break):
	// anchor before the next content line instead
	for _, nl := range lines[at:] {
		if !nl.IsBreak() {
			return []pagedoc.Intent{{Kind: pagedoc.IntentAddLine, Line: v, AnchorID: nl.ID, Before: true}}, updated
		}
	}
	// nothing but break markers follow: append on a fresh page past them
	return []pagedoc.Intent{
		{Kind: pagedoc.IntentAddPage},
		{Kind: pagedoc.IntentAddLine, Line: v, PageIndex: int(^uint(0) >> 1)},
	}, updated
}

func prevContent(lines []script.Line, at int) *script.Line {
	for i := at - 1; i >= 0; i-- {
		if !lines[i].IsBreak() {
			return &lines[i]
		}
	}
	return nil
}

func isStructured(content string) bool {
	t := strings.TrimLeft(content, " \t\r\n")
	return t != "" && t[0] == '{'
}
