/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editcmd

import (
	"errors"

	"goscreenwriter/internal/script"
)

// Action is the kind of an edit command.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionEdit   Action = "EDIT"
	ActionDelete Action = "DELETE"
)

// Command is one externally-numbered edit instruction against the flattened
// document, typically sourced from an AI agent or a bulk-import pipeline.
// LineNumber is 1-based; the 1-based/0-based conversion happens entirely
// inside this package and leaks in neither direction.
//
// For ADD, LineNumber is the position the new line will occupy
// (0 is accepted as an alias for 1; lineCount+1 appends). For EDIT and
// DELETE it addresses an existing line. Value carries the tagged payload
// for ADD and EDIT and must be a single <tag>text</tag> with a known tag.
type Command struct {
	Action     Action `json:"command"`
	LineNumber int    `json:"lineNumber"`
	Value      string `json:"value,omitempty"`
}

// Validation failures. Any of these rejects the whole batch before any
// mutation (all-or-nothing).
var (
	ErrInvalidLineNumber   = errors.New("editcmd: line number out of range")
	ErrInvalidTag          = errors.New("editcmd: tag is not a known format")
	ErrInvalidCommandValue = errors.New("editcmd: value must be a single <tag>text</tag>")
)

// CommandResult is the per-command outcome within a batch result.
type CommandResult struct {
	Command Command
	Success bool
	Err     error
}

// Result is the outcome of one command batch. Modified is true iff at least
// one command succeeded; when false, Content is string-equal to the input.
// Err carries the validation error that rejected the batch, if any.
type Result struct {
	Content  string
	Results  []CommandResult
	Modified bool
	Err      error
}

// parseValue validates and decodes a command payload. The executor is
// strict: unknown tags are rejected, never coerced (coercion to action is a
// serializer-only leniency).
func parseValue(value string) (script.Line, error) {
	lines := script.ParseTagged(value)
	if len(lines) != 1 || lines[0].Untagged {
		return script.Line{}, ErrInvalidCommandValue
	}
	if !script.Known(lines[0].Format) {
		return script.Line{}, ErrInvalidTag
	}
	return script.NewLine(lines[0].Format, lines[0].Text), nil
}
