/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "github.com/google/uuid"

// Format identifies the kind of a screenplay line. The string values are the
// wire contract: they appear verbatim as tags in the serialized document and
// must be preserved exactly by any consumer persisting it.
type Format string

const (
	FormatHeader        Format = "header"
	FormatAction        Format = "action"
	FormatSpeaker       Format = "speaker"
	FormatDialog        Format = "dialog"
	FormatParenthetical Format = "parenthetical"
	FormatTransition    Format = "transition"
	FormatChapterBreak  Format = "chapter-break"
)

// Formats lists every valid format in serialization order.
var Formats = []Format{
	FormatHeader,
	FormatAction,
	FormatSpeaker,
	FormatDialog,
	FormatParenthetical,
	FormatTransition,
	FormatChapterBreak,
}

// Known reports whether f is one of the fixed format values.
func Known(f Format) bool {
	switch f {
	case FormatHeader, FormatAction, FormatSpeaker, FormatDialog,
		FormatParenthetical, FormatTransition, FormatChapterBreak:
		return true
	}
	return false
}

// Normalize coerces an unknown format to FormatAction. This leniency belongs
// to the serializer/import side; the edit-command executor rejects unknown
// tags instead of coercing them.
func Normalize(f Format) Format {
	if Known(f) {
		return f
	}
	return FormatAction
}

// Line is one formatted unit of script content. Identity is stable for the
// lifetime of the line, across page moves. A line is owned by exactly one
// page at a time.
//
// Untagged marks a line that did not match the <tag>text</tag> pattern on
// parse; such lines are opaque and round-trip verbatim.
type Line struct {
	ID       string
	Format   Format
	Text     string
	Untagged bool
}

// NewLine creates a line with a fresh ID. The format is normalized.
func NewLine(format Format, text string) Line {
	return Line{ID: newID(), Format: Normalize(format), Text: text}
}

func newID() string { return uuid.NewString() }

// IsBreak reports whether the line is an explicit chapter/page break marker.
func (l Line) IsBreak() bool { return l.Format == FormatChapterBreak && !l.Untagged }
