/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script defines the line model and the document serializer.
//
// Two encodings are supported and auto-detected by the first non-whitespace
// character of the input:
//
//   - tagged-line text: one <format>text</format> per line
//   - structured envelope: {"version":2,"lines":[{"id","format","content"}]}
//
// The serializer is deliberately permissive: tagged lines with a tag outside
// the fixed format set round-trip unchanged, and lines matching no pattern at
// all are preserved verbatim. Strict validation is the job of the
// edit-command layer, not the serializer.
package script

import (
	"bufio"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// EnvelopeVersion is the structured encoding version this package writes.
const EnvelopeVersion = 2

// ErrAmbiguousEncoding is returned when input looks structured but cannot be
// decoded. Callers receive an empty document alongside it and may treat the
// result as an empty script.
var ErrAmbiguousEncoding = errors.New("script: input matches no known encoding")

var reTagged = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9-]*)>(.*)</([a-zA-Z][a-zA-Z0-9-]*)>$`)

// Envelope is the structured JSON form of a document.
type Envelope struct {
	Version int            `json:"version"`
	Lines   []EnvelopeLine `json:"lines"`
}

// EnvelopeLine is one line record in the structured form.
type EnvelopeLine struct {
	ID      string `json:"id"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// Parse decodes a textual document in either encoding. A leading '{' selects
// the structured envelope; anything else is treated as tagged-line text.
// Structured input that fails to decode yields an empty document and
// ErrAmbiguousEncoding, never a panic.
func Parse(text string) ([]Line, error) {
	trimmed := strings.TrimLeftFunc(text, isSpace)
	if trimmed == "" {
		return nil, nil
	}
	if trimmed[0] == '{' {
		lines, err := ParseStructured(text)
		if err != nil {
			return nil, ErrAmbiguousEncoding
		}
		return lines, nil
	}
	return ParseTagged(text), nil
}

// ParseTagged splits tagged-line text into lines. Each source line matching
// <tag>content</tag> (with matching open/close tags) becomes a tagged line
// carrying the literal tag as its format, known or not. Everything else is
// preserved as an opaque untagged line.
func ParseTagged(text string) []Line {
	var out []Line
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		raw := strings.TrimRight(sc.Text(), "\r")
		if m := reTagged.FindStringSubmatch(raw); m != nil && m[1] == m[3] {
			out = append(out, Line{ID: newID(), Format: Format(m[1]), Text: m[2]})
			continue
		}
		out = append(out, Line{ID: newID(), Text: raw, Untagged: true})
	}
	return out
}

// ParseStructured decodes the JSON envelope form. Unknown formats are coerced
// to action; missing IDs are regenerated.
func ParseStructured(text string) ([]Line, error) {
	var env Envelope
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&env); err != nil {
		return nil, err
	}
	if env.Version == 0 || env.Lines == nil {
		return nil, errors.New("script: not a structured document")
	}
	out := make([]Line, 0, len(env.Lines))
	for _, sl := range env.Lines {
		id := sl.ID
		if id == "" {
			id = newID()
		}
		out = append(out, Line{ID: id, Format: Normalize(Format(sl.Format)), Text: sl.Content})
	}
	return out, nil
}

// SerializeTagged renders lines as tagged-line text, one line per source
// line, joined by newlines. Untagged lines are emitted verbatim so that
// SerializeTagged(ParseTagged(x)) == x for any tagged document x.
func SerializeTagged(lines []Line) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l.Untagged {
			b.WriteString(l.Text)
			continue
		}
		b.WriteByte('<')
		b.WriteString(string(l.Format))
		b.WriteByte('>')
		b.WriteString(l.Text)
		b.WriteString("</")
		b.WriteString(string(l.Format))
		b.WriteByte('>')
	}
	return b.String()
}

// SerializeStructured renders lines as the JSON envelope. Untagged lines are
// carried with the action format so the structured form stays within the
// fixed format set.
func SerializeStructured(lines []Line) (string, error) {
	env := Envelope{Version: EnvelopeVersion, Lines: make([]EnvelopeLine, 0, len(lines))}
	for _, l := range lines {
		f := l.Format
		if l.Untagged {
			f = FormatAction
		}
		env.Lines = append(env.Lines, EnvelopeLine{ID: l.ID, Format: string(Normalize(f)), Content: l.Text})
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
