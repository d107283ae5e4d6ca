/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

// WriteTagged writes the document in the tagged-line encoding, exactly as
// the serializer round-trips it.
func WriteTagged(ph *storage.ProjectHandle, store *pagedoc.Store, outPath string) error {
	if ph == nil || store == nil {
		return fmt.Errorf("project handle and store are required")
	}
	return writeTextFile(ph, outPath, store.Text())
}

// WritePlain renders a human-readable plain-text version: speakers and
// headers uppercased, dialog indented, a form-feed between pages.
func WritePlain(ph *storage.ProjectHandle, store *pagedoc.Store, outPath string) error {
	if ph == nil || store == nil {
		return fmt.Errorf("project handle and store are required")
	}
	var b strings.Builder
	for pi, p := range store.Pages() {
		if pi > 0 {
			b.WriteString("\f\n")
		}
		for _, l := range p.Lines {
			b.WriteString(plainLine(l))
			b.WriteByte('\n')
		}
	}
	return writeTextFile(ph, outPath, b.String())
}

func plainLine(l script.Line) string {
	if l.Untagged {
		return l.Text
	}
	switch l.Format {
	case script.FormatHeader:
		return strings.ToUpper(l.Text)
	case script.FormatSpeaker:
		return strings.Repeat(" ", 20) + strings.ToUpper(l.Text)
	case script.FormatParenthetical:
		t := l.Text
		if t != "" && !strings.HasPrefix(t, "(") {
			t = "(" + t + ")"
		}
		return strings.Repeat(" ", 14) + t
	case script.FormatDialog:
		return strings.Repeat(" ", 10) + l.Text
	case script.FormatTransition:
		return strings.Repeat(" ", 40) + strings.ToUpper(l.Text)
	case script.FormatChapterBreak:
		return ""
	default:
		return l.Text
	}
}

func writeTextFile(ph *storage.ProjectHandle, outPath, content string) error {
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write text export: %w", err)
	}
	return nil
}
