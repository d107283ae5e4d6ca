/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTaggedRoundTrips(t *testing.T) {
	ph, store := exportFixture(t)
	if err := WriteTagged(ph, store, "script.gsw"); err != nil {
		t.Fatalf("WriteTagged: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(ph.Root, "exports", "script.gsw"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != store.Text() {
		t.Fatalf("tagged export differs from document text")
	}
}

func TestWritePlainLayout(t *testing.T) {
	ph, store := exportFixture(t)
	if err := WritePlain(ph, store, "script.txt"); err != nil {
		t.Fatalf("WritePlain: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(ph.Root, "exports", "script.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "INT. STAGE - NIGHT") {
		t.Fatalf("header missing: %q", text)
	}
	if !strings.Contains(text, strings.Repeat(" ", 20)+"NINA") {
		t.Fatalf("speaker not indented")
	}
	if !strings.Contains(text, "\f") {
		t.Fatalf("page separator missing")
	}
}
