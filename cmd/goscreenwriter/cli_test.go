/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goscreenwriter/internal/storage"
)

func runCLI(t *testing.T, projectDir string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(newCommandContext())
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	if projectDir != "" {
		args = append([]string{"--project", projectDir}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func initTestProject(t *testing.T, title string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "proj")
	if _, err := runCLI(t, "", "", "init", dir, title, "--author", "Vera Lang", "--max-lines", "4"); err != nil {
		t.Fatalf("init: %v", err)
	}
	return dir
}

func TestInitAndInfo(t *testing.T) {
	dir := initTestProject(t, "Night Shift")

	out, err := runCLI(t, dir, "", "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Night Shift")
	requireContains(t, out, "Vera Lang")
	requireContains(t, out, "4 lines per page")
}

func seedScript(t *testing.T, dir, text string) {
	t.Helper()
	ph, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := storage.SaveScript(ph, text); err != nil {
		t.Fatalf("seed script: %v", err)
	}
}

func TestApplyThenPages(t *testing.T) {
	dir := initTestProject(t, "Lighthouse")
	seedScript(t, dir, "<header>INT. LIGHTHOUSE - NIGHT</header>\n"+
		"<speaker>KEEPER</speaker>\n"+
		"<dialog>The lamp is out.</dialog>\n"+
		"<action>Wind rattles the glass.</action>\n")

	// One batch: fix the dialog, append a line. 5 lines at 4 per page → 2 pages.
	batch := `[
		{"command": "EDIT", "lineNumber": 3, "value": "<dialog>The lamp is out again.</dialog>"},
		{"command": "ADD", "lineNumber": 5, "value": "<action>She climbs the stairs.</action>"}
	]`
	out, err := runCLI(t, dir, batch, "apply")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "Applied 2 commands.")

	ph, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	text, err := storage.LoadScript(ph)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	requireContains(t, text, "<dialog>The lamp is out again.</dialog>")

	out, err = runCLI(t, dir, "", "pages")
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	// 5 lines at 4 per page is 2 pages.
	requireContains(t, out, "INT. LIGHTHOUSE - NIGHT")
	requireContains(t, out, "2")
}

func TestApplyRejectsInvalidBatch(t *testing.T) {
	dir := initTestProject(t, "Reject")

	if _, err := runCLI(t, dir, `[{"command": "ADD", "lineNumber": 1, "value": "<action>keep me</action>"}]`, "apply"); err != nil {
		t.Fatalf("seed apply: %v", err)
	}

	bad := `[
		{"command": "ADD", "lineNumber": 2, "value": "<action>never lands</action>"},
		{"command": "EDIT", "lineNumber": 99, "value": "<action>out of range</action>"}
	]`
	if _, err := runCLI(t, dir, bad, "apply"); err == nil {
		t.Fatalf("expected batch rejection")
	}

	ph, _ := storage.Open(dir)
	text, err := storage.LoadScript(ph)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	if strings.Contains(text, "never lands") {
		t.Fatalf("rejected batch modified the script: %s", text)
	}
}

func TestFmtStructuredRoundTrip(t *testing.T) {
	dir := initTestProject(t, "Fmt")

	if _, err := runCLI(t, dir, `[{"command": "ADD", "lineNumber": 1, "value": "<action>one</action>"}]`, "apply"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := runCLI(t, dir, "", "fmt", "--to", "structured"); err != nil {
		t.Fatalf("fmt structured: %v", err)
	}
	ph, _ := storage.Open(dir)
	text, _ := storage.LoadScript(ph)
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		t.Fatalf("expected structured script, got %q", text)
	}
	if _, err := runCLI(t, dir, "", "fmt", "--to", "tagged"); err != nil {
		t.Fatalf("fmt tagged: %v", err)
	}
	ph, _ = storage.Open(dir)
	text, _ = storage.LoadScript(ph)
	requireContains(t, text, "<action>one</action>")
}

func TestSearchCommand(t *testing.T) {
	dir := initTestProject(t, "Searchable")
	seedScript(t, dir, "<speaker>KEEPER</speaker>\n<dialog>The lamp went dark.</dialog>\n")

	out, err := runCLI(t, dir, "", "search", "lamp")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "KEEPER")
	requireContains(t, out, "[lamp]")
}

func TestExportTagged(t *testing.T) {
	dir := initTestProject(t, "Exportable")

	if _, err := runCLI(t, dir, `[{"command": "ADD", "lineNumber": 1, "value": "<transition>FADE OUT</transition>"}]`, "apply"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := runCLI(t, dir, "", "export", "tagged", "--out", "final.txt"); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "exports", "final.txt"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	requireContains(t, string(b), "<transition>FADE OUT</transition>")
}

func TestParsePageSelection(t *testing.T) {
	got, err := parsePageSelection(" 1, 3 ,5")
	if err != nil {
		t.Fatalf("parsePageSelection: %v", err)
	}
	want := []int{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if _, err := parsePageSelection("0"); err == nil {
		t.Fatalf("expected error for page 0")
	}
	if _, err := parsePageSelection("a"); err == nil {
		t.Fatalf("expected error for non-numeric selection")
	}
	if ps, err := parsePageSelection(""); err != nil || ps != nil {
		t.Fatalf("empty selection should be nil, got %v %v", ps, err)
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Fatalf("clip kept: %q", got)
	}
	if got := clip("a very long line of text", 10); got != "a very lo…" {
		t.Fatalf("clip cut: %q", got)
	}
}
