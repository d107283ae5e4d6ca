/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pagedoc

import (
	"fmt"
	"testing"

	"goscreenwriter/internal/script"
)

func mustStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s, err := NewStore(capacity)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if !s.Initialize() {
		t.Fatalf("Initialize failed")
	}
	return s
}

func makeLines(n int) []script.Line {
	out := make([]script.Line, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, script.NewLine(script.FormatAction, fmt.Sprintf("beat %d", i)))
	}
	return out
}

// checkInvariants asserts the pagination invariants that must hold after any
// applied batch.
func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	pages := s.Pages()
	if len(pages) == 0 {
		t.Fatalf("store must always hold at least one page")
	}
	max := s.MaxLinesPerPage()
	for i, p := range pages {
		if len(p.Lines) > max {
			t.Fatalf("page %d exceeds capacity: %d > %d", i, len(p.Lines), max)
		}
		if i < len(pages)-1 && !p.BreakAfter && len(p.Lines) != max {
			t.Fatalf("non-last page %d not full: %d != %d", i, len(p.Lines), max)
		}
		if p.Index != i {
			t.Fatalf("page %d has stale index %d", i, p.Index)
		}
	}
	if len(pages) > 1 && len(pages[len(pages)-1].Lines) == 0 {
		t.Fatalf("trailing empty page present")
	}
}

func TestNewStoreRejectsInvalidCapacity(t *testing.T) {
	if _, err := NewStore(0); err == nil {
		t.Fatalf("expected error for zero capacity")
	}
	if _, err := NewStore(-3); err == nil {
		t.Fatalf("expected error for negative capacity")
	}
}

func TestInitializeIdempotent(t *testing.T) {
	s := mustStore(t, 5)
	if s.PageCount() != 1 {
		t.Fatalf("expected 1 page after init, got %d", s.PageCount())
	}
	if !s.Initialize() || s.PageCount() != 1 {
		t.Fatalf("Initialize must be idempotent")
	}
	if s.CurrentPage() == nil {
		t.Fatalf("current page not set by Initialize")
	}
}

func TestSetCurrentPageRejectsUnmanaged(t *testing.T) {
	s := mustStore(t, 5)
	other := mustStore(t, 5)
	if s.SetCurrentPage(other.Page(0)) {
		t.Fatalf("foreign page must be rejected")
	}
	if s.SetCurrentPage(nil) {
		t.Fatalf("nil page must be rejected")
	}
	if !s.SetCurrentPage(s.Page(0)) {
		t.Fatalf("own page must be accepted")
	}
}

func TestNextPreviousPage(t *testing.T) {
	s := mustStore(t, 2)
	s.Load(makeLines(5)) // 3 pages: 2+2+1
	pages := s.Pages()
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if got := s.NextPage(pages[0]); got != pages[1] {
		t.Fatalf("NextPage(0) wrong")
	}
	if got := s.PreviousPage(pages[2]); got != pages[1] {
		t.Fatalf("PreviousPage(2) wrong")
	}
	if s.NextPage(pages[2]) != nil {
		t.Fatalf("NextPage at end must be nil")
	}
	if s.PreviousPage(pages[0]) != nil {
		t.Fatalf("PreviousPage at start must be nil")
	}
	if s.NextPage(nil) != nil {
		t.Fatalf("NextPage(nil) must be nil")
	}
}

func TestPageOfUsesLineIndex(t *testing.T) {
	s := mustStore(t, 2)
	lines := makeLines(5)
	s.Load(lines)
	if p := s.PageOf(lines[4].ID); p == nil || p.Index != 2 {
		t.Fatalf("PageOf last line wrong: %+v", p)
	}
	if s.PageOf("no-such-line") != nil {
		t.Fatalf("unknown line must map to nil")
	}
}

func TestLoadDistributesAndFlattens(t *testing.T) {
	s := mustStore(t, 3)
	lines := makeLines(7)
	s.Load(lines)
	checkInvariants(t, s)
	if s.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", s.PageCount())
	}
	flat := s.Lines()
	if len(flat) != 7 {
		t.Fatalf("flattened projection lost lines: %d", len(flat))
	}
	for i := range flat {
		if flat[i].ID != lines[i].ID {
			t.Fatalf("line order broken at %d", i)
		}
	}
}

func TestLoadNotifiesOnlyWhenPageCountChanges(t *testing.T) {
	s := mustStore(t, 3)
	notifications := 0
	s.OnPageCountChange(func(int) { notifications++ })

	// one fresh page -> one loaded page: no change, no notification
	s.Load(makeLines(3))
	if notifications != 0 {
		t.Fatalf("same-count load notified %d times, want 0", notifications)
	}
	s.Load(makeLines(7))
	if s.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", s.PageCount())
	}
	if notifications != 1 {
		t.Fatalf("count change notified %d times, want 1", notifications)
	}
	// 8 lines still fill 3 pages at capacity 3
	s.Load(makeLines(8))
	if notifications != 1 {
		t.Fatalf("reload with same page count notified again: %d", notifications)
	}
}

func TestLoadHonorsChapterBreaks(t *testing.T) {
	s := mustStore(t, 10)
	lines := []script.Line{
		script.NewLine(script.FormatHeader, "ACT ONE"),
		script.NewLine(script.FormatAction, "Dawn."),
		script.NewLine(script.FormatChapterBreak, ""),
		script.NewLine(script.FormatHeader, "ACT TWO"),
	}
	s.Load(lines)
	if s.PageCount() != 2 {
		t.Fatalf("hard break must force 2 pages, got %d", s.PageCount())
	}
	p0 := s.Page(0)
	if !p0.BreakAfter || len(p0.Lines) != 2 {
		t.Fatalf("page 0 should carry the break: %+v", p0)
	}
	// the flattened projection keeps the marker, with its identity
	flat := s.Lines()
	if len(flat) != 4 || !flat[2].IsBreak() || flat[2].ID != lines[2].ID {
		t.Fatalf("break marker not materialized: %+v", flat)
	}
}

func TestRoundTripThroughStore(t *testing.T) {
	doc := "<header>INT. BARN - NIGHT</header>\n" +
		"<action>Wind rattles the boards.</action>\n" +
		"<chapter-break></chapter-break>\n" +
		"<speaker>JO</speaker>\n" +
		"<dialog>Anyone there?</dialog>"
	s := mustStore(t, 55)
	lines, err := script.Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s.Load(lines)
	if got := s.Text(); got != doc {
		t.Fatalf("store round-trip mismatch:\n in: %q\nout: %q", doc, got)
	}
}

func TestDestroyedStoreIsSafeNoop(t *testing.T) {
	s := mustStore(t, 3)
	s.Load(makeLines(4))
	s.Destroy()
	s.Destroy() // idempotent

	if s.Initialize() {
		t.Fatalf("Initialize after destroy must report false")
	}
	if s.Pages() != nil || s.PageCount() != 0 || s.CurrentPage() != nil {
		t.Fatalf("reads after destroy must return zero values")
	}
	if s.Page(0) != nil || s.PageOf("x") != nil || s.Lines() != nil {
		t.Fatalf("lookups after destroy must return nil")
	}
	if s.SetCurrentPage(&Page{}) {
		t.Fatalf("SetCurrentPage after destroy must report false")
	}
	if s.Load(makeLines(1)) {
		t.Fatalf("Load after destroy must report false")
	}
	if s.Apply([]Intent{{Kind: IntentAddPage}}) {
		t.Fatalf("Apply after destroy must report false")
	}
	if s.MaxLinesPerPage() != 0 || s.LineCount() != 0 || s.Text() != "" {
		t.Fatalf("late calls after destroy must be zero-valued")
	}
}
