/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"fmt"
	"testing"
	"time"

	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/script"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	l := NewLog(Config{})
	base := time.Now()
	l.Record(Revision{PageID: "p1", Text: "<action>one</action>", TS: base})
	l.Record(Revision{PageID: "p1", Text: "<action>two</action>", TS: base.Add(time.Second)})

	r, ok := l.Undo("p1")
	if !ok || r.Text != "<action>two</action>" {
		t.Fatalf("Undo = %+v, %v", r, ok)
	}
	r, ok = l.Redo("p1")
	if !ok || r.Text != "<action>two</action>" {
		t.Fatalf("Redo = %+v, %v", r, ok)
	}
	if _, ok := l.Redo("p1"); ok {
		t.Fatalf("redo stack should be empty after replay")
	}
}

func TestRecordInvalidatesRedo(t *testing.T) {
	l := NewLog(Config{})
	base := time.Now()
	l.Record(Revision{PageID: "p1", Text: "a", TS: base})
	l.Record(Revision{PageID: "p1", Text: "b", TS: base.Add(time.Second)})
	if _, ok := l.Undo("p1"); !ok {
		t.Fatalf("Undo failed")
	}
	l.Record(Revision{PageID: "p1", Text: "c", TS: base.Add(2 * time.Second)})
	if _, ok := l.Redo("p1"); ok {
		t.Fatalf("new revision must clear redo")
	}
}

func TestCoalescingWithinInterval(t *testing.T) {
	l := NewLog(Config{MinInterval: time.Second})
	base := time.Now()
	l.Record(Revision{PageID: "p1", Text: "draft", TS: base})
	l.Record(Revision{PageID: "p1", Text: "draft 2", TS: base.Add(100 * time.Millisecond)})

	_, _, revisions := l.Stats()
	if revisions != 1 {
		t.Fatalf("revisions = %d, want 1 after coalescing", revisions)
	}
	r, _ := l.Undo("p1")
	if r.Text != "draft 2" {
		t.Fatalf("coalesced revision = %q, want latest text", r.Text)
	}
}

func TestPerPageDepthCap(t *testing.T) {
	l := NewLog(Config{MaxPerPage: 3})
	base := time.Now()
	for i := 0; i < 6; i++ {
		l.Record(Revision{PageID: "p1", Text: fmt.Sprintf("rev %d", i), TS: base.Add(time.Duration(i) * time.Second)})
	}
	_, _, revisions := l.Stats()
	if revisions != 3 {
		t.Fatalf("revisions = %d, want 3", revisions)
	}
	r, _ := l.Undo("p1")
	if r.Text != "rev 5" {
		t.Fatalf("newest revision = %q, want rev 5", r.Text)
	}
}

func TestGlobalByteCapPrunesOldest(t *testing.T) {
	l := NewLog(Config{MaxBytes: 10})
	base := time.Now()
	l.Record(Revision{PageID: "old", Text: "12345678", TS: base})
	l.Record(Revision{PageID: "new", Text: "12345678", TS: base.Add(time.Minute)})

	totalBytes, pages, _ := l.Stats()
	if totalBytes > 10 {
		t.Fatalf("totalBytes = %d, cap is 10", totalBytes)
	}
	if pages != 1 {
		t.Fatalf("pages = %d, oldest page should have been pruned", pages)
	}
	if _, ok := l.Undo("old"); ok {
		t.Fatalf("old page revision survived the byte cap")
	}
}

func TestForget(t *testing.T) {
	l := NewLog(Config{})
	l.Record(Revision{PageID: "p1", Text: "abc"})
	l.Forget("p1")
	totalBytes, pages, revisions := l.Stats()
	if totalBytes != 0 || pages != 0 || revisions != 0 {
		t.Fatalf("Forget left state behind: %d bytes, %d pages, %d revisions", totalBytes, pages, revisions)
	}
}

func TestCaptureStore(t *testing.T) {
	store, err := pagedoc.NewStore(2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.Load([]script.Line{
		script.NewLine(script.FormatAction, "a"),
		script.NewLine(script.FormatAction, "b"),
		script.NewLine(script.FormatAction, "c"),
	})

	l := NewLog(Config{})
	l.CaptureStore(store)

	_, pages, revisions := l.Stats()
	if pages != 2 || revisions != 2 {
		t.Fatalf("captured %d pages / %d revisions, want 2 / 2", pages, revisions)
	}
	first := store.Pages()[0]
	r, ok := l.Undo(first.ID)
	if !ok {
		t.Fatalf("no revision for first page")
	}
	if want := script.SerializeTagged(first.Lines); r.Text != want {
		t.Fatalf("revision text = %q, want %q", r.Text, want)
	}
}
