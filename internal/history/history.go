/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps an in-memory undo/redo log of page revisions.
// Revisions store serialized page text; the log never interprets it.
package history

import (
	"sync"
	"time"

	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/script"
)

// Revision is one captured state of a page.
type Revision struct {
	PageID string
	Text   string
	TS     time.Time
}

// Config bounds the log. Revisions recorded for the same page within
// MinInterval coalesce into one entry instead of stacking up keystrokes.
type Config struct {
	// MaxBytes is a soft cap on total retained text; oldest revisions
	// across all pages are pruned when exceeded.
	MaxBytes int
	// MaxPerPage limits revisions kept per page (0 means unlimited).
	MaxPerPage  int
	MinInterval time.Duration
}

// Log is a per-page undo/redo history. Safe for concurrent use.
type Log struct {
	cfg Config
	mu  sync.Mutex

	undo map[string][]Revision
	redo map[string][]Revision

	totalBytes int
}

func NewLog(cfg Config) *Log {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Log{cfg: cfg, undo: make(map[string][]Revision), redo: make(map[string][]Revision)}
}

// Record pushes a revision. A revision within MinInterval of the page's
// previous one replaces it. Recording invalidates the page's redo stack.
func (l *Log) Record(r Revision) {
	if r.TS.IsZero() {
		r.TS = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	stack := l.undo[r.PageID]
	if n := len(stack); n > 0 && r.TS.Sub(stack[n-1].TS) < l.cfg.MinInterval {
		l.totalBytes += len(r.Text) - len(stack[n-1].Text)
		stack[n-1] = r
		l.redo[r.PageID] = nil
		l.enforceCapsLocked(r.PageID)
		return
	}
	l.undo[r.PageID] = append(stack, r)
	l.totalBytes += len(r.Text)
	l.redo[r.PageID] = nil
	l.enforceCapsLocked(r.PageID)
}

// CaptureStore records the current text of every page in the store.
// Typically called right before applying an edit batch.
func (l *Log) CaptureStore(store *pagedoc.Store) {
	if store == nil {
		return
	}
	now := time.Now()
	for _, p := range store.Pages() {
		l.Record(Revision{
			PageID: p.ID,
			Text:   script.SerializeTagged(p.Lines),
			TS:     now,
		})
	}
}

// Undo pops the page's most recent revision onto its redo stack.
func (l *Log) Undo(pageID string) (Revision, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stack := l.undo[pageID]
	if len(stack) == 0 {
		return Revision{}, false
	}
	r := stack[len(stack)-1]
	l.undo[pageID] = stack[:len(stack)-1]
	l.totalBytes -= len(r.Text)
	l.redo[pageID] = append(l.redo[pageID], r)
	return r, true
}

// Redo pops from the page's redo stack back onto undo.
func (l *Log) Redo(pageID string) (Revision, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stack := l.redo[pageID]
	if len(stack) == 0 {
		return Revision{}, false
	}
	r := stack[len(stack)-1]
	l.redo[pageID] = stack[:len(stack)-1]
	l.undo[pageID] = append(l.undo[pageID], r)
	l.totalBytes += len(r.Text)
	l.enforceCapsLocked(pageID)
	return r, true
}

// Forget drops both stacks for a page, e.g. after the page was pruned.
func (l *Log) Forget(pageID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.undo[pageID] {
		l.totalBytes -= len(r.Text)
	}
	delete(l.undo, pageID)
	delete(l.redo, pageID)
	if l.totalBytes < 0 {
		l.totalBytes = 0
	}
}

// Stats reports retained bytes, tracked pages and total revisions.
func (l *Log) Stats() (totalBytes, pages, revisions int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pages = len(l.undo)
	for _, v := range l.undo {
		revisions += len(v)
	}
	return l.totalBytes, pages, revisions
}

func (l *Log) enforceCapsLocked(pageID string) {
	if l.cfg.MaxPerPage > 0 {
		stack := l.undo[pageID]
		if drop := len(stack) - l.cfg.MaxPerPage; drop > 0 {
			for i := 0; i < drop; i++ {
				l.totalBytes -= len(stack[i].Text)
			}
			l.undo[pageID] = append([]Revision{}, stack[drop:]...)
		}
	}
	for l.cfg.MaxBytes > 0 && l.totalBytes > l.cfg.MaxBytes {
		oldestPage := ""
		var oldestTS time.Time
		found := false
		for page, stack := range l.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestPage, oldestTS, found = page, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := l.undo[oldestPage]
		l.totalBytes -= len(stack[0].Text)
		l.undo[oldestPage] = stack[1:]
		if len(l.undo[oldestPage]) == 0 {
			delete(l.undo, oldestPage)
		}
	}
}
