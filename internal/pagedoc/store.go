/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pagedoc implements the paginated document engine: an ordered
// sequence of typed script lines distributed across fixed-capacity pages.
//
// The Store is the aggregate root and owns all pages and lines exclusively.
// Mutation happens only through intent batches (see intent.go and
// applier.go); the Store exposes no line-splice API to outside callers, so
// the pagination invariants cannot be violated by construction:
//
//   - every page holds at most MaxLinesPerPage lines
//   - every non-last page without a hard break after it is exactly full
//   - there is always at least one page once initialized
//   - only the first page may be empty; trailing empty pages are pruned
//
// The concurrency model is single-writer cooperative: a mutex serializes
// batches, reads are safe between batches, and the engine itself performs no
// I/O. After Destroy every method is a safe no-op returning a zero value, so
// late calls during teardown races never panic.
package pagedoc

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// Page is a fixed-capacity ordered container of lines. Index is the 0-based
// position within the store, recomputed after every structural batch.
// BreakAfter marks an explicit hard page boundary after this page, requested
// via an insert-page-break intent and independent of capacity; breakID keeps
// the identity of the chapter-break marker line so the flattened document
// round-trips.
type Page struct {
	ID         string
	Index      int
	Lines      []script.Line
	BreakAfter bool

	breakID string
}

// LineCount returns the number of content lines on the page.
func (p *Page) LineCount() int {
	if p == nil {
		return 0
	}
	return len(p.Lines)
}

// Store holds the ordered pages of one editing session.
type Store struct {
	mu        sync.Mutex
	maxLines  int
	pages     []*Page
	current   int // index into pages; -1 before Initialize
	lineIndex map[string]int
	destroyed bool
	log       *slog.Logger

	onPageChange      func(*Page)
	onPageCountChange func(int)
}

// NewStore creates an empty, uninitialized store. maxLinesPerPage must be
// positive; a non-positive capacity is a programmer error and the only
// construction-time failure.
func NewStore(maxLinesPerPage int) (*Store, error) {
	if maxLinesPerPage <= 0 {
		return nil, errInvalidCapacity
	}
	return &Store{
		maxLines:  maxLinesPerPage,
		current:   -1,
		lineIndex: make(map[string]int),
		log:       applog.WithComponent("pagedoc"),
	}, nil
}

// Initialize ensures at least one page exists and selects it as current.
// It is idempotent and reports false only after Destroy.
func (s *Store) Initialize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return false
	}
	if len(s.pages) == 0 {
		s.pages = append(s.pages, newPage(0))
	}
	if s.current < 0 || s.current >= len(s.pages) {
		s.current = 0
	}
	return true
}

// MaxLinesPerPage returns the fixed page capacity.
func (s *Store) MaxLinesPerPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return 0
	}
	return s.maxLines
}

// Pages returns the pages in order. The slice is a copy; the pages are the
// live owned records and must not be mutated by callers.
func (s *Store) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	out := make([]*Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// PageCount returns the number of pages.
func (s *Store) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return 0
	}
	return len(s.pages)
}

// Page returns the page at the 0-based index, or nil when out of range.
func (s *Store) Page(index int) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || index < 0 || index >= len(s.pages) {
		return nil
	}
	return s.pages[index]
}

// CurrentPage returns the currently selected page, or nil.
func (s *Store) CurrentPage() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.current < 0 || s.current >= len(s.pages) {
		return nil
	}
	return s.pages[s.current]
}

// SetCurrentPage selects p as current. It reports false without panicking
// when p is nil or not managed by this store.
func (s *Store) SetCurrentPage(p *Page) bool {
	s.mu.Lock()
	if s.destroyed || p == nil {
		s.mu.Unlock()
		return false
	}
	idx := s.indexOfPage(p)
	if idx < 0 {
		s.mu.Unlock()
		s.log.Warn("set current page: unmanaged page reference", slog.String("page", p.ID))
		return false
	}
	changed := idx != s.current
	s.current = idx
	cb := s.onPageChange
	s.mu.Unlock()
	if changed && cb != nil {
		cb(p)
	}
	return true
}

// NextPage returns the page following p, or nil at the end or when p is not
// managed by this store.
func (s *Store) NextPage(p *Page) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	idx := s.indexOfPage(p)
	if idx < 0 || idx+1 >= len(s.pages) {
		return nil
	}
	return s.pages[idx+1]
}

// PreviousPage returns the page preceding p, or nil at the start or when p
// is not managed by this store.
func (s *Store) PreviousPage(p *Page) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	idx := s.indexOfPage(p)
	if idx <= 0 {
		return nil
	}
	return s.pages[idx-1]
}

// PageOf returns the page holding the line with the given ID, or nil.
// Lookup is O(1) through the line index.
func (s *Store) PageOf(lineID string) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	idx, ok := s.lineIndex[lineID]
	if !ok || idx < 0 || idx >= len(s.pages) {
		return nil
	}
	return s.pages[idx]
}

// Lines returns the flattened document projection: all lines in order, with
// a chapter-break marker line materialized at every hard page boundary.
func (s *Store) Lines() []script.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	return s.flattenLocked()
}

// LineCount returns the number of lines in the flattened projection,
// including hard-break markers.
func (s *Store) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return 0
	}
	n := 0
	for _, p := range s.pages {
		n += len(p.Lines)
		if p.BreakAfter {
			n++
		}
	}
	return n
}

// Text serializes the flattened document as tagged-line text.
func (s *Store) Text() string {
	return script.SerializeTagged(s.Lines())
}

// Load replaces the store content with the given flattened document,
// distributing lines across pages and honoring chapter-break markers as hard
// boundaries. It reports false after Destroy.
func (s *Store) Load(lines []script.Line) bool {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return false
	}
	prevCount := len(s.pages)
	s.pages = []*Page{newPage(0)}
	cur := s.pages[0]
	for _, l := range lines {
		if l.IsBreak() {
			cur.BreakAfter = true
			cur.breakID = l.ID
			cur = newPage(len(s.pages))
			s.pages = append(s.pages, cur)
			continue
		}
		if len(cur.Lines) >= s.maxLines {
			cur = newPage(len(s.pages))
			s.pages = append(s.pages, cur)
		}
		cur.Lines = append(cur.Lines, l)
	}
	s.pruneTrailingEmptyLocked()
	s.current = 0
	s.resyncLocked()
	count := len(s.pages)
	cb := s.onPageCountChange
	s.mu.Unlock()
	if cb != nil && count != prevCount {
		cb(count)
	}
	return true
}

// OnPageChange registers the current-page change notification.
func (s *Store) OnPageChange(fn func(*Page)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.onPageChange = fn
}

// OnPageCountChange registers the page-count change notification. It fires
// exactly once per applied batch that changed the page count.
func (s *Store) OnPageCountChange(fn func(int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.onPageCountChange = fn
}

// Destroy releases all pages and lines. Every subsequent call on the store
// is a safe no-op; Destroy itself is idempotent.
func (s *Store) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.pages = nil
	s.lineIndex = nil
	s.current = -1
	s.onPageChange = nil
	s.onPageCountChange = nil
}

func (s *Store) indexOfPage(p *Page) int {
	if p == nil {
		return -1
	}
	for i, q := range s.pages {
		if q == p {
			return i
		}
	}
	return -1
}

func (s *Store) flattenLocked() []script.Line {
	var out []script.Line
	for _, p := range s.pages {
		out = append(out, p.Lines...)
		if p.BreakAfter {
			id := p.breakID
			if id == "" {
				id = uuid.NewString()
			}
			out = append(out, script.Line{ID: id, Format: script.FormatChapterBreak})
		}
	}
	return out
}

// resyncLocked recomputes page indexes and rebuilds the lineID -> pageIndex
// map deterministically after a structural batch.
func (s *Store) resyncLocked() {
	s.lineIndex = make(map[string]int, len(s.lineIndex))
	for i, p := range s.pages {
		p.Index = i
		for _, l := range p.Lines {
			s.lineIndex[l.ID] = i
		}
	}
	if s.current >= len(s.pages) {
		s.current = len(s.pages) - 1
	}
}

func (s *Store) pruneTrailingEmptyLocked() {
	for len(s.pages) > 1 && len(s.pages[len(s.pages)-1].Lines) == 0 {
		last := s.pages[len(s.pages)-1]
		s.pages = s.pages[:len(s.pages)-1]
		if last.BreakAfter {
			// keep a trailing hard break on the new last page
			prev := s.pages[len(s.pages)-1]
			prev.BreakAfter = true
			prev.breakID = last.breakID
		}
	}
}

func newPage(index int) *Page {
	return &Page{ID: uuid.NewString(), Index: index}
}
