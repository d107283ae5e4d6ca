/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pagedoc

import (
	"log/slog"

	"github.com/google/uuid"

	"goscreenwriter/internal/script"
)

// Apply executes one intent batch transactionally with respect to invariant
// enforcement. Ordering within the batch is: structural intents first, then
// line intents, then navigation, each group preserving original relative
// order, so line intents always resolve against an already-correct page
// topology.
//
// An intent referencing a page or line no longer present is a logged silent
// no-op; the batch never partially aborts. After all intents, capacity
// enforcement and trailing-empty-page pruning run, page metadata is
// resynchronized, and a page-count notification fires at most once.
//
// Apply reports false when any intent was rejected or went stale, so UI
// layers can degrade gracefully; it never panics.
func (s *Store) Apply(batch []Intent) bool {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return false
	}
	if len(s.pages) == 0 {
		s.pages = append(s.pages, newPage(0))
	}
	if s.current < 0 {
		s.current = 0
	}

	prevCount := len(s.pages)
	var prevCurrent *Page
	if s.current < len(s.pages) {
		prevCurrent = s.pages[s.current]
	}

	ok := true
	for _, group := range [3]func(IntentKind) bool{isStructural, isLine, isNavigation} {
		for _, in := range batch {
			if !group(in.Kind) {
				continue
			}
			if !s.applyIntentLocked(in) {
				ok = false
			}
		}
	}

	s.rebalanceLocked()
	s.pruneTrailingEmptyLocked()
	s.resyncLocked()

	count := len(s.pages)
	countChanged := count != prevCount
	var curPage *Page
	if s.current >= 0 && s.current < len(s.pages) {
		curPage = s.pages[s.current]
	}
	currentChanged := curPage != prevCurrent && curPage != nil
	cbCount := s.onPageCountChange
	cbPage := s.onPageChange
	s.mu.Unlock()

	if countChanged && cbCount != nil {
		cbCount(count)
	}
	if currentChanged && cbPage != nil {
		cbPage(curPage)
	}
	return ok
}

func isStructural(k IntentKind) bool {
	switch k {
	case IntentAddPage, IntentRemovePage, IntentInsertBreak, IntentRemoveBreak:
		return true
	}
	return false
}

func isLine(k IntentKind) bool {
	return k == IntentAddLine || k == IntentRemoveLine
}

func isNavigation(k IntentKind) bool { return k == IntentNavigate }

func (s *Store) applyIntentLocked(in Intent) bool {
	switch in.Kind {
	case IntentAddPage:
		s.pages = append(s.pages, newPage(len(s.pages)))
		return true

	case IntentRemovePage:
		idx := s.pageIndexByIDLocked(in.PageID)
		if idx < 0 {
			s.log.Debug("stale intent: page gone", slog.String("intent", in.Kind.String()), slog.String("page", in.PageID))
			return false
		}
		if len(s.pages) <= 1 {
			s.log.Debug("remove page rejected: sole page", slog.String("page", in.PageID))
			return false
		}
		if len(s.pages[idx].Lines) > 0 {
			s.log.Debug("remove page rejected: page not empty", slog.String("page", in.PageID), slog.Int("lines", len(s.pages[idx].Lines)))
			return false
		}
		s.pages = append(s.pages[:idx], s.pages[idx+1:]...)
		return true

	case IntentAddLine:
		if _, _, found := s.findLineLocked(in.Line.ID); found {
			s.log.Debug("stale intent: line already present", slog.String("line", in.Line.ID))
			return false
		}
		if in.AnchorID != "" {
			pi, li, found := s.findLineLocked(in.AnchorID)
			if !found {
				s.log.Debug("stale intent: anchor gone", slog.String("anchor", in.AnchorID))
				return false
			}
			at := li + 1
			if in.Before {
				at = li
			}
			p := s.pages[pi]
			p.Lines = append(p.Lines, script.Line{})
			copy(p.Lines[at+1:], p.Lines[at:])
			p.Lines[at] = in.Line
			return true
		}
		target := in.PageIndex
		if target < 0 {
			target = 0
		}
		if target >= len(s.pages) {
			target = len(s.pages) - 1
		}
		p := s.pages[target]
		p.Lines = append(p.Lines, in.Line)
		return true

	case IntentRemoveLine:
		pi, li, found := s.findLineLocked(in.LineID)
		if !found {
			s.log.Debug("stale intent: line gone", slog.String("line", in.LineID))
			return false
		}
		p := s.pages[pi]
		p.Lines = append(p.Lines[:li], p.Lines[li+1:]...)
		return true

	case IntentNavigate:
		if in.PageIndex < 0 || in.PageIndex >= len(s.pages) {
			s.log.Debug("stale intent: navigate out of range", slog.Int("index", in.PageIndex))
			return false
		}
		s.current = in.PageIndex
		return true

	case IntentInsertBreak:
		pi, li, found := s.findLineLocked(in.AnchorID)
		if !found {
			s.log.Debug("stale intent: break anchor gone", slog.String("anchor", in.AnchorID))
			return false
		}
		p := s.pages[pi]
		if li == len(p.Lines)-1 {
			if p.BreakAfter {
				return true
			}
			p.BreakAfter = true
			p.breakID = uuid.NewString()
			return true
		}
		np := newPage(pi + 1)
		np.Lines = append(np.Lines, p.Lines[li+1:]...)
		np.BreakAfter, np.breakID = p.BreakAfter, p.breakID
		p.Lines = p.Lines[:li+1]
		p.BreakAfter = true
		p.breakID = uuid.NewString()
		s.pages = append(s.pages[:pi+1], append([]*Page{np}, s.pages[pi+1:]...)...)
		return true

	case IntentRemoveBreak:
		for _, p := range s.pages {
			if p.BreakAfter && p.breakID == in.BreakID {
				p.BreakAfter = false
				p.breakID = ""
				return true
			}
		}
		s.log.Debug("stale intent: break gone", slog.String("break", in.BreakID))
		return false
	}
	s.log.Warn("unknown intent kind", slog.Int("kind", int(in.Kind)))
	return false
}

// rebalanceLocked enforces the capacity invariant after a batch. Overflow
// cascades right: while a page holds more than the capacity, its tail line
// moves to the start of the next page, creating pages as needed. Spilling
// past a hard break inserts the spill page before the boundary (the break
// flag moves onto the spill page). Under-full pages then refill from the
// right, never pulling lines across a hard break; empty pages in the middle
// are absorbed.
func (s *Store) rebalanceLocked() {
	for i := 0; i < len(s.pages); i++ {
		p := s.pages[i]
		for len(p.Lines) > s.maxLines {
			next := s.spillTargetLocked(i, p)
			last := p.Lines[len(p.Lines)-1]
			p.Lines = p.Lines[:len(p.Lines)-1]
			next.Lines = append([]script.Line{last}, next.Lines...)
		}
		for !p.BreakAfter && len(p.Lines) < s.maxLines && i+1 < len(s.pages) {
			next := s.pages[i+1]
			if len(next.Lines) == 0 {
				p.BreakAfter = next.BreakAfter
				p.breakID = next.breakID
				s.pages = append(s.pages[:i+1], s.pages[i+2:]...)
				continue
			}
			p.Lines = append(p.Lines, next.Lines[0])
			next.Lines = next.Lines[1:]
		}
	}
}

func (s *Store) spillTargetLocked(i int, p *Page) *Page {
	if p.BreakAfter || i+1 >= len(s.pages) {
		np := newPage(i + 1)
		np.BreakAfter, np.breakID = p.BreakAfter, p.breakID
		p.BreakAfter, p.breakID = false, ""
		s.pages = append(s.pages[:i+1], append([]*Page{np}, s.pages[i+1:]...)...)
		return np
	}
	return s.pages[i+1]
}

func (s *Store) findLineLocked(lineID string) (pageIdx, lineIdx int, found bool) {
	if lineID == "" {
		return 0, 0, false
	}
	for pi, p := range s.pages {
		for li, l := range p.Lines {
			if l.ID == lineID {
				return pi, li, true
			}
		}
	}
	return 0, 0, false
}

func (s *Store) pageIndexByIDLocked(pageID string) int {
	for i, p := range s.pages {
		if p.ID == pageID {
			return i
		}
	}
	return -1
}
