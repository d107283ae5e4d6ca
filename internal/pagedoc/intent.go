/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pagedoc

import (
	"errors"

	"goscreenwriter/internal/script"
)

var errInvalidCapacity = errors.New("pagedoc: max lines per page must be positive")

// IntentKind enumerates the primitive structural operations.
type IntentKind int

const (
	IntentAddPage IntentKind = iota
	IntentRemovePage
	IntentAddLine
	IntentRemoveLine
	IntentNavigate
	IntentInsertBreak
	IntentRemoveBreak
)

func (k IntentKind) String() string {
	switch k {
	case IntentAddPage:
		return "add-page"
	case IntentRemovePage:
		return "remove-page"
	case IntentAddLine:
		return "add-line"
	case IntentRemoveLine:
		return "remove-line"
	case IntentNavigate:
		return "navigate"
	case IntentInsertBreak:
		return "insert-break"
	case IntentRemoveBreak:
		return "remove-break"
	}
	return "unknown"
}

// Intent is one primitive, pre-validated operation. Intents are computed by
// the planner methods below without mutating the store, then handed to
// Apply as a batch.
type Intent struct {
	Kind      IntentKind
	Line      script.Line // AddLine payload
	LineID    string      // RemoveLine target
	AnchorID  string      // AddLine: insert relative to this line; InsertBreak: break after this line
	Before    bool        // AddLine: insert before the anchor instead of after
	PageID    string      // RemovePage target
	BreakID   string      // RemoveBreak: ID of the break marker
	PageIndex int         // AddLine target page; Navigate target
}

// PlanAddPage plans appending an empty page at the end.
func (s *Store) PlanAddPage() []Intent {
	return []Intent{{Kind: IntentAddPage}}
}

// PlanRemovePage plans removing p. The plan is empty when p is nil, not
// managed by this store, or the sole page; removing the sole page is never
// allowed.
func (s *Store) PlanRemovePage(p *Page) []Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || p == nil {
		return nil
	}
	if s.indexOfPage(p) < 0 || len(s.pages) <= 1 {
		return nil
	}
	return []Intent{{Kind: IntentRemovePage, PageID: p.ID}}
}

// PlanAddLine plans inserting line. The target page is resolved now, without
// mutation: the page containing anchorLineID when given and found, else the
// current page, else the last page. When an anchor is present the line is
// inserted directly after it; otherwise it is appended to the target page.
func (s *Store) PlanAddLine(line script.Line, anchorLineID string) []Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	target := len(s.pages) - 1
	anchor := ""
	if anchorLineID != "" {
		if idx, ok := s.lineIndex[anchorLineID]; ok {
			target = idx
			anchor = anchorLineID
		} else if s.current >= 0 && s.current < len(s.pages) {
			target = s.current
		}
	} else if s.current >= 0 && s.current < len(s.pages) {
		target = s.current
	}
	if target < 0 {
		target = 0
	}
	return []Intent{{Kind: IntentAddLine, Line: line, AnchorID: anchor, PageIndex: target}}
}

// PlanRemoveLine plans removing the line with the given ID.
func (s *Store) PlanRemoveLine(lineID string) []Intent {
	return []Intent{{Kind: IntentRemoveLine, LineID: lineID}}
}

// PlanNavigate plans selecting the page at the 0-based index.
func (s *Store) PlanNavigate(index int) []Intent {
	return []Intent{{Kind: IntentNavigate, PageIndex: index}}
}

// PlanInsertPageBreak plans forcing a hard page boundary directly after the
// line with the given ID, independent of capacity.
func (s *Store) PlanInsertPageBreak(afterLineID string) []Intent {
	return []Intent{{Kind: IntentInsertBreak, AnchorID: afterLineID}}
}

// PlanRemovePageBreak plans removing the hard boundary identified by the
// break marker ID (as reported in the flattened document).
func (s *Store) PlanRemovePageBreak(breakID string) []Intent {
	return []Intent{{Kind: IntentRemoveBreak, BreakID: breakID}}
}
