/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Formats restricts to line formats like dialog or
// header. Speaker filters dialog blocks by the speaking character.
// PageFrom/To are inclusive; 0 means unset.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	Speaker  string
	Formats  []string
	PageFrom int
	PageTo   int
	Limit    int
	Offset   int
}

// SearchResult represents a single matched line.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	LineID  string
	LineNo  int
	PageNo  int
	Format  string
	Speaker string
	Snippet string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over lines with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		// fts_lines is contentless (content=''), so snippet() would only
		// yield NULL; the excerpt is built from lines.text instead.
		sb.WriteString("SELECT l.line_id, l.line_no, l.page_no, l.format, COALESCE(l.speaker,''), l.text\n")
		sb.WriteString("FROM fts_lines JOIN lines l ON fts_lines.rowid = l.doc_id\n")
		sb.WriteString("WHERE fts_lines MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT l.line_id, l.line_no, l.page_no, l.format, COALESCE(l.speaker,''), NULL\n")
		sb.WriteString("FROM lines l\nWHERE 1=1\n")
	}
	if len(q.Formats) > 0 {
		sb.WriteString(" AND l.format IN (" + placeholders(len(q.Formats)) + ")\n")
		for _, f := range q.Formats {
			args = append(args, f)
		}
	}
	if q.PageFrom > 0 && q.PageTo > 0 && q.PageTo >= q.PageFrom {
		sb.WriteString(" AND l.page_no BETWEEN ? AND ?\n")
		args = append(args, q.PageFrom, q.PageTo)
	} else if q.PageFrom > 0 {
		sb.WriteString(" AND l.page_no >= ?\n")
		args = append(args, q.PageFrom)
	} else if q.PageTo > 0 {
		sb.WriteString(" AND l.page_no <= ?\n")
		args = append(args, q.PageTo)
	}
	if s := strings.TrimSpace(q.Speaker); s != "" {
		sb.WriteString(" AND lower(COALESCE(l.speaker,'')) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY l.line_no\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var text sql.NullString
		if err := rows.Scan(&r.LineID, &r.LineNo, &r.PageNo, &r.Format, &r.Speaker, &text); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if useFTS && text.Valid {
			r.Snippet = highlightExcerpt(text.String, q.Text)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// snippetContext bounds how many bytes of surrounding text an excerpt keeps
// on each side of the first highlighted match.
const snippetContext = 60

// highlightExcerpt wraps every occurrence of the query terms in [ ] markers
// and trims long lines to a window around the first match, marking cuts
// with an ellipsis.
func highlightExcerpt(text, query string) string {
	terms := queryTerms(query)
	lower := strings.ToLower(text)
	type span struct{ start, end int }
	var spans []span
	for _, t := range terms {
		lt := strings.ToLower(t)
		for from := 0; from < len(lower); {
			i := strings.Index(lower[from:], lt)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, span{start, start + len(lt)})
			from = start + len(lt)
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	var b strings.Builder
	pos := 0
	for _, s := range merged {
		b.WriteString(text[pos:s.start])
		b.WriteString("[")
		b.WriteString(text[s.start:s.end])
		b.WriteString("]")
		pos = s.end
	}
	b.WriteString(text[pos:])
	marked := b.String()

	first := strings.IndexByte(marked, '[')
	start, end := 0, len(marked)
	if first > snippetContext {
		start = first - snippetContext
		for start < len(marked) && !utf8.RuneStart(marked[start]) {
			start++
		}
	}
	if end-first > 2*snippetContext {
		end = first + 2*snippetContext
		for end > first && !utf8.RuneStart(marked[end]) {
			end--
		}
	}
	out := marked[start:end]
	if start > 0 {
		out = "…" + out
	}
	if end < len(marked) {
		out = out + "…"
	}
	return out
}

// queryTerms extracts the plain terms from an FTS5 match expression,
// dropping operators, parentheses, quotes and prefix stars.
func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(query) {
		f = strings.Trim(f, `"'()`)
		f = strings.TrimSuffix(f, "*")
		switch f {
		case "", "AND", "OR", "NOT", "NEAR":
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
