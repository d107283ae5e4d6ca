/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// RemoteQuery mirrors the local search request for the archive service.
// Text uses Postgres plainto_tsquery semantics.
type RemoteQuery struct {
	Text    string
	Speaker string
	Formats []string
	Limit   int
	Offset  int
}

// RemoteResult is a single matched line in a stored script.
type RemoteResult struct {
	LineNo  int    `json:"line_no"`
	Format  string `json:"format"`
	Speaker string `json:"speaker"`
	Snippet string `json:"snippet"`
}

// SearchPG executes a search over the script_lines projection using tsvector
// with optional speaker/format filters. Shapes the output like the local
// embedded search so client code can treat both alike.
func SearchPG(ctx context.Context, db *sql.DB, scriptID int64, q RemoteQuery) ([]RemoteResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT l.line_no, l.format, COALESCE(l.speaker,''), ")
		b.WriteString("COALESCE(ts_headline('simple', COALESCE(l.raw_text,''), plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') AS snippet ")
		b.WriteString("FROM script_lines l WHERE l.script_id = $2 AND l.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, scriptID)
	} else {
		b.WriteString("SELECT l.line_no, l.format, COALESCE(l.speaker,''), '' AS snippet ")
		b.WriteString("FROM script_lines l WHERE l.script_id = $1 ")
		args = append(args, scriptID)
	}

	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Formats) > 0 {
		b.WriteString(" AND l.format = ANY (" + place(q.Formats) + ") ")
	}
	if s := strings.TrimSpace(q.Speaker); s != "" {
		b.WriteString(" AND lower(COALESCE(l.speaker,'')) = " + place(strings.ToLower(s)) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY l.line_no ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RemoteResult
	for rows.Next() {
		var r RemoteResult
		if err := rows.Scan(&r.LineNo, &r.Format, &r.Speaker, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
