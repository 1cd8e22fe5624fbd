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

	"goscreenwriter/internal/storage"
)

// SearchPG executes a search over the Postgres documents table using tsvector and filters
// and returns results mapped to storage.SearchResult to ease parity checks with the local index.
func SearchPG(ctx context.Context, db *sql.DB, screenplayID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	if strings.TrimSpace(q.Text) != "" {
		b.WriteString("SELECT d.id, d.doc_type, d.external_ref, COALESCE(d.scene_num,0), COALESCE(d.speaker,''), ")
		b.WriteString("COALESCE(ts_headline('simple', d.raw_text, plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM documents d WHERE d.screenplay_id = $2 AND d.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, screenplayID)
	} else {
		b.WriteString("SELECT d.id, d.doc_type, d.external_ref, COALESCE(d.scene_num,0), COALESCE(d.speaker,''), d.raw_text ")
		b.WriteString("FROM documents d WHERE d.screenplay_id = $1 ")
		args = append(args, screenplayID)
	}

	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Types) > 0 {
		b.WriteString(" AND d.doc_type = ANY (" + place(q.Types) + ") ")
	}
	switch {
	case q.SceneFrom > 0 && q.SceneTo > 0 && q.SceneTo >= q.SceneFrom:
		b.WriteString(" AND d.scene_num BETWEEN " + place(q.SceneFrom) + " AND " + place(q.SceneTo) + " ")
	case q.SceneFrom > 0:
		b.WriteString(" AND d.scene_num >= " + place(q.SceneFrom) + " ")
	case q.SceneTo > 0:
		b.WriteString(" AND d.scene_num <= " + place(q.SceneTo) + " ")
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		b.WriteString(" AND lower(d.speaker) = " + place(strings.ToLower(s)) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY d.scene_num NULLS FIRST, d.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &r.Scene, &r.Character, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
