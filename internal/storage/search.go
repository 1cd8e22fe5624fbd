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
	"strings"
)

// SearchQuery describes a search over the project index.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Character matches the speaker of dialogue and parentheticals, case-insensitively.
// Types restricts to paragraph kinds like "Dialogue" or "Scene Heading", or "title".
// SceneFrom/To are inclusive 1-based scene numbers; 0 means unset.
// Limit/Offset implement pagination; a zero limit means 100.
type SearchQuery struct {
	Text      string
	Character string
	Types     []string
	SceneFrom int
	SceneTo   int
	Limit     int
	Offset    int
}

// SearchResult represents a single match row.
// Snippet is a highlighted excerpt using [ ] markers when Text is set, else the full text.
// Scene is 0 for project-level rows.
type SearchResult struct {
	DocID     int64
	Type      string
	Path      string
	Scene     int
	Character string
	Snippet   string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over documents with filters applied.
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
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, d.scene, d.character, snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, d.scene, d.character, d.text\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	switch {
	case q.SceneFrom > 0 && q.SceneTo > 0 && q.SceneTo >= q.SceneFrom:
		sb.WriteString(" AND d.scene BETWEEN ? AND ?\n")
		args = append(args, q.SceneFrom, q.SceneTo)
	case q.SceneFrom > 0:
		sb.WriteString(" AND d.scene >= ?\n")
		args = append(args, q.SceneFrom)
	case q.SceneTo > 0:
		sb.WriteString(" AND d.scene <= ?\n")
		args = append(args, q.SceneTo)
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND lower(d.character) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.scene NULLS FIRST, d.doc_id\n")
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
		var scene sql.NullInt64
		var character, sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &scene, &character, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Scene = int(scene.Int64)
		r.Character = character.String
		r.Snippet = sn.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Characters lists the distinct speakers in the index with their number of lines.
func Characters(ctx context.Context, projectRoot string) (map[string]int, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT character, COUNT(*) FROM documents
		WHERE character IS NOT NULL AND type = 'Dialogue'
		GROUP BY character`)
	if err != nil {
		return nil, fmt.Errorf("characters query: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[name] = n
	}
	return out, rows.Err()
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
