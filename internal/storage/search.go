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

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Types can restrict to kinds like: dialogue, action,
// passage, choice, jump, state_change, etc. Langs restricts to script formats
// (fflow, twee, renpy). Section matches the enclosing passage anchor or scene.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text      string
	Character string
	Section   string
	Types     []string
	Langs     []string
	Limit     int
	Offset    int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
// Section is empty for rows outside any passage.
// DocID can be used with WhereUsed to find referencing choices/jumps.
type SearchResult struct {
	DocID   int64
	Type    string
	Path    string
	Lang    string
	Section string
	Snippet string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over documents with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("workspace root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	// Build dynamic SQL
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, COALESCE(d.lang,''), COALESCE(d.section,''), snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, COALESCE(d.lang,''), COALESCE(d.section,''), ''\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	// Filters
	// Types filter (IN list)
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	// Language filter (IN list)
	if len(q.Langs) > 0 {
		sb.WriteString(" AND lower(d.lang) IN (" + placeholders(len(q.Langs)) + ")\n")
		for _, l := range q.Langs {
			args = append(args, strings.ToLower(strings.TrimSpace(l)))
		}
	}
	// Character filter: prefer exact character_id when populated, else fallback to text contains
	if s := strings.TrimSpace(q.Character); s != "" {
		ss := strings.ToLower(s)
		sb.WriteString(" AND ( (d.character_id IS NOT NULL AND lower(d.character_id)=?) OR lower(d.text) LIKE ? )\n")
		args = append(args, ss, likeContains(ss))
	}
	// Section filter: enclosing passage anchor/scene, or the heading row itself
	if s := strings.TrimSpace(q.Section); s != "" {
		ss := strings.ToLower(s)
		sb.WriteString(" AND ( lower(d.section)=? OR lower(d.section) LIKE ? )\n")
		args = append(args, ss, likeContains(ss))
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.doc_id\n")
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
		var sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &r.Lang, &r.Section, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WhereUsed returns documents that reference the given target document ID using cross_refs.
// For a passage heading this lists every choice and jump that targets its anchor.
func WhereUsed(ctx context.Context, projectRoot string, targetDocID int64, limit, offset int) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("workspace root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT d.doc_id, d.type, d.path, COALESCE(d.lang,''), COALESCE(d.section,''), ''
		FROM cross_refs x
		JOIN documents d ON d.doc_id = x.from_id
		WHERE x.to_id = ?
		ORDER BY d.doc_id
		LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, q, targetDocID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("where-used query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &r.Lang, &r.Section, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WhereUsedByAnchor resolves a passage heading by its anchor name then returns
// the choices and jumps referencing it.
func WhereUsedByAnchor(ctx context.Context, projectRoot string, anchor string, limit, offset int) ([]SearchResult, error) {
	if strings.TrimSpace(anchor) == "" {
		return nil, errors.New("anchor is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var id int64
	err = db.QueryRowContext(ctx, "SELECT doc_id FROM documents WHERE type='passage' AND section=?", anchor).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []SearchResult{}, nil
		}
		return nil, err
	}
	return WhereUsed(ctx, projectRoot, id, limit, offset)
}

func likeContains(s string) string { return "%" + s + "%" }

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
