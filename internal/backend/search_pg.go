/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fountainflow/internal/storage"
)

// SearchPG runs a search against the Postgres documents table for one
// workspace, honoring the same query semantics as the local SQLite index.
func SearchPG(ctx context.Context, db *sql.DB, workspaceID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	if db == nil {
		return nil, fmt.Errorf("nil db")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	args := []any{workspaceID}
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var sel strings.Builder
	text := strings.TrimSpace(q.Text)
	if text != "" {
		sel.WriteString(`SELECT d.id, d.doc_type, d.external_ref, d.lang, d.section,
       ts_headline('simple', d.raw_text, plainto_tsquery('simple', `)
		sel.WriteString(place(text))
		sel.WriteString(`), 'StartSel=[, StopSel=], MaxFragments=1') AS snippet
  FROM documents d
 WHERE d.workspace_id = $1
   AND d.search_vector @@ plainto_tsquery('simple', `)
		sel.WriteString(place(text))
		sel.WriteString(`)`)
	} else {
		sel.WriteString(`SELECT d.id, d.doc_type, d.external_ref, d.lang, d.section, d.raw_text AS snippet
  FROM documents d
 WHERE d.workspace_id = $1`)
	}

	if len(q.Types) > 0 {
		ph := make([]string, 0, len(q.Types))
		for _, t := range q.Types {
			ph = append(ph, place(strings.ToLower(strings.TrimSpace(t))))
		}
		sel.WriteString(" AND lower(d.doc_type) IN (" + strings.Join(ph, ",") + ")")
	}
	if len(q.Langs) > 0 {
		ph := make([]string, 0, len(q.Langs))
		for _, l := range q.Langs {
			ph = append(ph, place(strings.ToLower(strings.TrimSpace(l))))
		}
		sel.WriteString(" AND lower(d.lang) IN (" + strings.Join(ph, ",") + ")")
	}
	if c := strings.TrimSpace(q.Character); c != "" {
		lc := strings.ToLower(c)
		sel.WriteString(" AND (lower(d.character_id) = " + place(lc) +
			" OR lower(d.raw_text) LIKE " + place("%"+lc+"%") + ")")
	}
	if s := strings.TrimSpace(q.Section); s != "" {
		ls := strings.ToLower(s)
		sel.WriteString(" AND (lower(d.section) = " + place(ls) +
			" OR lower(d.section) LIKE " + place("%"+ls+"%") + ")")
	}

	sel.WriteString(" ORDER BY d.id")
	sel.WriteString(" LIMIT " + place(limit))
	sel.WriteString(" OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, sel.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &r.Lang, &r.Section, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
