/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fountainflow/internal/domain"
)

func TestSearchAndWhereUsed(t *testing.T) {
	root := t.TempDir()
	// Initialize workspace to bootstrap index
	proj := domain.Project{Name: "Search Test"}
	ph, err := InitProject(root, proj)
	if err != nil || ph == nil {
		t.Fatalf("InitProject error: %v", err)
	}
	// Open DB directly
	idx := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idx))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Seed a few documents with distinct patterns
	// Use high doc_ids to avoid collisions
	seed := []struct {
		id      int
		typeStr string
		path    string
		lang    string
		section any
		char    any
		text    string
	}{
		{1001, "passage", "scripts/story.fflow#0", "fflow", "Caves", nil, "Caves"},
		{1002, "dialogue", "scripts/story.fflow#2", "fflow", "Caves", "bob", "Hello there"},
		{1003, "choice", "scripts/story.twee#7", "twee", "Start", nil, "Enter the caves"},
		{1004, "action", "scripts/story.twee#9", "twee", "Start", nil, "Waves crash on the beach, BOB watches"},
	}
	for _, s := range seed {
		_, err := db.ExecContext(ctx, `INSERT INTO documents(doc_id, type, path, lang, section, character_id, text) VALUES(?,?,?,?,?,?,?)`, s.id, s.typeStr, s.path, s.lang, s.section, s.char, s.text)
		if err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
	// Cross-ref: choice 1003 targets passage 1001
	if _, err := db.ExecContext(ctx, `INSERT INTO cross_refs(from_id, to_id) VALUES(?,?)`, 1003, 1001); err != nil {
		t.Fatalf("insert cross_ref: %v", err)
	}

	// 1) FTS search for term 'Hello'
	res, err := Search(ctx, root, SearchQuery{Text: "Hello"})
	if err != nil {
		t.Fatalf("search 1: %v", err)
	}
	if len(res) == 0 {
		t.Fatalf("expected results for 'Hello'")
	}
	found := false
	for _, r := range res {
		if r.DocID == 1002 {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected doc 1002 in results")
	}

	// 2) Section filter restricted to twee scripts
	res, err = Search(ctx, root, SearchQuery{Section: "Start", Langs: []string{"twee"}})
	if err != nil {
		t.Fatalf("search 2: %v", err)
	}
	want := map[int]bool{1003: true, 1004: true}
	for _, r := range res {
		delete(want, int(r.DocID))
	}
	if len(want) != 0 {
		t.Fatalf("missing expected docs after section+lang filter: %v", want)
	}

	// 3) Character filter 'bob' should find 1002 and 1004 (contains 'BOB')
	res, err = Search(ctx, root, SearchQuery{Character: "bob"})
	if err != nil {
		t.Fatalf("search 3: %v", err)
	}
	want = map[int]bool{1002: true, 1004: true}
	for _, r := range res {
		delete(want, int(r.DocID))
	}
	if len(want) != 0 {
		t.Fatalf("missing expected docs for character filter: %v", want)
	}

	// 4) Where-used from passage 1001 should return the choice 1003
	wused, err := WhereUsed(ctx, root, 1001, 100, 0)
	if err != nil {
		t.Fatalf("where-used: %v", err)
	}
	if len(wused) == 0 || wused[0].DocID != 1003 {
		t.Fatalf("expected where-used result 1003, got %+v", wused)
	}

	// 5) Anchor lookup resolves the passage then its references
	wused, err = WhereUsedByAnchor(ctx, root, "Caves", 100, 0)
	if err != nil {
		t.Fatalf("where-used by anchor: %v", err)
	}
	if len(wused) == 0 || wused[0].DocID != 1003 {
		t.Fatalf("expected anchor where-used result 1003, got %+v", wused)
	}
}
