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
	"os"
	"path/filepath"
	"testing"
	"time"

	"fountainflow/internal/domain"

	_ "modernc.org/sqlite"
)

func TestIndexInitCreatesWALAndMetaVersion(t *testing.T) {
	root := t.TempDir()
	// Initialize minimal workspace to trigger index init
	proj := domain.Project{Name: "Index Test"}
	ph, err := InitProject(root, proj)
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if ph == nil {
		t.Fatalf("expected workspace handle")
	}
	idxPath := IndexPath(root)
	if _, err := os.Stat(idxPath); err != nil {
		t.Fatalf("index file missing at %s: %v", idxPath, err)
	}
	// Open DB and verify journal mode and tables
	uriPath := filepath.ToSlash(idxPath)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	// Check meta/version tables exist
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 meta tables, got %d", cnt)
	}
	// Check core schema tables exist (including virtual table)
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('documents','fts_documents','cross_refs','conversions','script_snapshots')").Scan(&cnt); err != nil {
		t.Fatalf("query core tables: %v", err)
	}
	if cnt != 5 {
		t.Fatalf("expected 5 core tables, got %d", cnt)
	}
	// Insert a document with a high doc_id to avoid collisions and verify FTS triggers populate index
	if _, err := db.ExecContext(ctx, `INSERT INTO documents(doc_id, type, path, lang, section, character_id, text) VALUES(10001,'dialogue','scripts/story.fflow#1','fflow','Start','JOHN','hello world');`); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	var ftsCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fts_documents WHERE fts_documents MATCH 'hello' ").Scan(&ftsCount); err != nil {
		t.Fatalf("fts query: %v", err)
	}
	if ftsCount == 0 {
		t.Fatalf("expected FTS to find inserted document")
	}
}

func TestUpdateIndexParsesScripts(t *testing.T) {
	root := t.TempDir()
	proj := domain.Project{
		Name:    "Parsed Index",
		Scripts: []domain.Script{{Path: "scripts/story.fflow", Language: "fflow"}},
	}
	ph, err := InitProject(root, proj)
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	script := `# Start

JOHN
The caves are close.

+ ->Enter->#Caves

# Caves

The walls drip with water.

-> #Start
`
	if err := WriteScript(ph, "scripts/story.fflow", script); err != nil {
		t.Fatalf("WriteScript: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := UpdateIndex(ctx, root, proj); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}

	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()

	// Dialogue row carries character and enclosing section
	var section, char string
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(section,''), COALESCE(character_id,'') FROM documents WHERE type='dialogue'`).Scan(&section, &char); err != nil {
		t.Fatalf("dialogue row: %v", err)
	}
	if section != "Start" || char != "JOHN" {
		t.Fatalf("unexpected dialogue row: section=%q character=%q", section, char)
	}
	// Choice and jump rows link to the passage headings they target
	var refCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cross_refs`).Scan(&refCount); err != nil {
		t.Fatalf("cross_refs count: %v", err)
	}
	if refCount != 2 {
		t.Fatalf("expected 2 cross refs (choice and jump), got %d", refCount)
	}
}
