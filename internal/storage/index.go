/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fountainflow/internal/ast"
	"fountainflow/internal/domain"
	"fountainflow/internal/language"
	applog "fountainflow/internal/log"
	"fountainflow/internal/parser"
	"fountainflow/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-workspace ephemeral/index data under the workspace root.
	IndexDirName  = ".fflow"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the workspace's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-workspace SQLite index exists at .fflow/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers may close it when no longer needed.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("workspace root is required")
	}
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .fflow dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .fflow dir: %w", err)
	}

	path := IndexPath(projectRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Ensure WAL mode is active.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	// Enforce foreign keys just in case future schema uses them.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	// Ensure core index schema exists (documents, FTS, cross-refs, conversions, snapshots)
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	// Run migrations to bring DB schema up to date
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	// Create tables if not exist
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	// Check if a version row exists
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Insert new row with current schemaVersion for a fresh DB
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; just log and continue
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add helpful indexes for cross-refs and optimize FTS
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_cross_refs_to ON cross_refs(to_id);`,
				`CREATE INDEX IF NOT EXISTS idx_cross_refs_from ON cross_refs(from_id);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			// Best-effort FTS optimize (outside the tx)
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_documents(fts_documents) VALUES('optimize')`); err != nil {
				// best-effort optimize; ignore errors
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Core documents table: one row per indexed script node (dialogue,
		// action, passage heading, choice, jump, state change, ...).
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id       INTEGER PRIMARY KEY,
			type         TEXT    NOT NULL,
			path         TEXT    NOT NULL,
			lang         TEXT,
			section      TEXT,
			character_id TEXT,
			text         TEXT
		);`,
		// Helpful indices for lookup
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_section ON documents(section);`,

		// Contentless FTS5 index fed from documents via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Cross references between documents: which choices/jumps point at
		// which passage anchors (where-used for branching structure).
		`CREATE TABLE IF NOT EXISTS cross_refs (
			from_id INTEGER NOT NULL,
			to_id   INTEGER NOT NULL,
			PRIMARY KEY(from_id, to_id),
			FOREIGN KEY(from_id) REFERENCES documents(doc_id) ON DELETE CASCADE,
			FOREIGN KEY(to_id)   REFERENCES documents(doc_id) ON DELETE CASCADE
		);`,

		// Conversion history (one row per transpilation run)
		`CREATE TABLE IF NOT EXISTS conversions (
			id          INTEGER PRIMARY KEY,
			ts          TEXT    NOT NULL,
			source_path TEXT    NOT NULL,
			target_path TEXT    NOT NULL,
			source_lang TEXT    NOT NULL,
			target_lang TEXT    NOT NULL,
			verified    INTEGER NOT NULL DEFAULT 0,
			lossless    INTEGER NOT NULL DEFAULT 0,
			diffs       TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_ts ON conversions(ts);`,

		// Script snapshots (history of script text per file for change tracking)
		`CREATE TABLE IF NOT EXISTS script_snapshots (
			id    INTEGER PRIMARY KEY,
			path  TEXT    NOT NULL,
			ts    TEXT    NOT NULL,
			text  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_snapshots_path_ts ON script_snapshots(path, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	// Triggers for contentless FTS synchronization with documents.text
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) (bool, error) {
	path := IndexPath(projectRoot)
	// Try to open DB; if fails, attempt backup+delete+rebuild
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, projectRoot, proj); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	// quick_check for corruption
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	// Probe core table
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM documents LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	// Backup and remove existing DB file
	backupIndexFile(path)
	_ = os.Remove(path)
	// Rebuild
	if err := RebuildIndex(ctx, projectRoot, proj); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .fflow/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty performs a minimal background index build if the index has no user content.
// It ensures the DB exists and, if the documents table is empty, populates it from the
// manifest and the workspace's script files.
func BuildIndexIfEmpty(ctx context.Context, projectRoot string, proj domain.Project) error {
	// Ensure the DB exists and is initialized
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	// Check if documents has any rows
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents;").Scan(&cnt); err != nil {
		return fmt.Errorf("check documents count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildDocumentsFromScripts(ctx, db, projectRoot, proj)
}

// UpdateIndex updates the embedded index with changes from the workspace.
// Minimal safe implementation: replace the documents content from the manifest's scripts.
func UpdateIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildDocumentsFromScripts(ctx, db, projectRoot, proj)
}

// RebuildIndex drops and recreates core index tables and rebuilds content from the scripts.
// It preserves meta/version and conversion history. This is a safe operation; the
// document index is derived from story.json and the script files.
func RebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	// Drop core tables inside a transaction and recreate schema
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TABLE IF EXISTS cross_refs;",
		"DROP TRIGGER IF EXISTS documents_ai;",
		"DROP TRIGGER IF EXISTS documents_ad;",
		"DROP TRIGGER IF EXISTS documents_au;",
		"DROP TABLE IF EXISTS documents;",
		"DROP TABLE IF EXISTS fts_documents;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	// Recreate schema and populate
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildDocumentsFromScripts(ctx, db, projectRoot, proj)
}

// docRow is one pending documents insert plus the anchors it references.
type docRow struct {
	typeStr     string
	path        string
	lang        string
	section     sql.NullString
	characterID sql.NullString
	text        string
	// anchor is set for passage headings so references can resolve to them.
	anchor string
	// refs holds anchor names this row points at (choice/jump targets).
	refs []string
}

// scriptDefinition resolves the language definition for a manifest script,
// preferring the declared language and falling back to the file extension.
func scriptDefinition(s domain.Script) (*language.Definition, bool) {
	reg := language.Default()
	if strings.TrimSpace(s.Language) != "" {
		return reg.ByName(s.Language)
	}
	return reg.ByExtension(filepath.Ext(s.Path))
}

// rebuildDocumentsFromScripts replaces the documents table content from the given
// manifest: each listed script file is parsed and indexed node by node, and
// cross_refs is repopulated with choice/jump target links.
func rebuildDocumentsFromScripts(ctx context.Context, db *sql.DB, projectRoot string, proj domain.Project) error {
	rows := make([]docRow, 0, 256)
	// Workspace-level metadata
	if s := strings.TrimSpace(proj.Name); s != "" {
		rows = append(rows, docRow{typeStr: "project_name", path: "project:name", text: s})
	}
	if s := strings.TrimSpace(proj.Metadata.Series); s != "" {
		rows = append(rows, docRow{typeStr: "project_series", path: "project:series", text: s})
	}
	if s := strings.TrimSpace(proj.Metadata.Author); s != "" {
		rows = append(rows, docRow{typeStr: "project_author", path: "project:author", text: s})
	}
	if s := strings.TrimSpace(proj.Metadata.Notes); s != "" {
		rows = append(rows, docRow{typeStr: "project_notes", path: "project:notes", text: s})
	}

	for _, sc := range proj.Scripts {
		def, ok := scriptDefinition(sc)
		if !ok {
			continue // unknown format; nothing to index
		}
		b, err := os.ReadFile(filepath.Join(projectRoot, filepath.FromSlash(sc.Path)))
		if err != nil {
			continue // missing script files are not fatal for indexing
		}
		rows = append(rows, scriptRows(sc.Path, def, parser.Parse(string(b), def))...)
	}

	// Write in a transaction: clear documents and cross_refs, insert new rows,
	// then resolve anchor references.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cross_refs;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear cross_refs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear documents: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO documents(type, path, lang, section, character_id, text) VALUES(?,?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()

	anchorIDs := make(map[string]int64) // anchor name -> heading doc_id
	type pendingRef struct {
		fromID int64
		anchor string
	}
	var refs []pendingRef
	for _, r := range rows {
		res, err := ins.ExecContext(ctx, r.typeStr, r.path, r.lang, r.section, r.characterID, r.text)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("document id: %w", err)
		}
		if r.anchor != "" {
			anchorIDs[r.anchor] = id
		}
		for _, a := range r.refs {
			refs = append(refs, pendingRef{fromID: id, anchor: a})
		}
	}
	for _, ref := range refs {
		toID, ok := anchorIDs[ref.anchor]
		if !ok {
			continue // dangling target; the consumer resolves anchors, not us
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO cross_refs(from_id, to_id) VALUES(?,?);", ref.fromID, toID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert cross_ref: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// scriptRows converts one parsed script into documents rows. Each row's path
// is "<script path>#<node index>"; passage headings also record their anchor so
// choice and jump rows can link to them.
func scriptRows(scriptPath string, def *language.Definition, nodes []ast.Node) []docRow {
	out := make([]docRow, 0, len(nodes))
	section := ""
	for i, n := range nodes {
		r := docRow{
			lang: def.Name,
			path: fmt.Sprintf("%s#%d", scriptPath, i),
		}
		switch v := n.(type) {
		case *ast.Frontmatter:
			r.typeStr = "frontmatter"
			r.text = ast.FormatVars(v.Vars)
		case *ast.SceneHeading:
			section = v.Text
			r.typeStr = "scene"
			r.text = v.Text
		case *ast.SectionHeading:
			section = v.Anchor
			r.typeStr = "passage"
			r.text = v.Text
			r.anchor = v.Anchor
		case *ast.Dialogue:
			r.typeStr = "dialogue"
			r.characterID = sql.NullString{String: v.Character, Valid: true}
			r.text = v.Text
		case *ast.Action:
			r.typeStr = "action"
			r.text = v.Text
		case *ast.Asset:
			r.typeStr = "asset"
			r.text = v.Type + " " + v.Data
		case *ast.StateChange:
			r.typeStr = "state_change"
			r.text = v.Expression
		case *ast.Decision:
			r.typeStr = "decision"
			r.text = v.Text
		case *ast.Choice:
			r.typeStr = "choice"
			r.text = strings.TrimSpace(v.Label + " " + v.Text)
			if v.Target != "" {
				r.refs = []string{v.Target}
			}
		case *ast.Jump:
			r.typeStr = "jump"
			r.text = v.Target
			if v.Target != "" {
				r.refs = []string{v.Target}
			}
		default:
			continue // logic edges carry no searchable text
		}
		if section != "" {
			r.section = sql.NullString{String: section, Valid: true}
		}
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
