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
	"errors"
	"strings"
	"time"

	"fountainflow/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertConversionSQL = `INSERT INTO conversions(ts, source_path, target_path, source_lang, target_lang, verified, lossless, diffs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listConversionsSQL = `SELECT ts, source_path, target_path, source_lang, target_lang, verified, lossless, diffs
FROM conversions ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldConversionsSQL = `DELETE FROM conversions WHERE id NOT IN (
	SELECT id FROM conversions ORDER BY ts DESC LIMIT ?
)`

// RecordConversion appends one transpilation run to the workspace history.
func RecordConversion(ctx context.Context, ph *ProjectHandle, c domain.Conversion) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = db.ExecContext(ctx, insertConversionSQL,
		ts.UTC().Format(time.RFC3339Nano),
		c.SourcePath, c.TargetPath, c.SourceLang, c.TargetLang,
		boolToInt(c.Verified), boolToInt(c.Lossless),
		strings.Join(c.Diffs, "\n"))
	return err
}

// ListConversions returns up to limit most recent conversion runs, newest first.
func ListConversions(ctx context.Context, ph *ProjectHandle, limit int) ([]domain.Conversion, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listConversionsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Conversion
	for rows.Next() {
		var c domain.Conversion
		var tsStr, diffs string
		var verified, lossless int
		if err := rows.Scan(&tsStr, &c.SourcePath, &c.TargetPath, &c.SourceLang, &c.TargetLang, &verified, &lossless, &diffs); err != nil {
			return nil, err
		}
		c.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
		c.Verified = verified != 0
		c.Lossless = lossless != 0
		if diffs != "" {
			c.Diffs = strings.Split(diffs, "\n")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneOldConversions keeps at most keepLast history rows and deletes older ones.
func PruneOldConversions(ctx context.Context, ph *ProjectHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldConversionsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
