/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ScriptFilePath resolves a manifest script path (workspace-relative, slash
// separated) to an absolute path on disk. A bare file name is placed under the
// scripts subfolder.
func ScriptFilePath(ph *ProjectHandle, rel string) string {
	rel = filepath.FromSlash(rel)
	if filepath.Dir(rel) == "." {
		rel = filepath.Join("scripts", rel)
	}
	return filepath.Join(ph.Root, rel)
}

// ReadScript returns the content of the given workspace script.
// A missing file yields an empty string without error.
func ReadScript(ph *ProjectHandle, rel string) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	b, err := os.ReadFile(ScriptFilePath(ph, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

// WriteScript writes script content transactionally: temp file in the target
// directory, then rename over the destination.
func WriteScript(ph *ProjectHandle, rel, content string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if strings.TrimSpace(rel) == "" {
		return errors.New("script path is required")
	}
	path := ScriptFilePath(ph, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure script dir: %w", err)
	}
	temp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, []byte(content)); err != nil {
		return fmt.Errorf("write temp script: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace script: %w", err)
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory manifest to a timestamped file in
// the backups folder without touching story.json. Used by the crash handler so
// a panic never loses unsaved workspace state.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	data, err := json.MarshalIndent(ph.Project, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("crash-%s.%s.json", ManifestFileName, stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
