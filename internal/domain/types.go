/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// This file defines the core data model for a FountainFlow workspace.
// A workspace groups one or more narrative scripts together with conversion
// defaults and serializes to a human-readable JSON manifest (story.json).

// Project represents a script workspace and its metadata.
type Project struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata,omitempty"`
	Scripts  []Script `json:"scripts"`
	Defaults Defaults `json:"defaults,omitempty"`
}

// Metadata contains optional descriptive metadata for a workspace.
type Metadata struct {
	Author string `json:"author,omitempty"`
	Series string `json:"series,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Script references a script file inside the workspace.
// Path is relative to the workspace root. Language names the script format
// (fflow, twee, renpy); when empty it is derived from the file extension.
type Script struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Defaults captures per-workspace conversion settings.
type Defaults struct {
	// Target is the default output format for conversions.
	Target string `json:"target,omitempty"`
	// Verify enables round-trip fidelity verification after conversion.
	Verify bool `json:"verify,omitempty"`
}

// Conversion describes one completed transpilation run between two formats.
// It is recorded in the workspace index for history and troubleshooting.
type Conversion struct {
	SourcePath string
	TargetPath string
	SourceLang string
	TargetLang string
	Verified   bool
	Lossless   bool
	Diffs      []string
	Timestamp  time.Time
}
