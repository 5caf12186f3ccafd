/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package normalize rewrites FFlow scripts so every variable reference in
// an expression carries the $ prefix. Prefixed scripts survive conversion
// to prefix-mandatory targets like SugarCube without guesswork about which
// words are variables.
package normalize

import (
	"regexp"
	"strings"

	"fountainflow/internal/language"
)

var (
	stateChangeLineRe = regexp.MustCompile(`^(\s*~\s+)(.+)$`)
	conditionLineRe   = regexp.MustCompile(`^(\s*\((?:IF|ELIF):\s+)(.+)(\).*)$`)
)

// Expression adds the $ prefix to unprefixed variables in one expression.
func Expression(expr string) string {
	return language.AddPrefix(expr)
}

// Script normalizes a whole FFlow script. Only expression positions are
// rewritten: state change lines and IF/ELIF conditions. Frontmatter,
// display text and everything else pass through untouched.
func Script(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "===" ||
			strings.HasPrefix(line, "$$") ||
			(strings.HasPrefix(trimmed, "$") && strings.Contains(line, ":")) {
			out = append(out, line)
			continue
		}
		if m := stateChangeLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, m[1]+Expression(m[2]))
			continue
		}
		if m := conditionLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, m[1]+Expression(m[2])+m[3])
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
