/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package language

import (
	"regexp"
	"strings"
)

// PrefixMarker is the sigil mandatory-prefix formats (Twee/SugarCube) put in
// front of every variable reference. FFlow's internal convention omits it.
const PrefixMarker = '$'

// reserved words never receive the prefix marker; checked case-insensitively
// against the leading component of a dotted path.
var reserved = map[string]struct{}{
	"true":   {},
	"false":  {},
	"null":   {},
	"random": {},
	"and":    {},
	"or":     {},
	"not":    {},
}

var stripRe = regexp.MustCompile(`\$([a-zA-Z_][\w.]*)`)

// AddPrefix rewrites an expression so every variable reference carries the
// prefix marker. The scan is left to right: an identifier starts at a letter
// or underscore and extends over letters, digits, underscores and dots (so
// `a.b.c` stays one path). Identifiers already preceded by the marker, names
// followed by `(` (function calls), and reserved words pass through
// untouched. Everything that is not an identifier is copied verbatim, which
// makes StripPrefix an exact inverse for marker-free input.
func AddPrefix(expr string) string {
	var b strings.Builder
	b.Grow(len(expr) + 8)
	i := 0
	for i < len(expr) {
		ch := expr[i]
		if !isIdentStart(ch) {
			b.WriteByte(ch)
			i++
			continue
		}
		hasMarker := i > 0 && expr[i-1] == PrefixMarker
		j := i
		for j < len(expr) && isIdentPart(expr[j]) {
			j++
		}
		ident := expr[i:j]

		// function call check: skip whitespace, look for '('
		k := j
		for k < len(expr) && (expr[k] == ' ' || expr[k] == '\t') {
			k++
		}
		isCall := k < len(expr) && expr[k] == '('

		head := ident
		if dot := strings.IndexByte(ident, '.'); dot >= 0 {
			head = ident[:dot]
		}
		_, isReserved := reserved[strings.ToLower(head)]

		if !hasMarker && !isCall && !isReserved {
			b.WriteByte(PrefixMarker)
		}
		b.WriteString(ident)
		i = j
	}
	return b.String()
}

// StripPrefix deletes the prefix marker wherever it immediately precedes an
// identifier start. Inverse of AddPrefix for expressions without bare
// reserved words.
func StripPrefix(expr string) string {
	return stripRe.ReplaceAllString(expr, "$1")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '.' || (c >= '0' && c <= '9')
}
