/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package parser turns raw script text into an AST using a language
// definition's pattern rules. The engine is line-oriented: one line per
// iteration except for the multi-line constructs (dialogue blocks and the
// FFlow frontmatter block). It never fails on content — a line no pattern
// recognizes degrades to an action node.
package parser

import (
	"regexp"
	"strings"

	"fountainflow/internal/ast"
	"fountainflow/internal/language"
)

// indentWidth is the number of columns per structural nesting level.
const indentWidth = 4

// structuralStops are the pattern names that terminate a dialogue body
// during lookahead. The terminating line is left for normal reprocessing.
var structuralStops = []string{"section_heading", "asset", "state_change", "choice"}

var (
	indentRe        = regexp.MustCompile(`^\s*`)
	parentheticalRe = regexp.MustCompile(`^\s*(\(.*\))\s*$`)
	fmParentRe      = regexp.MustCompile(`^\$\$\s*(\w+)`)
)

// Engine parses one language. It holds no per-parse state; Parse may be
// called concurrently.
type Engine struct {
	lang *language.Definition
}

// New returns an engine for the given language definition.
func New(lang *language.Definition) *Engine {
	return &Engine{lang: lang}
}

// Parse converts script text into an ordered node sequence. Unrecognized
// lines become action nodes, never errors.
func (e *Engine) Parse(text string) []ast.Node {
	s := &scan{
		lang:      e.lang,
		lines:     strings.Split(text, "\n"),
		parentIdx: -1,
	}
	return s.run()
}

// scan is the mutable state of a single parse pass.
type scan struct {
	lang  *language.Definition
	lines []string
	nodes []ast.Node

	inFrontmatter bool
	vars          []ast.Var
	parentIdx     int // index into vars of the active $$ parent, -1 when none
}

func (s *scan) run() []ast.Node {
	idx := 0
	for idx < len(s.lines) {
		raw := s.lines[idx]
		depth := len(indentRe.FindString(raw)) / indentWidth
		line := strings.TrimSpace(raw)
		if line == "" {
			idx++
			continue
		}

		if s.lang.HasFrontmatter && s.frontmatterLine(line, depth) {
			idx++
			continue
		}

		matched := false
		consumedDialogue := false
		for i := range s.lang.Patterns {
			p := &s.lang.Patterns[i]
			m := p.Re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if p.Kind == ast.KindDialogue && p.Name == "character" {
				node, next, ok := s.dialogueLookahead(idx, line, depth)
				if !ok {
					continue // no dialogue body; let later patterns or the fallback take it
				}
				s.nodes = append(s.nodes, node)
				idx = next
				matched = true
				consumedDialogue = true
				break
			}
			node := buildNode(p.Name, m, line, depth, s.lang)
			if node == nil {
				continue
			}
			s.nodes = append(s.nodes, node)
			matched = true
			break
		}

		if !matched {
			s.nodes = append(s.nodes, &ast.Action{Base: ast.Base{Depth: depth}, Text: line})
		}
		if !consumedDialogue {
			idx++
		}
	}
	return s.nodes
}

// frontmatterLine handles the FFlow $/$$ frontmatter block. It reports
// whether the line was consumed. Frontmatter mode activates implicitly on
// the first $-line when nothing has been emitted yet, and ends at `===`,
// which emits the single frontmatter node.
func (s *scan) frontmatterLine(line string, depth int) bool {
	if line == "===" && s.inFrontmatter {
		s.inFrontmatter = false
		s.nodes = append(s.nodes, &ast.Frontmatter{Base: ast.Base{Depth: depth}, Vars: s.vars})
		s.vars = nil
		s.parentIdx = -1
		return true
	}

	if !strings.HasPrefix(line, "$") || strings.Contains(line, "===") {
		return false
	}
	if !s.inFrontmatter {
		if len(s.nodes) > 0 {
			return false
		}
		s.inFrontmatter = true
	}

	if strings.HasPrefix(line, "$$") {
		m := fmParentRe.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		s.vars = append(s.vars, ast.Var{Name: m[1], Object: true})
		s.parentIdx = len(s.vars) - 1
		return true
	}

	body := strings.TrimLeft(line, "$")
	key, value, found := strings.Cut(body, ":")
	if !found {
		// malformed entry: consumed and dropped, no diagnostic
		return true
	}
	v := ast.Var{Name: strings.TrimSpace(key), Value: unquote(strings.TrimSpace(value))}
	if s.parentIdx >= 0 {
		s.vars[s.parentIdx].Children = append(s.vars[s.parentIdx].Children, v)
	} else {
		s.vars = append(s.vars, v)
	}
	return true
}

// dialogueLookahead consumes a dialogue block starting at the character
// line: an optional parenthetical, then non-empty lines joined with single
// spaces until a blank line or a structural line. The terminating line is
// not consumed; next is the index the caller should continue at. ok is
// false when no non-empty line follows the character name.
func (s *scan) dialogueLookahead(idx int, characterLine string, depth int) (ast.Node, int, bool) {
	if idx+1 >= len(s.lines) || strings.TrimSpace(s.lines[idx+1]) == "" {
		return nil, idx, false
	}

	next := idx + 1
	parenthetical := ""
	if m := parentheticalRe.FindStringSubmatch(strings.TrimSpace(s.lines[next])); m != nil {
		parenthetical = m[1]
		next++
	}

	var body []string
	for next < len(s.lines) {
		dline := strings.TrimSpace(s.lines[next])
		if dline == "" || s.structural(dline) {
			break
		}
		body = append(body, dline)
		next++
	}

	node := &ast.Dialogue{
		Base:          ast.Base{Depth: depth},
		Character:     characterLine,
		Text:          strings.Join(body, " "),
		Parenthetical: parenthetical,
	}
	return node, next, true
}

func (s *scan) structural(line string) bool {
	for _, name := range structuralStops {
		if p := s.lang.Pattern(name); p != nil && p.Re.MatchString(line) {
			return true
		}
	}
	return false
}

// unquote strips one pair of matching surrounding quotes, single or double.
func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
