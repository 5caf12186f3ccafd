/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"strings"

	"fountainflow/internal/ast"
	"fountainflow/internal/language"
)

// Parse runs the engine for a language plus that language's post-processing.
func Parse(text string, def *language.Definition) []ast.Node {
	nodes := New(def).Parse(text)
	if def.Name == "twee" {
		nodes = collapseStoryInit(nodes)
	}
	return nodes
}

// ParseFFlow parses FFlow screenplay text.
func ParseFFlow(text string) []ast.Node {
	return Parse(text, language.MustByName("fflow"))
}

// ParseTwee parses Twee/SugarCube text. A leading StoryInit passage made of
// set macros is folded back into a frontmatter node so the AST lines up
// with the FFlow representation of the same story.
func ParseTwee(text string) []ast.Node {
	return Parse(text, language.MustByName("twee"))
}

// ParseRenPy parses Ren'Py script text.
func ParseRenPy(text string) []ast.Node {
	return Parse(text, language.MustByName("renpy"))
}

// collapseStoryInit rewrites a leading StoryInit passage into a single
// frontmatter node. Only state changes before the next section heading are
// considered, and the rewrite happens only when at least one variable was
// recovered. Assignments without '=' are dropped along with the passage.
func collapseStoryInit(nodes []ast.Node) []ast.Node {
	if len(nodes) == 0 {
		return nodes
	}
	head, ok := nodes[0].(*ast.SectionHeading)
	if !ok || head.Text != language.StoryInitPassage {
		return nodes
	}

	var vars []ast.Var
	remove := map[int]bool{0: true}
	for i := 1; i < len(nodes); i++ {
		if nodes[i].Kind() == ast.KindSectionHeading {
			break
		}
		sc, isState := nodes[i].(*ast.StateChange)
		if !isState {
			continue
		}
		remove[i] = true
		name, value, found := strings.Cut(sc.Expression, "=")
		if !found {
			continue
		}
		name = strings.TrimPrefix(strings.TrimSpace(name), "$")
		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
			vars = append(vars, ast.Var{
				Name:     name,
				Object:   true,
				Children: splitObjectLiteral(value[1 : len(value)-1]),
			})
		} else {
			vars = append(vars, ast.Var{Name: name, Value: strings.Trim(value, `'"`)})
		}
	}
	if len(vars) == 0 {
		return nodes
	}

	out := make([]ast.Node, 0, len(nodes))
	out = append(out, &ast.Frontmatter{Vars: vars})
	for i, n := range nodes {
		if !remove[i] {
			out = append(out, n)
		}
	}
	return out
}

// splitObjectLiteral parses `key: value, key: value` pairs from a
// SugarCube object literal body. Nested braces are not handled; StoryInit
// objects written by the transpiler are always flat.
func splitObjectLiteral(body string) []ast.Var {
	var children []ast.Var
	for _, pair := range strings.Split(strings.TrimSpace(body), ",") {
		k, v, found := strings.Cut(pair, ":")
		if !found {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if len(v) >= 2 && ((v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'')) {
			v = v[1 : len(v)-1]
		}
		children = append(children, ast.Var{Name: k, Value: v})
	}
	return children
}
