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

// buildNode maps a matched pattern to its node. The mapping is keyed on the
// pattern name so several surface syntaxes can feed one node kind, e.g. the
// Twee macros and the Ren'Py statements both produce assets. A nil return
// means the match carries no content and scanning falls through to the next
// pattern.
func buildNode(name string, m []string, line string, depth int, lang *language.Definition) ast.Node {
	base := ast.Base{Depth: depth}
	switch name {
	// -------- assets --------
	case "asset":
		return &ast.Asset{Base: base, Type: strings.ToUpper(m[1]), Data: strings.TrimSpace(m[2])}
	case "macro_bg", "scene":
		return &ast.Asset{Base: base, Type: "BG", Data: strings.TrimSpace(m[1])}
	case "macro_show", "show":
		return &ast.Asset{Base: base, Type: "SHOW", Data: strings.TrimSpace(m[1])}
	case "macro_audio":
		return &ast.Asset{Base: base, Type: "MUSIC", Data: strings.TrimSpace(m[1])}

	// -------- state --------
	case "state_change":
		return &ast.StateChange{Base: base, Expression: lang.Normalize(strings.TrimSpace(m[1]))}
	case "macro_set":
		op := m[2]
		if op == "to" {
			op = "="
		}
		expr := "$" + m[1] + " " + op + " " + m[3]
		return &ast.StateChange{Base: base, Expression: lang.Normalize(expr)}
	case "var_assign":
		return &ast.StateChange{Base: base, Expression: m[1] + " = " + strings.TrimSpace(m[2])}

	// -------- decisions and choices --------
	case "decision":
		return &ast.Decision{Base: base, Text: strings.TrimSpace(m[1])}
	case "menu":
		return &ast.Decision{Base: base, Text: "Choice"}
	case "choice_bracket":
		return &ast.Choice{
			Base:   base,
			Label:  strings.TrimSpace(m[1]),
			Text:   strings.TrimSpace(m[2]),
			Target: strings.TrimSpace(m[3]),
		}
	case "choice":
		return &ast.Choice{Base: base, Label: strings.TrimSpace(m[1]), Target: strings.TrimSpace(m[2])}
	case "implicit_choice", "inline_choice":
		return &ast.Choice{Base: base, Label: m[1], Target: m[2]}
	case "link":
		label := m[1]
		target := label
		if len(m) > 2 && m[2] != "" {
			target = m[2]
		}
		if strings.EqualFold(strings.TrimSpace(label), "continue") {
			return &ast.Jump{Base: base, Target: target}
		}
		return &ast.Choice{Base: base, Label: label, Target: target}

	// -------- flow --------
	case "jump", "macro_goto":
		return &ast.Jump{Base: base, Target: strings.TrimSpace(m[1])}
	case "conditional_if", "macro_if", "if":
		return &ast.Logic{Base: base, Condition: lang.Normalize(strings.TrimSpace(m[1]))}
	case "conditional_elif", "macro_elseif":
		return &ast.Logic{Base: base, Condition: lang.Normalize(strings.TrimSpace(m[1])), Elif: true}
	case "conditional_else", "macro_else", "else":
		return &ast.Logic{Base: base, Else: true}
	case "conditional_end", "macro_endif":
		return &ast.Logic{Base: base, End: true}

	// -------- structure --------
	case "scene_heading":
		return &ast.SceneHeading{Base: base, SceneID: "SCENE", Text: line}
	case "section_heading":
		return &ast.SectionHeading{Base: base, Text: line, Anchor: strings.TrimSpace(m[1])}
	case "label", "passage":
		t := strings.TrimSpace(m[1])
		return &ast.SectionHeading{Base: base, Text: t, Anchor: t}

	// -------- dialogue (single-line forms) --------
	case "dialogue":
		return &ast.Dialogue{Base: base, Character: strings.TrimSpace(m[1]), Text: strings.TrimSpace(m[2])}
	}
	return nil
}
