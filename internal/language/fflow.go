/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package language

import (
	"fmt"
	"regexp"
	"strings"

	"fountainflow/internal/ast"
)

// newFFlow builds the FFlow definition: the screenplay-derived base format
// and the source of truth for the AST shape. FFlow stores expressions
// prefix-free, so parsing normalizes the marker away and rendering never adds
// one.
func newFFlow() *Definition {
	d := &Definition{
		Name:           "fflow",
		Extensions:     []string{".fflow"},
		HasFrontmatter: true,
		Patterns: []Pattern{
			// structural delimiters
			{Name: "frontmatter_end", Re: regexp.MustCompile(`^===\s*$`), Kind: ast.KindNone, Priority: 100},
			{Name: "frontmatter_parent", Re: regexp.MustCompile(`^\$\$\s*(\w+)`), Kind: ast.KindNone, Priority: 95},
			{Name: "frontmatter_var", Re: regexp.MustCompile(`^\$\s*(.+)`), Kind: ast.KindNone, Priority: 90},
			// directive lines
			{Name: "asset", Re: regexp.MustCompile(`^\s*!\s*(\w+):\s*(.+)`), Kind: ast.KindAsset, Priority: 80},
			{Name: "state_change", Re: regexp.MustCompile(`^\s*~\s*(.+)`), Kind: ast.KindStateChange, Priority: 75},
			{Name: "decision", Re: regexp.MustCompile(`^\s*\?\s*(.+)`), Kind: ast.KindDecision, Priority: 70},
			// branching constructs
			{Name: "choice_bracket", Re: regexp.MustCompile(`^\s*\+\s*\[(.+?)\]\s*(.*?)\s*->\s*#(.+)$`), Kind: ast.KindChoice, Priority: 66},
			{Name: "choice", Re: regexp.MustCompile(`^\s*\+\s*->(.+?)->\s*#(.+)$`), Kind: ast.KindChoice, Priority: 65},
			{Name: "jump", Re: regexp.MustCompile(`^\s*->\s*#(.+)`), Kind: ast.KindJump, Priority: 60},
			{Name: "inline_choice", Re: regexp.MustCompile(`^\s*\[(.*?)\|#(.+?)\]\s*$`), Kind: ast.KindChoice, Priority: 58},
			{Name: "implicit_choice", Re: regexp.MustCompile(`^\s*->\s*([^#].*?)->\s*#(.+)$`), Kind: ast.KindChoice, Priority: 55},
			// block-conditional markers
			{Name: "conditional_if", Re: regexp.MustCompile(`^\s*\(IF:\s*(.+)\)`), Kind: ast.KindLogic, Priority: 50},
			{Name: "conditional_elif", Re: regexp.MustCompile(`^\s*\(ELIF:\s*(.+)\)`), Kind: ast.KindLogic, Priority: 50},
			{Name: "conditional_else", Re: regexp.MustCompile(`^\s*\(ELSE\)`), Kind: ast.KindLogic, Priority: 50},
			{Name: "conditional_end", Re: regexp.MustCompile(`^\s*\(END\)`), Kind: ast.KindLogic, Priority: 50},
			// headings
			{Name: "section_heading", Re: regexp.MustCompile(`^\s*#\s*(.+)`), Kind: ast.KindSectionHeading, Priority: 45},
			{Name: "scene_heading", Re: regexp.MustCompile(`^(INT\.|EXT\.|EST\.|INT\./EXT\.|I/E)\s*(.+)`), Kind: ast.KindSceneHeading, Priority: 40},
			// parenthetical outranks character so "(beat)" never reads as a name
			{Name: "parenthetical", Re: regexp.MustCompile(`^\s*(\(.*\))\s*$`), Kind: ast.KindNone, Priority: 35},
			{Name: "character", Re: regexp.MustCompile(`^([A-Z0-9 ]*[A-Z0-9]+)(\s*\(.*\))?$`), Kind: ast.KindDialogue, Priority: 30},
		},

		NormalizeExpression: StripPrefix,
	}

	d.Render = Renderer{
		Frontmatter: func(vars []ast.Var) string {
			var lines []string
			for _, v := range vars {
				if v.Object {
					lines = append(lines, fmt.Sprintf("$$ %s", v.Name))
					for _, c := range v.Children {
						lines = append(lines, fmt.Sprintf("    $ %s: %s", c.Name, c.Value))
					}
					continue
				}
				lines = append(lines, fmt.Sprintf("$ %s: %s", v.Name, v.Value))
			}
			lines = append(lines, "===")
			return strings.Join(lines, "\n")
		},
		SceneHeading:   func(sceneID, text string) string { return text },
		SectionHeading: func(anchor, text string) string { return "# " + anchor },
		Action:         func(text string) string { return text },
		Dialogue: func(character, text, parenthetical string) string {
			if parenthetical != "" {
				return character + "\n" + parenthetical + "\n" + text
			}
			return character + "\n" + text
		},
		Asset:       func(assetType, data string) string { return fmt.Sprintf("! %s: %s", assetType, data) },
		StateChange: func(expression string) string { return "~ " + expression },
		LogicStart:  func(condition string) string { return fmt.Sprintf("(IF: %s)", condition) },
		LogicElif:   func(condition string) string { return fmt.Sprintf("(ELIF: %s)", condition) },
		LogicElse:   func() string { return "(ELSE)" },
		LogicEnd:    func() string { return "(END)" },
		Decision:    func(text string) string { return "? " + text },
		Choice: func(label, text, target string) string {
			// simplified link syntax wins over a separate description
			if target != "" {
				return fmt.Sprintf("+ ->%s->#%s", label, target)
			}
			return fmt.Sprintf("+ ->%s->#", label)
		},
		Jump: func(target string) string { return "-> #" + target },
	}

	return d.finish()
}
