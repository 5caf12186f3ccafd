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

// newRenPy builds the Ren'Py definition. Ren'Py nests blocks by indentation,
// so it has no end-of-block render hook output; the transpiler tracks depth
// instead. Expressions are plain Python, no variable prefix.
func newRenPy() *Definition {
	d := &Definition{
		Name:             "renpy",
		Extensions:       []string{".rpy"},
		IndentationBased: true,
		Patterns: []Pattern{
			{Name: "label", Re: regexp.MustCompile(`^label\s+(\w+):`), Kind: ast.KindSectionHeading, Priority: 90},
			{Name: "var_assign", Re: regexp.MustCompile(`^\$\s*(\w+)\s*=\s*(.+)`), Kind: ast.KindStateChange, Priority: 85},
			{Name: "scene", Re: regexp.MustCompile(`^scene\s+(.+)`), Kind: ast.KindAsset, Priority: 80},
			{Name: "show", Re: regexp.MustCompile(`^show\s+(.+)`), Kind: ast.KindAsset, Priority: 80},
			{Name: "menu", Re: regexp.MustCompile(`^menu:`), Kind: ast.KindDecision, Priority: 75},
			{Name: "jump", Re: regexp.MustCompile(`^jump\s+(\w+)`), Kind: ast.KindJump, Priority: 70},
			{Name: "if", Re: regexp.MustCompile(`^if\s+(.+):`), Kind: ast.KindLogic, Priority: 65},
			{Name: "else", Re: regexp.MustCompile(`^else:`), Kind: ast.KindLogic, Priority: 65},
			{Name: "dialogue", Re: regexp.MustCompile(`^(\w+)\s+"(.+)"`), Kind: ast.KindDialogue, Priority: 60},
			{Name: "action", Re: regexp.MustCompile(`^"(.+)"`), Kind: ast.KindAction, Priority: 55},
		},
	}

	d.Render = Renderer{
		Frontmatter: func(vars []ast.Var) string {
			var lines []string
			for _, v := range vars {
				if v.Object {
					parts := make([]string, 0, len(v.Children))
					for _, c := range v.Children {
						parts = append(parts, fmt.Sprintf("%q: %s", c.Name, c.Value))
					}
					lines = append(lines, fmt.Sprintf("$ %s = { %s }", v.Name, strings.Join(parts, ", ")))
					continue
				}
				lines = append(lines, fmt.Sprintf("$ %s = %s", v.Name, v.Value))
			}
			return strings.Join(lines, "\n")
		},
		SceneHeading: func(sceneID, text string) string {
			safe := strings.ToLower(strings.NewReplacer(" ", "_", ".", "_", "-", "_").Replace(text))
			return "label " + safe + ":"
		},
		SectionHeading: func(anchor, text string) string {
			safe := strings.ToLower(strings.ReplaceAll(anchor, " ", "_"))
			return "label " + safe + ":"
		},
		Action: func(text string) string { return `"` + text + `"` },
		Dialogue: func(character, text, parenthetical string) string {
			// parentheticals have no Ren'Py equivalent and are dropped
			return strings.ToLower(character) + ` "` + text + `"`
		},
		Asset: func(assetType, data string) string {
			switch strings.ToUpper(assetType) {
			case "BG":
				return "scene " + data
			case "SHOW":
				return "show " + data
			case "MUSIC", "SFX":
				return fmt.Sprintf("play music %q", data)
			}
			return fmt.Sprintf("# Asset: %s: %s", assetType, data)
		},
		StateChange: func(expression string) string { return "$ " + expression },
		LogicStart:  func(condition string) string { return "if " + condition + ":" },
		LogicElif:   func(condition string) string { return "elif " + condition + ":" },
		LogicElse:   func() string { return "else:" },
		LogicEnd:    func() string { return "" }, // indentation closes the block
		Decision:    func(text string) string { return "menu:" },
		Choice: func(label, text, target string) string {
			return fmt.Sprintf("    %q:", label)
		},
		Jump: func(target string) string {
			return "jump " + strings.ToLower(strings.ReplaceAll(target, " ", "_"))
		},
	}

	return d.finish()
}
