/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package transpiler renders an AST into a target language's text form.
// All rendering state lives in an explicit Context threaded through the
// node switch, so a transpiler value itself is stateless and reusable.
package transpiler

import (
	"strings"

	"fountainflow/internal/ast"
	"fountainflow/internal/language"
)

// indent is the rendered width of one nesting level.
const indent = "    "

// Context carries the rendering state across nodes of one transpile pass.
type Context struct {
	// Indent is the current block nesting depth for indentation-based
	// targets. It only changes when the target language nests by
	// indentation.
	Indent int
	// LastWasSection reports whether the previous rendered node was a
	// scene or section heading.
	LastWasSection bool
}

// Transpiler renders ASTs for one target language.
type Transpiler struct {
	lang *language.Definition
}

// New returns a transpiler for the given target language.
func New(lang *language.Definition) *Transpiler {
	return &Transpiler{lang: lang}
}

// Transpile renders the node sequence into target text. Nodes that render
// to an empty string produce no output line.
func (t *Transpiler) Transpile(nodes []ast.Node) string {
	ctx := &Context{}
	var out []string
	for _, n := range nodes {
		line := t.render(n, ctx)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// render dispatches one node. The switch is exhaustive over the node kinds;
// an unknown kind renders to nothing rather than failing the whole pass.
func (t *Transpiler) render(n ast.Node, ctx *Context) string {
	r := &t.lang.Render
	switch node := n.(type) {
	case *ast.Frontmatter:
		return r.Frontmatter(node.Vars)
	case *ast.SceneHeading:
		ctx.LastWasSection = true
		return r.SceneHeading(node.SceneID, node.Text)
	case *ast.SectionHeading:
		ctx.LastWasSection = true
		return r.SectionHeading(node.Anchor, node.Text)
	case *ast.Action:
		ctx.LastWasSection = false
		return t.body(r.Action(node.Text), ctx)
	case *ast.Dialogue:
		ctx.LastWasSection = false
		return t.body(r.Dialogue(node.Character, node.Text, node.Parenthetical), ctx)
	case *ast.Asset:
		return t.body(r.Asset(node.Type, node.Data), ctx)
	case *ast.StateChange:
		return t.body(r.StateChange(node.Expression), ctx)
	case *ast.Logic:
		return t.logic(node, ctx)
	case *ast.Decision:
		line := r.Decision(node.Text)
		if t.lang.IndentationBased {
			line = pad(line, ctx.Indent)
			ctx.Indent++
		}
		return line
	case *ast.Choice:
		return t.body(r.Choice(node.Label, node.Text, node.Target), ctx)
	case *ast.Jump:
		return t.body(r.Jump(node.Target), ctx)
	}
	return ""
}

// logic handles the four conditional markers. For indentation-based targets
// the block boundary is expressed by adjusting ctx.Indent: if opens a
// level, elif/else re-open the current one, end closes it silently.
func (t *Transpiler) logic(node *ast.Logic, ctx *Context) string {
	r := &t.lang.Render
	switch {
	case node.End:
		if t.lang.IndentationBased {
			if ctx.Indent > 0 {
				ctx.Indent--
			}
			return ""
		}
		return r.LogicEnd()
	case node.Else:
		if t.lang.IndentationBased {
			if ctx.Indent > 0 {
				ctx.Indent--
			}
			line := pad(r.LogicElse(), ctx.Indent)
			ctx.Indent++
			return line
		}
		return r.LogicElse()
	case node.Elif:
		if t.lang.IndentationBased {
			if ctx.Indent > 0 {
				ctx.Indent--
			}
			line := pad(r.LogicElif(node.Condition), ctx.Indent)
			ctx.Indent++
			return line
		}
		return r.LogicElif(node.Condition)
	default:
		line := r.LogicStart(node.Condition)
		if t.lang.IndentationBased {
			line = pad(line, ctx.Indent)
			ctx.Indent++
		}
		return line
	}
}

// body indents plain content lines when the target nests by indentation and
// a block is open.
func (t *Transpiler) body(line string, ctx *Context) string {
	if t.lang.IndentationBased && ctx.Indent > 0 {
		return pad(line, ctx.Indent)
	}
	return line
}

func pad(line string, level int) string {
	if level <= 0 || line == "" {
		return line
	}
	return strings.Repeat(indent, level) + line
}
