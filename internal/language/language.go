/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package language bundles everything format-specific: the pattern rules the
// parser dispatches on, the expression transforms that move variables between
// prefix conventions, and the render hooks the transpiler calls per node
// kind. The parser and transpiler engines stay format-agnostic; adding a
// format means writing one more Definition and registering it.
package language

import (
	"regexp"
	"sort"

	"fountainflow/internal/ast"
)

// Pattern is one named syntax rule. Kind names the node the parser builds
// from a match; KindNone marks rules that are recognized but emit nothing on
// their own (frontmatter markers, parentheticals). Higher priority wins when
// several rules could match the same line shape.
type Pattern struct {
	Name     string
	Re       *regexp.Regexp
	Kind     ast.Kind
	Priority int
}

// Renderer holds one render hook per node kind. Hooks return surface syntax
// for the fields of that kind; indentation for indentation-based targets is
// applied by the transpiler, not here.
type Renderer struct {
	Frontmatter    func(vars []ast.Var) string
	SceneHeading   func(sceneID, text string) string
	SectionHeading func(anchor, text string) string
	Action         func(text string) string
	Dialogue       func(character, text, parenthetical string) string
	Asset          func(assetType, data string) string
	StateChange    func(expression string) string
	LogicStart     func(condition string) string
	LogicElif      func(condition string) string
	LogicElse      func() string
	LogicEnd       func() string
	Decision       func(text string) string
	Choice         func(label, text, target string) string
	Jump           func(target string) string
}

// Definition is a complete language description.
type Definition struct {
	Name       string
	Extensions []string

	// HasFrontmatter enables the dedicated $/$$ frontmatter sub-parser
	// (FFlow only).
	HasFrontmatter bool
	// IndentationBased targets nest blocks by indentation instead of
	// explicit end markers; the transpiler tracks depth for them.
	IndentationBased bool

	Patterns []Pattern

	// TransformExpression converts an expression into this language's
	// variable convention (e.g. adds the $ prefix for Twee). Nil means
	// identity.
	TransformExpression func(string) string
	// TransformCondition does the same for conditional expressions.
	TransformCondition func(string) string
	// NormalizeExpression strips this language's variable prefix so the
	// AST stores the prefix-free convention. Nil means identity.
	NormalizeExpression func(string) string

	Render Renderer

	byName map[string]*Pattern
}

// finish sorts patterns descending by priority (stable, so insertion order
// breaks ties) and builds the name index. Called once per definition at
// construction.
func (d *Definition) finish() *Definition {
	sort.SliceStable(d.Patterns, func(i, j int) bool {
		return d.Patterns[i].Priority > d.Patterns[j].Priority
	})
	d.byName = make(map[string]*Pattern, len(d.Patterns))
	for i := range d.Patterns {
		d.byName[d.Patterns[i].Name] = &d.Patterns[i]
	}
	return d
}

// Pattern returns a rule by name, or nil when the language has no such rule.
func (d *Definition) Pattern(name string) *Pattern {
	return d.byName[name]
}

// Normalize applies NormalizeExpression when the language defines one.
func (d *Definition) Normalize(expr string) string {
	if d.NormalizeExpression == nil {
		return expr
	}
	return d.NormalizeExpression(expr)
}
