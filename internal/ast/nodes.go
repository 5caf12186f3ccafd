/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ast defines the node model shared by all narrative script formats.
// A parsed script is an ordered []Node; order is the narrative structure and
// must never be reordered by consumers. Nodes are built by the parser and are
// read-only afterwards.
package ast

// Kind enumerates the closed set of node kinds. Dispatch over nodes is done
// with an exhaustive switch on Kind so a new kind surfaces every place that
// has to learn about it.
type Kind int

const (
	KindNone Kind = iota // pattern matched but yields no node
	KindFrontmatter
	KindSceneHeading
	KindSectionHeading
	KindAction
	KindDialogue
	KindAsset
	KindStateChange
	KindLogic
	KindDecision
	KindChoice
	KindJump
)

// String returns the stable name of the kind, used in diffs and logs.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFrontmatter:
		return "frontmatter"
	case KindSceneHeading:
		return "scene_heading"
	case KindSectionHeading:
		return "section_heading"
	case KindAction:
		return "action"
	case KindDialogue:
		return "dialogue"
	case KindAsset:
		return "asset"
	case KindStateChange:
		return "state_change"
	case KindLogic:
		return "logic"
	case KindDecision:
		return "decision"
	case KindChoice:
		return "choice"
	case KindJump:
		return "jump"
	}
	return "unknown"
}

// Node is one line or block of narrative structure.
type Node interface {
	Kind() Kind
	// NodeDepth is the structural nesting level derived from source
	// indentation (4 columns per level).
	NodeDepth() int
}

// Base carries the depth shared by every node kind. Embed it.
type Base struct {
	Depth int
}

// NodeDepth implements the depth half of Node for all kinds.
func (b Base) NodeDepth() int { return b.Depth }

// Var is one frontmatter entry. Entries keep source order so rendering is
// deterministic; a Go map would not be. One level of nesting is supported:
// when Object is true, Children holds the grouped scalars and Value is empty.
type Var struct {
	Name     string
	Value    string
	Object   bool
	Children []Var
}

// Frontmatter is the initial-state declaration block. At most one per script,
// and for FFlow it is always the first node.
type Frontmatter struct {
	Base
	Vars []Var
}

// SceneHeading is a standard screenplay scene heading (INT./EXT. ...).
type SceneHeading struct {
	Base
	SceneID string
	Text    string
}

// SectionHeading is a named anchor used as a jump/choice target.
type SectionHeading struct {
	Base
	Text   string
	Anchor string
}

// Action is a free descriptive text line; also the fallback for any line no
// pattern recognizes.
type Action struct {
	Base
	Text string
}

// Dialogue is a character line with spoken text and an optional
// parenthetical stage direction (kept with its surrounding parentheses).
type Dialogue struct {
	Base
	Character     string
	Text          string
	Parenthetical string
}

// Asset is an asset cue: a category tag (BG, SHOW, MUSIC, ...) plus payload.
type Asset struct {
	Base
	Type string
	Data string
}

// StateChange is a single state mutation expression, stored opaquely
// (e.g. "hp += 5").
type StateChange struct {
	Base
	Expression string
}

// Logic is one edge of a conditional block. All three flags unset means the
// if-start; Condition is empty for else/end edges.
type Logic struct {
	Base
	Condition string
	Elif      bool
	Else      bool
	End       bool
}

// Decision is a branch prompt preceding a run of choices.
type Decision struct {
	Base
	Text string
}

// Choice is one selectable branch. Target is a logical anchor name; anchor
// resolution is the consumer's job, not ours. Conditions carries optional
// guard expressions.
type Choice struct {
	Base
	Label      string
	Text       string
	Target     string
	Conditions []string
}

// Jump is an unconditional transfer to an anchor.
type Jump struct {
	Base
	Target string
}

func (*Frontmatter) Kind() Kind    { return KindFrontmatter }
func (*SceneHeading) Kind() Kind   { return KindSceneHeading }
func (*SectionHeading) Kind() Kind { return KindSectionHeading }
func (*Action) Kind() Kind         { return KindAction }
func (*Dialogue) Kind() Kind       { return KindDialogue }
func (*Asset) Kind() Kind          { return KindAsset }
func (*StateChange) Kind() Kind    { return KindStateChange }
func (*Logic) Kind() Kind          { return KindLogic }
func (*Decision) Kind() Kind       { return KindDecision }
func (*Choice) Kind() Kind         { return KindChoice }
func (*Jump) Kind() Kind           { return KindJump }
