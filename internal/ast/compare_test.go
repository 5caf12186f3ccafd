/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ast

import (
	"strings"
	"testing"
)

func TestCompareEqual(t *testing.T) {
	a := []Node{
		&SectionHeading{Text: "# Start", Anchor: "Start"},
		&Dialogue{Character: "GUIDE", Text: "Stay close."},
		&Jump{Target: "End"},
	}
	b := []Node{
		&SectionHeading{Text: "# Start", Anchor: "Start"},
		&Dialogue{Character: "GUIDE", Text: "Stay close."},
		&Jump{Target: "End"},
	}
	if diffs := Compare(a, b); len(diffs) != 0 {
		t.Fatalf("expected no diffs, got %v", diffs)
	}
}

func TestCompareIgnoresDepthAndWhitespace(t *testing.T) {
	a := []Node{&Action{Base: Base{Depth: 0}, Text: "Press on."}}
	b := []Node{&Action{Base: Base{Depth: 2}, Text: "  Press on.  "}}
	if diffs := Compare(a, b); len(diffs) != 0 {
		t.Fatalf("depth and padding must not count as drift: %v", diffs)
	}
}

func TestCompareCountMismatch(t *testing.T) {
	a := []Node{&Action{Text: "one"}, &Action{Text: "two"}}
	b := []Node{&Action{Text: "one"}}
	diffs := Compare(a, b)
	if len(diffs) == 0 || !strings.Contains(diffs[0], "node count mismatch") {
		t.Fatalf("unexpected diffs: %v", diffs)
	}
}

func TestCompareKindMismatch(t *testing.T) {
	a := []Node{&Action{Text: "hello"}}
	b := []Node{&Jump{Target: "hello"}}
	diffs := Compare(a, b)
	if len(diffs) != 1 || !strings.Contains(diffs[0], "kind mismatch") {
		t.Fatalf("unexpected diffs: %v", diffs)
	}
}

func TestCompareFieldMismatch(t *testing.T) {
	a := []Node{&Choice{Label: "Fight", Target: "Fight"}}
	b := []Node{&Choice{Label: "Fight", Target: "Run"}}
	diffs := Compare(a, b)
	if len(diffs) != 1 {
		t.Fatalf("expected 1 diff, got %v", diffs)
	}
	if !strings.Contains(diffs[0], `"target"`) {
		t.Fatalf("diff should name the target field: %s", diffs[0])
	}
}

func TestCompareFrontmatterVariables(t *testing.T) {
	a := []Node{&Frontmatter{Vars: []Var{
		{Name: "HP", Value: "100"},
		{Name: "player", Object: true, Children: []Var{{Name: "strength", Value: "10"}}},
	}}}
	same := []Node{&Frontmatter{Vars: []Var{
		{Name: "HP", Value: "100"},
		{Name: "player", Object: true, Children: []Var{{Name: "strength", Value: "10"}}},
	}}}
	if diffs := Compare(a, same); len(diffs) != 0 {
		t.Fatalf("expected equal frontmatter, got %v", diffs)
	}

	changed := []Node{&Frontmatter{Vars: []Var{
		{Name: "HP", Value: "90"},
		{Name: "player", Object: true, Children: []Var{{Name: "strength", Value: "10"}}},
	}}}
	if diffs := Compare(a, changed); len(diffs) != 1 {
		t.Fatalf("expected 1 diff for changed variable, got %v", diffs)
	}
}

func TestKindString(t *testing.T) {
	if KindDialogue.String() == "" || KindNone.String() == "" {
		t.Fatalf("kinds must have printable names")
	}
	if KindChoice.String() == KindJump.String() {
		t.Fatalf("kind names must be distinct")
	}
}
