/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transpiler

import (
	"strings"
	"testing"

	"fountainflow/internal/ast"
	"fountainflow/internal/parser"
)

func TestToTweeBasics(t *testing.T) {
	input := `$ HP: 100
===
# Start
You wake in a cave.
~ HP -= 10
+ [Fight] Fight the goblin. -> #Fight
-> #End`

	got := ToTwee(parser.ParseFFlow(input))
	for _, want := range []string{
		":: StoryInit",
		"<<set $HP to 100>>",
		":: Start",
		"You wake in a cave.",
		"<<set $HP -= 10>>",
		"[[Fight the goblin.|Fight]]",
		"[[Continue|End]]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestToTweeConditionPrefixes(t *testing.T) {
	input := `(IF: HP > 50 and player.brave)
Press on.
(END)`

	got := ToTwee(parser.ParseFFlow(input))
	if !strings.Contains(got, "<<if $HP > 50 and $player.brave>>") {
		t.Fatalf("condition not prefixed:\n%s", got)
	}
	if !strings.Contains(got, "<<endif>>") {
		t.Fatalf("missing explicit end marker:\n%s", got)
	}
}

func TestToRenPyIndentation(t *testing.T) {
	input := `# Cave
(IF: HP > 50)
Press on.
(ELSE)
Turn back.
(END)
After the fork.`

	got := ToRenPy(parser.ParseFFlow(input))
	want := `label cave:
if HP > 50:
    "Press on."
else:
    "Turn back."
"After the fork."`
	if got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestToRenPyMenuIndentsChoices(t *testing.T) {
	input := `? What do you do
+ ->Fight->#Fight
+ ->Run->#Run`

	got := ToRenPy(parser.ParseFFlow(input))
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", got)
	}
	if lines[0] != "menu:" {
		t.Fatalf("unexpected menu line: %q", lines[0])
	}
	// choice body carries the menu level plus its own item indent
	if lines[1] != `        "Fight":` {
		t.Fatalf("unexpected choice line: %q", lines[1])
	}
}

func TestToRenPyEndMarkerEmitsNothing(t *testing.T) {
	nodes := []ast.Node{
		&ast.Logic{Condition: "hp > 0"},
		&ast.Action{Text: "Fine."},
		&ast.Logic{End: true},
		&ast.Action{Text: "Done."},
	}
	got := ToRenPy(nodes)
	want := `if hp > 0:
    "Fine."
"Done."`
	if got != want {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestToFFlowFrontmatterRoundTrip(t *testing.T) {
	input := `$ HP: 100
$$ player
    $ strength: 10
===
# Start`

	nodes := parser.ParseFFlow(input)
	rendered := ToFFlow(nodes)
	reparsed := parser.ParseFFlow(rendered)
	if diffs := ast.Compare(nodes, reparsed); len(diffs) != 0 {
		t.Fatalf("round trip not stable: %v\nrendered:\n%s", diffs, rendered)
	}
}

// Fidelity is judged in the source format's own space: the target text is
// parsed, rendered back to the source language, reparsed there and compared
// against the source AST. Comparing the foreign AST directly would flag the
// $-prefix convention as drift.
func TestFFlowToTweeRoundTrip(t *testing.T) {
	input := `$ HP: 100
$$ player
    $ strength: 10
    $ name: Rook
===
# Start
You wake in a cave.
GUIDE
Stay close to me.

~ HP -= 10
(IF: HP > 50)
Press on.
(ELSE)
Turn back.
(END)
+ ->Fight->#Fight
-> #End
# End`

	original := parser.ParseFFlow(input)
	twee := ToTwee(original)
	intermediate := parser.ParseTwee(twee)
	final := parser.ParseFFlow(ToFFlow(intermediate))
	if diffs := ast.Compare(original, final); len(diffs) != 0 {
		t.Fatalf("fflow->twee round trip drift: %v\ntwee:\n%s", diffs, twee)
	}
}

func TestTweeToFFlowRoundTrip(t *testing.T) {
	input := `:: StoryInit
<<set $HP to 100>>

:: Start
You wake in a cave.
**GUIDE**: Stay close.
<<set $HP -= 10>>
<<if $HP > 50>>
Press on.
<<endif>>
[[Fight the goblin.|Fight]]
[[Continue|End]]

:: End
It is over.`

	original := parser.ParseTwee(input)
	fflow := ToFFlow(original)
	intermediate := parser.ParseFFlow(fflow)
	final := parser.ParseTwee(ToTwee(intermediate))
	if diffs := ast.Compare(original, final); len(diffs) != 0 {
		t.Fatalf("twee->fflow round trip drift: %v\nfflow:\n%s", diffs, fflow)
	}
}

func TestEmptyRenderDropsLine(t *testing.T) {
	nodes := []ast.Node{&ast.Logic{End: true}}
	if got := ToRenPy(nodes); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
