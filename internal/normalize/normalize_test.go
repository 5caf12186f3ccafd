/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package normalize

import "testing"

func TestExpression(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"HP += 5", "$HP += 5"},
		{"player.hp > 50", "$player.hp > 50"},
		{"$HP += 5", "$HP += 5"},
		{"HP > 50 and brave", "$HP > 50 and $brave"},
		{"visited or not done", "$visited or not $done"},
		{"flag == true", "$flag == true"},
		{"roll = random(1, 6)", "$roll = random(1, 6)"},
		{"x = max( a, b )", "$x = max( $a, $b )"},
		{"_temp = 1", "$_temp = 1"},
	}
	for _, c := range cases {
		if got := Expression(c.in); got != c.want {
			t.Fatalf("Expression(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScriptRewritesOnlyExpressionLines(t *testing.T) {
	input := `$ HP: 100
$$ player
    $ strength: 10
===
# Start
The goblin has HP too, but this is prose.
~ HP -= 10
    ~ player.gold += 1
(IF: HP > 50)
Press on.
(ELIF: HP > 10)
(ELSE)
(END)`

	want := `$ HP: 100
$$ player
    $ strength: 10
===
# Start
The goblin has HP too, but this is prose.
~ $HP -= 10
    ~ $player.gold += 1
(IF: $HP > 50)
Press on.
(ELIF: $HP > 10)
(ELSE)
(END)`

	if got := Script(input); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestScriptLeavesFrontmatterAlone(t *testing.T) {
	input := "$ Mood: wary"
	if got := Script(input); got != input {
		t.Fatalf("frontmatter line changed: %q", got)
	}
}
