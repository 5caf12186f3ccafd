/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package language

import "testing"

func TestAddPrefix(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"HP += 5", "$HP += 5"},
		{"player.hp > 50", "$player.hp > 50"},
		{"$HP += 5", "$HP += 5"},
		{"HP > 50 and player.brave", "$HP > 50 and $player.brave"},
		{"not done or visited", "not $done or $visited"},
		{"flag == true", "$flag == true"},
		{"dead != False", "$dead != False"},
		{"roll = random(1, 6)", "$roll = random(1, 6)"},
		{"x = clamp(hp, 0, 100)", "$x = clamp($hp, 0, 100)"},
		{"_scratch += 1", "$_scratch += 1"},
		{"a.b.c == d", "$a.b.c == $d"},
		{"", ""},
		{"42 + 7", "42 + 7"},
	}
	for _, c := range cases {
		if got := AddPrefix(c.in); got != c.want {
			t.Fatalf("AddPrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStripPrefix(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"$HP += 5", "HP += 5"},
		{"$player.hp > 50", "player.hp > 50"},
		{"HP += 5", "HP += 5"},
		{"$HP > 50 and $player.brave", "HP > 50 and player.brave"},
		{"$_local = 1", "_local = 1"},
	}
	for _, c := range cases {
		if got := StripPrefix(c.in); got != c.want {
			t.Fatalf("StripPrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// Strip(Add(x)) must return x for any expression whose variables are all
// unprefixed to begin with.
func TestPrefixInverse(t *testing.T) {
	exprs := []string{
		"HP += 5",
		"player.hp > 50 and brave",
		"roll = random(1, 6)",
		"flag == true or not done",
	}
	for _, e := range exprs {
		if got := StripPrefix(AddPrefix(e)); got != e {
			t.Fatalf("StripPrefix(AddPrefix(%q)) = %q", e, got)
		}
	}
}
