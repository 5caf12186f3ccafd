/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ast

import (
	"fmt"
	"strings"
)

// Compare structurally diffs two node sequences and returns human-readable
// discrepancy strings. Depth is ignored on purpose: round-trip conversion may
// legitimately flatten indentation. An empty result means the sequences are
// structurally equal.
func Compare(original, roundtrip []Node) []string {
	var errs []string

	n := len(original)
	if len(roundtrip) != n {
		errs = append(errs, fmt.Sprintf("node count mismatch: original %d vs roundtrip %d", len(original), len(roundtrip)))
		if len(roundtrip) < n {
			n = len(roundtrip)
		}
	}

	for i := 0; i < n; i++ {
		a, b := original[i], roundtrip[i]
		if a.Kind() != b.Kind() {
			errs = append(errs, fmt.Sprintf("node %d kind mismatch: %s vs %s", i, a.Kind(), b.Kind()))
			continue
		}
		for _, f := range fields(a) {
			other := fieldValue(b, f.name)
			if strings.TrimSpace(f.value) != strings.TrimSpace(other) {
				errs = append(errs, fmt.Sprintf("node %d field %q mismatch: %q vs %q", i, f.name, f.value, other))
			}
		}
	}
	return errs
}

type field struct {
	name  string
	value string
}

// fields flattens a node into comparable (name, value) pairs, one case per
// kind. Depth is deliberately absent.
func fields(n Node) []field {
	switch v := n.(type) {
	case *Frontmatter:
		return []field{{"variables", FormatVars(v.Vars)}}
	case *SceneHeading:
		return []field{{"scene_id", v.SceneID}, {"text", v.Text}}
	case *SectionHeading:
		return []field{{"text", v.Text}, {"anchor", v.Anchor}}
	case *Action:
		return []field{{"text", v.Text}}
	case *Dialogue:
		return []field{{"character", v.Character}, {"text", v.Text}, {"parenthetical", v.Parenthetical}}
	case *Asset:
		return []field{{"type", v.Type}, {"data", v.Data}}
	case *StateChange:
		return []field{{"expression", v.Expression}}
	case *Logic:
		return []field{
			{"condition", v.Condition},
			{"elif", fmt.Sprintf("%t", v.Elif)},
			{"else", fmt.Sprintf("%t", v.Else)},
			{"end", fmt.Sprintf("%t", v.End)},
		}
	case *Decision:
		return []field{{"text", v.Text}}
	case *Choice:
		return []field{
			{"label", v.Label},
			{"text", v.Text},
			{"target", v.Target},
			{"conditions", strings.Join(v.Conditions, " && ")},
		}
	case *Jump:
		return []field{{"target", v.Target}}
	}
	return nil
}

func fieldValue(n Node, name string) string {
	for _, f := range fields(n) {
		if f.name == name {
			return f.value
		}
	}
	return ""
}

// FormatVars renders a frontmatter variable list into a canonical one-line
// form used for comparison and logging, e.g. `HP=100; player={hp=100, name=Hero}`.
func FormatVars(vars []Var) string {
	var b strings.Builder
	for i, v := range vars {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(v.Name)
		b.WriteString("=")
		if v.Object {
			b.WriteString("{")
			for j, c := range v.Children {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(c.Name)
				b.WriteString("=")
				b.WriteString(c.Value)
			}
			b.WriteString("}")
		} else {
			b.WriteString(v.Value)
		}
	}
	return b.String()
}
