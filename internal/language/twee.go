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
	"strconv"
	"strings"

	"fountainflow/internal/ast"
)

// StoryInitPassage is the reserved Twee passage that holds initial state;
// the Twee parser wrapper collapses it back into a frontmatter node.
const StoryInitPassage = "StoryInit"

var (
	tweeInlineJumpRe = regexp.MustCompile(`^(.+?)\s*->\s*#(.+)$`)
	// candidate variable references inside display text: _locals plus the
	// object roots the sample stories use.
	tweeDisplayVarRe = regexp.MustCompile(`(_\w+|(?:player|goblin)\.\w+)`)
)

// newTwee builds the Twee/SugarCube definition. SugarCube requires the $
// prefix on every story variable, so rendering runs expressions through
// AddPrefix and parsing keeps the prefix for the FFlow side to normalize.
func newTwee() *Definition {
	d := &Definition{
		Name:       "twee",
		Extensions: []string{".twee", ".tw"},
		Patterns: []Pattern{
			// passage marker is the structural anchor of the format
			{Name: "passage", Re: regexp.MustCompile(`^::\s*(.+)`), Kind: ast.KindSectionHeading, Priority: 100},
			{Name: "macro_set", Re: regexp.MustCompile(`<<set\s+\$([\w.]+)\s*(to|=|\+=|-=|\*=|/=)\s*(.+)>>`), Kind: ast.KindStateChange, Priority: 90},
			{Name: "macro_if", Re: regexp.MustCompile(`^\s*<<if\s+(.+?)>>\s*$`), Kind: ast.KindLogic, Priority: 80},
			{Name: "macro_elseif", Re: regexp.MustCompile(`^\s*<<elseif\s+(.+?)>>\s*$`), Kind: ast.KindLogic, Priority: 80},
			{Name: "macro_else", Re: regexp.MustCompile(`<<else>>`), Kind: ast.KindLogic, Priority: 80},
			{Name: "macro_endif", Re: regexp.MustCompile(`<<(?:endif|/if)>>`), Kind: ast.KindLogic, Priority: 80},
			{Name: "macro_goto", Re: regexp.MustCompile(`<<goto\s+"(.+)">>`), Kind: ast.KindJump, Priority: 80},
			{Name: "macro_bg", Re: regexp.MustCompile(`<<bg\s+"(.+)">>`), Kind: ast.KindAsset, Priority: 75},
			{Name: "macro_show", Re: regexp.MustCompile(`<<show\s+"(.+)">>`), Kind: ast.KindAsset, Priority: 75},
			{Name: "macro_audio", Re: regexp.MustCompile(`<<audio\s+"(.+)"\s+play>>`), Kind: ast.KindAsset, Priority: 75},
			{Name: "macro_run", Re: regexp.MustCompile(`<<run\s+(.+)>>`), Kind: ast.KindNone, Priority: 70},
			{Name: "link", Re: regexp.MustCompile(`\[\[(.*?)(?:\|(.*?))?\]\]`), Kind: ast.KindChoice, Priority: 65},
			{Name: "img_tag", Re: regexp.MustCompile(`<img src="(.+)">`), Kind: ast.KindAsset, Priority: 60},
			{Name: "dialogue", Re: regexp.MustCompile(`\*\*(.+?)\*\*:(.+)`), Kind: ast.KindDialogue, Priority: 50},
		},

		TransformExpression: AddPrefix,
		TransformCondition:  AddPrefix,
	}

	d.Render = Renderer{
		Frontmatter: func(vars []ast.Var) string {
			lines := []string{":: " + StoryInitPassage}
			for _, v := range vars {
				if v.Object {
					parts := make([]string, 0, len(v.Children))
					for _, c := range v.Children {
						parts = append(parts, fmt.Sprintf("%s: %s", c.Name, tweeLiteral(c.Value)))
					}
					lines = append(lines, fmt.Sprintf("<<set $%s to { %s }>>", v.Name, strings.Join(parts, ", ")))
					continue
				}
				lines = append(lines, fmt.Sprintf("<<set $%s to %s>>", v.Name, v.Value))
			}
			lines = append(lines, "") // blank line closes the passage
			return strings.Join(lines, "\n")
		},
		SceneHeading: func(sceneID, text string) string {
			safe := strings.NewReplacer(".", "", " ", "_", "-", "_").Replace(text)
			return ":: " + safe
		},
		SectionHeading: func(anchor, text string) string {
			return ":: " + tweeSafeName(anchor)
		},
		Action: func(text string) string {
			// "text -> #target" becomes text plus an explicit goto
			if m := tweeInlineJumpRe.FindStringSubmatch(text); m != nil {
				action := addDisplayPrefixes(strings.TrimSpace(m[1]))
				return fmt.Sprintf("%s\n<<goto \"%s\">>", action, tweeSafeName(strings.TrimSpace(m[2])))
			}
			return addDisplayPrefixes(text)
		},
		Dialogue: func(character, text, parenthetical string) string {
			if parenthetical != "" {
				return fmt.Sprintf("**%s** %s: %s", character, parenthetical, text)
			}
			return fmt.Sprintf("**%s**: %s", character, text)
		},
		Asset: func(assetType, data string) string {
			switch strings.ToUpper(assetType) {
			case "BG":
				return fmt.Sprintf("<<run $('body').addClass('%s')>>", data)
			case "SHOW":
				return fmt.Sprintf("<img src=\"%s.png\">", data)
			case "MUSIC", "SFX":
				return fmt.Sprintf("<<audio \"%s\" play>>", data)
			}
			return fmt.Sprintf("<!-- Asset: %s: %s -->", assetType, data)
		},
		StateChange: func(expression string) string {
			t := strings.ReplaceAll(AddPrefix(expression), " to ", " = ")
			return fmt.Sprintf("<<set %s>>", t)
		},
		LogicStart: func(condition string) string { return fmt.Sprintf("<<if %s>>", AddPrefix(condition)) },
		LogicElif:  func(condition string) string { return fmt.Sprintf("<<elseif %s>>", AddPrefix(condition)) },
		LogicElse:  func() string { return "<<else>>" },
		LogicEnd:   func() string { return "<<endif>>" },
		Decision:   func(text string) string { return text },
		Choice: func(label, text, target string) string {
			if target == "" {
				return fmt.Sprintf("[[%s]]", label)
			}
			safe := tweeSafeName(strings.ReplaceAll(target, "#", ""))
			if text != "" && text != label {
				return fmt.Sprintf("[[%s|%s]]", text, safe)
			}
			return fmt.Sprintf("[[%s|%s]]", label, safe)
		},
		Jump: func(target string) string {
			// clickable link instead of auto-goto so preceding text stays visible
			return fmt.Sprintf("[[Continue|%s]]", tweeSafeName(target))
		},
	}

	return d.finish()
}

func tweeSafeName(s string) string {
	return strings.NewReplacer(" ", "_", ".", "_").Replace(s)
}

// tweeLiteral quotes string values in object literals but leaves numbers and
// booleans bare.
func tweeLiteral(v string) string {
	if v == "true" || v == "false" {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if strings.HasPrefix(v, `"`) || strings.HasPrefix(v, "'") {
		return v
	}
	return `"` + v + `"`
}

// addDisplayPrefixes inserts the $ marker before variable references that
// SugarCube should interpolate in display text. Go's regexp has no
// lookbehind, so the already-prefixed / mid-word check is done by hand.
func addDisplayPrefixes(text string) string {
	locs := tweeDisplayVarRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(locs))
	prev := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		b.WriteString(text[prev:start])
		if start > 0 {
			p := text[start-1]
			if p == byte(PrefixMarker) || p == '_' || p == '.' ||
				(p >= 'a' && p <= 'z') || (p >= 'A' && p <= 'Z') || (p >= '0' && p <= '9') {
				b.WriteString(text[start:end])
				prev = end
				continue
			}
		}
		b.WriteByte(PrefixMarker)
		b.WriteString(text[start:end])
		prev = end
	}
	b.WriteString(text[prev:])
	return b.String()
}
