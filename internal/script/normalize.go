/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"strings"
	"unicode"
)

var rePageNumber = regexp.MustCompile(`(?i)^\s*(?:p\.|page)?\s*\d{1,3}\s*$`)

// NormalizeSpacing joins manually wrapped lines back into logical lines.
// A line is appended to the previous output line (with a single space) when its
// leading whitespace equals the previous line's, or is exactly one space longer.
// Blank lines are kept and reset the merge state.
func NormalizeSpacing(lines []string) []string {
	out := make([]string, 0, len(lines))
	var prevIndent string
	havePrev := false
	for _, line := range lines {
		stripped := strings.TrimLeftFunc(line, unicode.IsSpace)
		if stripped == "" {
			out = append(out, "")
			havePrev = false
			continue
		}
		indent := line[:len(line)-len(stripped)]
		if havePrev && len(out) > 0 && (indent == prevIndent || indent == prevIndent+" ") {
			last := len(out) - 1
			out[last] = strings.TrimRightFunc(out[last], unicode.IsSpace) + " " + stripped
			continue
		}
		out = append(out, line)
		prevIndent = indent
		havePrev = true
	}
	return out
}

// NormalizePaging drops lines that only carry a page number, such as "12",
// "p. 3" or "PAGE 101".
func NormalizePaging(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if rePageNumber.MatchString(strings.TrimSpace(l)) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// NormalizeCharacters retypes Character paragraphs that are not followed by
// Dialogue or Parenthetical to Action. The input is not modified.
func NormalizeCharacters(paras []Paragraph) []Paragraph {
	out := make([]Paragraph, len(paras))
	copy(out, paras)
	for i, p := range paras {
		if p.Kind != KindCharacter {
			continue
		}
		if i == len(paras)-1 {
			out[i] = p.withKind(KindAction)
			continue
		}
		if next := paras[i+1].Kind; next != KindDialogue && next != KindParenthetical {
			out[i] = p.withKind(KindAction)
		}
	}
	return out
}

// GroupDualDialogue folds Character/Dialogue/^Character/Dialogue runs of four
// paragraphs into dual-dialogue blocks and wraps everything else as-is.
// The caret is removed from the second speaker. The input is not modified.
func GroupDualDialogue(paras []Paragraph) []Element {
	out := make([]Element, 0, len(paras))
	for i := 0; i < len(paras); {
		if i+3 < len(paras) && paras[i].Kind == KindCharacter && paras[i+2].Kind == KindCharacter && hasDualMarker(paras[i+2]) {
			d := DualDialogue{Paragraphs: [4]Paragraph{paras[i], paras[i+1], stripDualMarker(paras[i+2]), paras[i+3]}}
			out = append(out, DualElement(d))
			i += 4
			continue
		}
		out = append(out, ParagraphElement(paras[i]))
		i++
	}
	return out
}

func hasDualMarker(p Paragraph) bool {
	return len(p.Runs) > 0 && strings.HasPrefix(p.Runs[0].Text, DualMarker)
}

func stripDualMarker(p Paragraph) Paragraph {
	runs := make([]Run, 0, len(p.Runs))
	first := p.Runs[0]
	first.Text = strings.TrimPrefix(first.Text, DualMarker)
	if first.Text != "" {
		runs = append(runs, first)
	}
	runs = append(runs, p.Runs[1:]...)
	if len(runs) == 0 {
		runs = nil
	}
	return Paragraph{Kind: p.Kind, Runs: runs}
}
