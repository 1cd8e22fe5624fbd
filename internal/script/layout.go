/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"unicode/utf8"
)

// Column figures of the screenplay text layout.
const (
	CharacterIndent     = 21
	ParentheticalIndent = 15
	DialogueIndent      = 10
	TransitionColumn    = 55
)

// DualMarker prefixes the second speaker of a dual-dialogue block in shorthand text.
const DualMarker = "^"

// RenderOptions selects indentation and inline markup for text output.
type RenderOptions struct {
	Spacing bool
	Markup  bool
}

// Named render presets.
var (
	// PresetDisplay is for reading: layout on, style delimiters dropped.
	PresetDisplay = RenderOptions{Spacing: true, Markup: false}
	// PresetExport keeps style delimiters and the dual-dialogue caret so the
	// text parses back into the same document.
	PresetExport = RenderOptions{Spacing: true, Markup: true}
	// PresetPlain is flush-left text without markup.
	PresetPlain = RenderOptions{Spacing: false, Markup: false}
)

// PresetByName resolves "display", "export" or "plain".
func PresetByName(name string) (RenderOptions, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "display", "layout", "txt-layout":
		return PresetDisplay, true
	case "export", "markup":
		return PresetExport, true
	case "plain", "txt":
		return PresetPlain, true
	}
	return RenderOptions{}, false
}

func renderRuns(runs []Run, markup bool) string {
	if markup {
		return EncodeRuns(runs)
	}
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// RenderParagraph formats a single paragraph as one line of text.
func RenderParagraph(p Paragraph, opt RenderOptions) string {
	txt := renderRuns(p.Runs, opt.Markup)
	indent := func(n int) string {
		if !opt.Spacing || n <= 0 {
			return ""
		}
		return strings.Repeat(" ", n)
	}
	switch p.Kind {
	case KindSceneHeading:
		return strings.ToUpper(txt)
	case KindCharacter:
		return indent(CharacterIndent) + strings.ToUpper(txt)
	case KindParenthetical:
		return indent(ParentheticalIndent) + txt
	case KindTransition:
		return indent(TransitionColumn-utf8.RuneCountInString(txt)) + strings.ToUpper(txt)
	case KindDialogue:
		return indent(DialogueIndent) + txt
	default:
		return txt
	}
}

// RenderDualDialogue formats the four paragraphs of a block on consecutive lines.
// With markup on, the second speaker is prefixed with the caret; the block
// itself is left unchanged.
func RenderDualDialogue(d DualDialogue, opt RenderOptions) string {
	lines := make([]string, 0, len(d.Paragraphs))
	seenCharacter := false
	for _, p := range d.Paragraphs {
		if p.Kind == KindCharacter && seenCharacter && opt.Markup && len(p.Runs) > 0 {
			runs := make([]Run, len(p.Runs))
			copy(runs, p.Runs)
			runs[0].Text = DualMarker + runs[0].Text
			p = Paragraph{Kind: p.Kind, Runs: runs}
		}
		lines = append(lines, RenderParagraph(p, opt))
		if p.Kind == KindCharacter {
			seenCharacter = true
		}
	}
	return strings.Join(lines, "\n")
}

// RenderElement formats either case of a scene element.
func RenderElement(e Element, opt RenderOptions) string {
	if d, ok := e.Dual(); ok {
		return RenderDualDialogue(d, opt)
	}
	p, _ := e.Paragraph()
	return RenderParagraph(p, opt)
}

// continuesDialogue reports whether cur follows prev without a blank line.
func continuesDialogue(prev, cur Kind) bool {
	switch prev {
	case KindCharacter, KindParenthetical, KindDialogue:
	default:
		return false
	}
	return cur == KindParenthetical || cur == KindDialogue
}

// RenderScene formats a scene. With spacing on, elements are separated by a
// blank line except inside a speech (Character/Parenthetical/Dialogue runs).
func RenderScene(sc Scene, opt RenderOptions) string {
	lines := make([]string, 0, len(sc.Elements)*2)
	var prev Kind
	for i, e := range sc.Elements {
		cur := e.Kind()
		if opt.Spacing && i > 0 && !continuesDialogue(prev, cur) {
			lines = append(lines, "")
		}
		lines = append(lines, RenderElement(e, opt))
		prev = cur
	}
	return strings.Join(lines, "\n")
}

// Render formats the whole screenplay. Scenes are joined by a single newline
// whatever the spacing.
func Render(s Screenplay, opt RenderOptions) string {
	parts := make([]string, 0, len(s.Scenes))
	for _, sc := range s.Scenes {
		parts = append(parts, RenderScene(sc, opt))
	}
	return strings.Join(parts, "\n")
}
