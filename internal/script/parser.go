/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	applog "goscreenwriter/internal/log"
)

// ParseOptions toggles the optional conventions of the plain-text parser.
type ParseOptions struct {
	// Markup decodes inline style delimiters (**bold**, *italic*, ...).
	Markup bool
	// Shorthand enables the @ ! > ^ and leading-dot line markers.
	Shorthand bool
	// NormalizeSpacing merges manually wrapped lines before classification.
	NormalizeSpacing bool
	// NormalizePaging drops bare page-number lines.
	NormalizePaging bool
}

// DefaultParseOptions enables every convention.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Markup: true, Shorthand: true, NormalizeSpacing: true, NormalizePaging: true}
}

var (
	reNewline      = regexp.MustCompile(`\r?\n`)
	reSceneNumber  = regexp.MustCompile(`^\s*\d+[A-Z]?[.\s-]+`)
	reSceneHeading = regexp.MustCompile(`(?i)^(INT|EXT|INTERIOR|EXTERIOR|I\./E|I/E)[\s./:-]`)
	reTransition   = regexp.MustCompile(`^[A-Z0-9 .\-'()]+:$`)
)

// Parse turns loosely formatted screenplay text into a Screenplay.
// It never fails: a line no rule recognises becomes Action.
//
// Classification, first match wins:
//   - INT/EXT/INTERIOR/EXTERIOR/I/E/I./E headings (scene numbers like "12A." ignored),
//     or a single leading "." in shorthand mode: Scene Heading, starts a new scene
//   - shorthand "@", "!", ">": Character, Action, Transition (marker stripped)
//   - "(...)": Parenthetical
//   - "CUT TO:" style upper-case lines ending in a colon: Transition
//   - other upper-case lines: Character
//   - lines after a Character or Parenthetical: Dialogue (not when starting with "^")
//   - anything else: Action
func Parse(text string, opts ParseOptions) Screenplay {
	lines := reNewline.Split(text, -1)
	return ParseLines(lines, opts)
}

// ParseBytes decodes raw bytes (see DecodeText) and parses them.
func ParseBytes(data []byte, opts ParseOptions) (Screenplay, error) {
	text, err := DecodeText(data)
	if err != nil {
		return Screenplay{}, err
	}
	return Parse(text, opts), nil
}

// ParseLines parses an already split line sequence.
func ParseLines(lines []string, opts ParseOptions) Screenplay {
	if opts.NormalizeSpacing {
		lines = NormalizeSpacing(lines)
	}
	if opts.NormalizePaging {
		lines = NormalizePaging(lines)
	}

	p := &lineParser{opts: opts}
	for _, raw := range lines {
		p.feed(raw)
	}
	p.seal()

	applog.WithOperation(applog.WithComponent("parser"), "parse_text").Debug("parsed",
		slog.Int("lines", len(lines)),
		slog.Int("scenes", len(p.out.Scenes)),
	)
	return p.out
}

type lineParser struct {
	opts    ParseOptions
	out     Screenplay
	current []Paragraph
	prev    Kind
}

func (p *lineParser) push(kind Kind, text string) {
	p.current = append(p.current, Paragraph{Kind: kind, Runs: DecodeMarkup(text, p.opts.Markup)})
	p.prev = kind
}

// seal runs the repair passes over the accumulated paragraphs and appends them as a scene.
func (p *lineParser) seal() {
	if len(p.current) == 0 {
		return
	}
	paras := NormalizeCharacters(p.current)
	p.out.AddScene(Scene{Elements: GroupDualDialogue(paras)})
	p.current = nil
}

func (p *lineParser) feed(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	noNum := reSceneNumber.ReplaceAllString(line, "")

	if reSceneHeading.MatchString(noNum) || (p.opts.Shorthand && isForcedHeading(line)) {
		p.seal()
		p.push(KindSceneHeading, noNum)
		return
	}

	if p.opts.Shorthand {
		switch line[0] {
		case '@':
			p.push(KindCharacter, line[1:])
			return
		case '!':
			p.push(KindAction, line[1:])
			return
		case '>':
			p.push(KindTransition, line[1:])
			return
		}
	}

	if strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")") {
		p.push(KindParenthetical, line)
		return
	}
	if reTransition.MatchString(line) {
		p.push(KindTransition, line)
		return
	}
	if isUpperLine(line) {
		p.push(KindCharacter, line)
		return
	}
	if (p.prev == KindCharacter || p.prev == KindParenthetical) && !(p.opts.Shorthand && strings.HasPrefix(line, DualMarker)) {
		p.push(KindDialogue, line)
		return
	}
	p.push(KindAction, line)
}

// isForcedHeading matches a single leading dot; ".." (an ellipsis) does not count.
func isForcedHeading(line string) bool {
	return strings.HasPrefix(line, ".") && !strings.HasPrefix(line, "..")
}

func isUpperLine(line string) bool {
	if strings.ToUpper(line) != line {
		return false
	}
	for _, r := range line {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
