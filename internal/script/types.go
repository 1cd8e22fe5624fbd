/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Screenplay is the parsed document: an ordered list of scenes plus the
// interchange metadata that the engine carries but never interprets.
//
// Scenes never contain an empty scene; builders drop them on append.
type Screenplay struct {
	Scenes []Scene
	// Metadata holds the top-level FDX elements that followed <Content>,
	// kept verbatim for re-emission.
	Metadata []MetaNode
	// Header holds the root attributes read by the FDX decoder.
	Header []Attr
}

// Scene is an ordered list of paragraphs and dual-dialogue blocks.
type Scene struct {
	Elements []Element
}

// Kind is the type of a paragraph. It determines layout.
type Kind string

const (
	KindSceneHeading  Kind = "Scene Heading"
	KindCharacter     Kind = "Character"
	KindParenthetical Kind = "Parenthetical"
	KindDialogue      Kind = "Dialogue"
	KindTransition    Kind = "Transition"
	KindAction        Kind = "Action"
)

// Kinds lists the paragraph kinds the parser produces, in a stable order.
func Kinds() []Kind {
	return []Kind{KindSceneHeading, KindCharacter, KindParenthetical, KindDialogue, KindTransition, KindAction}
}

// Known reports whether k is one of the kinds the engine lays out specifically.
// Interchange decoders keep unknown type names verbatim; they render like Action.
func (k Kind) Known() bool {
	switch k {
	case KindSceneHeading, KindCharacter, KindParenthetical, KindDialogue, KindTransition, KindAction:
		return true
	}
	return false
}

// Run is a piece of text carrying a single style.
type Run struct {
	Text  string
	Style StyleSet
}

// Paragraph is a typed sequence of runs.
type Paragraph struct {
	Kind Kind
	Runs []Run
}

// NewParagraph builds a paragraph from plain, unstyled text.
func NewParagraph(kind Kind, text string) Paragraph {
	if text == "" {
		return Paragraph{Kind: kind}
	}
	return Paragraph{Kind: kind, Runs: []Run{{Text: text}}}
}

// Text returns the concatenated text of all runs without markup.
func (p Paragraph) Text() string {
	if len(p.Runs) == 1 {
		return p.Runs[0].Text
	}
	n := 0
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range p.Runs {
		b = append(b, r.Text...)
	}
	return string(b)
}

// withKind returns a copy of p retyped to kind. Runs are shared; they are
// treated as immutable once built.
func (p Paragraph) withKind(kind Kind) Paragraph {
	return Paragraph{Kind: kind, Runs: p.Runs}
}

// DualDialogue is two simultaneous Character/Dialogue pairs:
// [Char1, Dial1, Char2, Dial2]. Positions 0 and 2 are always Character.
type DualDialogue struct {
	Paragraphs [4]Paragraph
}

// KindDualDialogue is the synthetic kind a dual block takes when computing
// spacing around it. It never appears on a paragraph.
const KindDualDialogue Kind = "DualDialogue"

// Element is a scene entry: either a Paragraph or a DualDialogue block.
// Exactly one of the two is set; use the constructors.
type Element struct {
	para *Paragraph
	dual *DualDialogue
}

// ParagraphElement wraps a paragraph.
func ParagraphElement(p Paragraph) Element { return Element{para: &p} }

// DualElement wraps a dual-dialogue block.
func DualElement(d DualDialogue) Element { return Element{dual: &d} }

// Paragraph returns the wrapped paragraph, if this element is one.
func (e Element) Paragraph() (Paragraph, bool) {
	if e.para == nil {
		return Paragraph{}, false
	}
	return *e.para, true
}

// Dual returns the wrapped dual-dialogue block, if this element is one.
func (e Element) Dual() (DualDialogue, bool) {
	if e.dual == nil {
		return DualDialogue{}, false
	}
	return *e.dual, true
}

// IsDual reports whether e is a dual-dialogue block.
func (e Element) IsDual() bool { return e.dual != nil }

// Kind returns the paragraph kind, or KindDualDialogue for a block.
func (e Element) Kind() Kind {
	if e.dual != nil {
		return KindDualDialogue
	}
	if e.para != nil {
		return e.para.Kind
	}
	return ""
}

// Paragraphs returns every paragraph contained in e, flattening dual blocks.
func (e Element) Paragraphs() []Paragraph {
	if e.dual != nil {
		ps := e.dual.Paragraphs
		return ps[:]
	}
	if e.para != nil {
		return []Paragraph{*e.para}
	}
	return nil
}

// AddScene appends sc unless it has no elements.
func (s *Screenplay) AddScene(sc Scene) {
	if len(sc.Elements) == 0 {
		return
	}
	s.Scenes = append(s.Scenes, sc)
}

// ParagraphCount counts all paragraphs, including the four inside each dual block.
func (s Screenplay) ParagraphCount() int {
	n := 0
	for _, sc := range s.Scenes {
		for _, e := range sc.Elements {
			n += len(e.Paragraphs())
		}
	}
	return n
}

// MetaNode is an opaque top-level interchange element kept verbatim.
// Raw is the complete serialized element, including its start and end tags.
type MetaNode struct {
	Name string
	Raw  []byte
}

// Attr is a root attribute captured from an interchange document.
type Attr struct {
	Name  string
	Value string
}
