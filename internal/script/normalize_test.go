/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package script

import (
	"reflect"
	"testing"
)

func TestNormalizeSpacingMergesWrappedLines(t *testing.T) {
	in := []string{"  He walks", "  into the room.", "", "JOHN", " continues", "          Hi.", "                     MARY"}
	want := []string{"  He walks into the room.", "", "JOHN continues", "          Hi.", "                     MARY"}
	if got := NormalizeSpacing(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if in[0] != "  He walks" {
		t.Fatalf("input modified: %q", in[0])
	}
}

func TestNormalizePaging(t *testing.T) {
	in := []string{"12", "p. 3", "  PAGE 101 ", "Page", "1234", "He waits."}
	want := []string{"Page", "1234", "He waits."}
	got := NormalizePaging(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	if again := NormalizePaging(got); !reflect.DeepEqual(again, got) {
		t.Fatalf("paging normalization is not idempotent: %q", again)
	}
}

func TestPageNumberLineToggle(t *testing.T) {
	in := "INT. A - DAY\n\n12\n\nHe waits."
	sp := Parse(in, DefaultParseOptions())
	if n := len(sp.Scenes[0].Elements); n != 2 {
		t.Fatalf("paging on: expected 2 elements, got %d", n)
	}
	opts := DefaultParseOptions()
	opts.NormalizePaging = false
	sp = Parse(in, opts)
	if n := len(sp.Scenes[0].Elements); n != 3 {
		t.Fatalf("paging off: expected 3 elements, got %d", n)
	}
	if p := paragraphAt(t, sp.Scenes[0], 1); p.Text() != "12" || p.Kind != KindAction {
		t.Fatalf("page line kept as %s %q", p.Kind, p.Text())
	}
}

func TestNormalizeCharactersIsPure(t *testing.T) {
	in := []Paragraph{
		NewParagraph(KindCharacter, "A"),
		NewParagraph(KindAction, "b"),
		NewParagraph(KindCharacter, "C"),
		NewParagraph(KindDialogue, "d"),
		NewParagraph(KindCharacter, "E"),
		NewParagraph(KindParenthetical, "(f)"),
		NewParagraph(KindCharacter, "G"),
	}
	got := NormalizeCharacters(in)
	want := []Kind{KindAction, KindAction, KindCharacter, KindDialogue, KindCharacter, KindParenthetical, KindAction}
	for i, p := range got {
		if p.Kind != want[i] {
			t.Fatalf("paragraph %d kind = %s, want %s", i, p.Kind, want[i])
		}
	}
	if in[0].Kind != KindCharacter || in[6].Kind != KindCharacter {
		t.Fatalf("input was modified")
	}
}

func TestGroupDualDialogue(t *testing.T) {
	in := []Paragraph{
		NewParagraph(KindCharacter, "JOHN"),
		NewParagraph(KindDialogue, "Now!"),
		NewParagraph(KindCharacter, "^MARY"),
		NewParagraph(KindDialogue, "Not yet!"),
		NewParagraph(KindAction, "They glare."),
	}
	got := GroupDualDialogue(in)
	if len(got) != 2 || !got[0].IsDual() || got[1].Kind() != KindAction {
		t.Fatalf("unexpected grouping: %#v", got)
	}
	d, _ := got[0].Dual()
	if !reflect.DeepEqual(d, dualBlock()) {
		t.Fatalf("block = %#v", d)
	}
	if in[2].Runs[0].Text != "^MARY" {
		t.Fatalf("input was modified: %q", in[2].Runs[0].Text)
	}
}

func TestGroupDualDialogueNeedsFourParagraphs(t *testing.T) {
	in := []Paragraph{
		NewParagraph(KindCharacter, "JOHN"),
		NewParagraph(KindDialogue, "Now!"),
		NewParagraph(KindCharacter, "^MARY"),
	}
	got := GroupDualDialogue(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 plain elements, got %d", len(got))
	}
	for _, e := range got {
		if e.IsDual() {
			t.Fatalf("unexpected dual block")
		}
	}
}

func TestGroupDualDialogueDropsEmptiedRun(t *testing.T) {
	in := []Paragraph{
		NewParagraph(KindCharacter, "JOHN"),
		NewParagraph(KindDialogue, "Now!"),
		{Kind: KindCharacter, Runs: []Run{{Text: "^"}, {Text: "MARY", Style: Bold}}},
		NewParagraph(KindDialogue, "Not yet!"),
	}
	got := GroupDualDialogue(in)
	d, ok := got[0].Dual()
	if !ok {
		t.Fatalf("expected a dual block")
	}
	want := []Run{{Text: "MARY", Style: Bold}}
	if !reflect.DeepEqual(d.Paragraphs[2].Runs, want) {
		t.Fatalf("runs = %#v", d.Paragraphs[2].Runs)
	}
}
