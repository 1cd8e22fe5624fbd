/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package interchange

import "goscreenwriter/internal/script"

// sampleScreenplay covers every element form the codecs must carry.
func sampleScreenplay() script.Screenplay {
	var sp script.Screenplay
	sp.AddScene(script.Scene{Elements: []script.Element{
		script.ParagraphElement(script.NewParagraph(script.KindSceneHeading, "INT. KITCHEN - DAY")),
		script.ParagraphElement(script.Paragraph{Kind: script.KindAction, Runs: []script.Run{
			{Text: "The kettle "},
			{Text: "screams", Style: script.Bold | script.Italic},
			{Text: " and "},
			{Text: "stops", Style: script.Underline | script.Strikeout},
		}}),
		script.ParagraphElement(script.NewParagraph(script.KindCharacter, "JOHN")),
		script.ParagraphElement(script.NewParagraph(script.KindParenthetical, "(tired)")),
		script.ParagraphElement(script.NewParagraph(script.KindDialogue, "Tea?")),
		script.DualElement(script.DualDialogue{Paragraphs: [4]script.Paragraph{
			script.NewParagraph(script.KindCharacter, "JOHN"),
			script.NewParagraph(script.KindDialogue, "Now!"),
			script.NewParagraph(script.KindCharacter, "MARY"),
			script.NewParagraph(script.KindDialogue, "Not yet!"),
		}}),
		script.ParagraphElement(script.NewParagraph(script.Kind("Shot"), "CLOSE ON the cup.")),
		script.ParagraphElement(script.NewParagraph(script.KindAction, "")),
		script.ParagraphElement(script.NewParagraph(script.KindTransition, "CUT TO:")),
	}})
	sp.AddScene(script.Scene{Elements: []script.Element{
		script.ParagraphElement(script.NewParagraph(script.KindSceneHeading, "EXT. GARDEN - NIGHT")),
		script.ParagraphElement(script.NewParagraph(script.KindAction, "Crickets & <wind>.")),
	}})
	return sp
}
