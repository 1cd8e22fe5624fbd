/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import "goscreenwriter/internal/script"

func scene(ps ...script.Paragraph) script.Scene {
	var sc script.Scene
	for _, p := range ps {
		sc.Elements = append(sc.Elements, script.ParagraphElement(p))
	}
	return sc
}

// sampleProject has two scenes, eleven non-empty paragraphs and a title row.
func sampleProject(name string) Project {
	var sp script.Screenplay
	sp.AddScene(scene(
		script.NewParagraph(script.KindSceneHeading, "INT. KITCHEN - DAY"),
		script.NewParagraph(script.KindAction, "Mary pours coffee."),
		script.NewParagraph(script.KindCharacter, "MARY"),
		script.NewParagraph(script.KindDialogue, "Morning, John."),
		script.NewParagraph(script.KindCharacter, "JOHN (V.O.)"),
		script.NewParagraph(script.KindParenthetical, "(yawning)"),
		script.NewParagraph(script.KindDialogue, "Too early."),
	))
	sp.AddScene(scene(
		script.NewParagraph(script.KindSceneHeading, "EXT. BEACH - NIGHT"),
		script.NewParagraph(script.KindAction, "Waves crash."),
		script.NewParagraph(script.KindCharacter, "MARY"),
		script.NewParagraph(script.KindDialogue, "The tide is coming in."),
	))
	return Project{Name: name, Screenplay: sp}
}
