/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package interchange

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

//go:embed screenplay.schema.json
var schemaJSON []byte

// SchemaJSON returns the JSON Schema that DecodeJSON validates against.
func SchemaJSON() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

type jsonScreenplay struct {
	Scenes []jsonScene `json:"scenes"`
}

type jsonScene struct {
	Paragraphs []jsonParagraph `json:"paragraphs"`
}

// jsonParagraph is either a typed paragraph or a dual-dialogue group.
type jsonParagraph struct {
	Type         string          `json:"type,omitempty"`
	TextElements []jsonRun       `json:"text_elements,omitempty"`
	DualDialogue []jsonParagraph `json:"dual_dialogue,omitempty"`
}

func (p jsonParagraph) MarshalJSON() ([]byte, error) {
	if p.DualDialogue != nil {
		return json.Marshal(struct {
			DualDialogue []jsonParagraph `json:"dual_dialogue"`
		}{p.DualDialogue})
	}
	runs := p.TextElements
	if runs == nil {
		runs = []jsonRun{}
	}
	return json.Marshal(struct {
		Type         string    `json:"type"`
		TextElements []jsonRun `json:"text_elements"`
	}{p.Type, runs})
}

type jsonRun struct {
	Text  string  `json:"text"`
	Style *string `json:"style"`
}

// EncodeJSON writes the scene tree as 2-space indented JSON. Metadata and the
// FDX header are not part of the JSON form.
func EncodeJSON(s script.Screenplay) ([]byte, error) {
	doc := jsonScreenplay{Scenes: make([]jsonScene, 0, len(s.Scenes))}
	for _, sc := range s.Scenes {
		js := jsonScene{Paragraphs: make([]jsonParagraph, 0, len(sc.Elements))}
		for _, e := range sc.Elements {
			if d, ok := e.Dual(); ok {
				group := make([]jsonParagraph, 0, len(d.Paragraphs))
				for _, p := range d.Paragraphs {
					group = append(group, toJSONParagraph(p))
				}
				js.Paragraphs = append(js.Paragraphs, jsonParagraph{DualDialogue: group})
				continue
			}
			p, _ := e.Paragraph()
			js.Paragraphs = append(js.Paragraphs, toJSONParagraph(p))
		}
		doc.Scenes = append(doc.Scenes, js)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func toJSONParagraph(p script.Paragraph) jsonParagraph {
	out := jsonParagraph{Type: string(p.Kind), TextElements: make([]jsonRun, 0, len(p.Runs))}
	for _, r := range p.Runs {
		jr := jsonRun{Text: r.Text}
		if !r.Style.IsZero() {
			name := r.Style.String()
			jr.Style = &name
		}
		out.TextElements = append(out.TextElements, jr)
	}
	return out
}

// DecodeJSON reads a JSON screenplay. Syntax errors yield a *ParseError,
// structural problems a *SchemaError listing every violation.
func DecodeJSON(data []byte) (script.Screenplay, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return script.Screenplay{}, &ParseError{Payload: "json", Err: err}
	}
	sch, err := loadSchema()
	if err != nil {
		return script.Screenplay{}, fmt.Errorf("load schema: %w", err)
	}
	res, err := sch.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return script.Screenplay{}, fmt.Errorf("validate json: %w", err)
	}
	if !res.Valid() {
		se := &SchemaError{}
		for _, v := range res.Errors() {
			se.Violations = append(se.Violations, v.String())
		}
		return script.Screenplay{}, se
	}

	var doc jsonScreenplay
	if err := json.Unmarshal(data, &doc); err != nil {
		return script.Screenplay{}, &ParseError{Payload: "json", Err: err}
	}
	log := applog.WithOperation(applog.WithComponent("interchange"), "decode_json")

	var out script.Screenplay
	for _, js := range doc.Scenes {
		var sc script.Scene
		for _, jp := range js.Paragraphs {
			if jp.DualDialogue != nil {
				var d script.DualDialogue
				for i, sub := range jp.DualDialogue {
					d.Paragraphs[i] = fromJSONParagraph(sub, log)
				}
				sc.Elements = append(sc.Elements, script.DualElement(d))
				continue
			}
			sc.Elements = append(sc.Elements, script.ParagraphElement(fromJSONParagraph(jp, log)))
		}
		out.AddScene(sc)
	}
	log.Debug("decoded", slog.Int("scenes", len(out.Scenes)))
	return out, nil
}

func fromJSONParagraph(jp jsonParagraph, log *slog.Logger) script.Paragraph {
	p := script.Paragraph{Kind: script.Kind(jp.Type)}
	for _, jr := range jp.TextElements {
		r := script.Run{Text: jr.Text}
		if jr.Style != nil {
			r.Style = styleFromName(*jr.Style, log)
		}
		p.Runs = append(p.Runs, r)
	}
	return p
}

// styleFromName resolves a canonical combo name; unknown names mean no style.
func styleFromName(name string, log *slog.Logger) script.StyleSet {
	if name == "" {
		return script.NoStyle
	}
	s, ok := script.ParseStyle(name)
	if !ok {
		log.Debug("unknown style, using none", slog.String("style", name))
	}
	return s
}
