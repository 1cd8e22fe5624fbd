/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interchange

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"goscreenwriter/internal/script"
)

func TestJSONRoundTrip(t *testing.T) {
	sp := sampleScreenplay()
	data, err := EncodeJSON(sp)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	back, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !reflect.DeepEqual(back, sp) {
		t.Fatalf("round trip mismatch\n%s", data)
	}
}

func TestJSONEncodingShape(t *testing.T) {
	data, err := EncodeJSON(sampleScreenplay())
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		"{\n  \"scenes\": [\n    {\n      \"paragraphs\": [",
		`"type": "Scene Heading"`,
		`"style": null`,
		`"style": "Bold+Italic"`,
		`"style": "Underline+Strikeout"`,
		`"dual_dialogue": [`,
		`"text_elements": []`,
		"Crickets & <wind>.",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("encoded JSON lacks %q:\n%s", want, s)
		}
	}
}

func TestEncodedJSONConformsToSchema(t *testing.T) {
	data, err := EncodeJSON(sampleScreenplay())
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(SchemaJSON()), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("encoded screenplay does not conform to schema")
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"scenes": [`))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Payload != "json" {
		t.Fatalf("expected *ParseError for json, got %#v", err)
	}
}

func TestDecodeJSONSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"no scenes":        `{}`,
		"no paragraphs":    `{"scenes":[{}]}`,
		"no text_elements": `{"scenes":[{"paragraphs":[{"type":"Action"}]}]}`,
		"no type":          `{"scenes":[{"paragraphs":[{"text_elements":[]}]}]}`,
		"run without text": `{"scenes":[{"paragraphs":[{"type":"Action","text_elements":[{"style":null}]}]}]}`,
		"short dual":       `{"scenes":[{"paragraphs":[{"dual_dialogue":[{"type":"Character","text_elements":[]}]}]}]}`,
		"dual without speaker": `{"scenes":[{"paragraphs":[{"dual_dialogue":[
			{"type":"Action","text_elements":[]},{"type":"Dialogue","text_elements":[]},
			{"type":"Character","text_elements":[]},{"type":"Dialogue","text_elements":[]}]}]}]}`,
		"scenes not array": `{"scenes":{}}`,
	}
	for name, in := range cases {
		_, err := DecodeJSON([]byte(in))
		if !errors.Is(err, ErrSchema) {
			t.Fatalf("%s: expected ErrSchema, got %v", name, err)
		}
		var se *SchemaError
		if !errors.As(err, &se) || len(se.Violations) == 0 {
			t.Fatalf("%s: expected violations, got %#v", name, err)
		}
		if errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: schema errors must not match ErrMalformed", name)
		}
	}
}

func TestDecodeJSONLenientStyles(t *testing.T) {
	in := `{"scenes":[{"paragraphs":[{"type":"Action","text_elements":[
		{"text":"a","style":"Sparkly"},
		{"text":"b"},
		{"text":"c","style":null},
		{"text":"d","style":"Italic"}
	]}]}]}`
	sp, err := DecodeJSON([]byte(in))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	p, _ := sp.Scenes[0].Elements[0].Paragraph()
	want := []script.Run{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d", Style: script.Italic}}
	if !reflect.DeepEqual(p.Runs, want) {
		t.Fatalf("runs = %#v", p.Runs)
	}
}

func TestDecodeJSONDropsEmptyScenes(t *testing.T) {
	sp, err := DecodeJSON([]byte(`{"scenes":[{"paragraphs":[]},{"paragraphs":[{"type":"Action","text_elements":[{"text":"x"}]}]}]}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(sp.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(sp.Scenes))
	}
}
