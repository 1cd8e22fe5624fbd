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
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// FDXOptions controls FDX encoding.
type FDXOptions struct {
	// PreserveHeader writes the root attributes captured on decode instead of
	// the fixed DocumentType/Template/Version triple.
	PreserveHeader bool
}

// DefaultHeader holds the root attributes written on encode.
var DefaultHeader = []script.Attr{
	{Name: "DocumentType", Value: "Script"},
	{Name: "Template", Value: "No"},
	{Name: "Version", Value: "5"},
}

const (
	fdxRoot       = "FinalDraft"
	fdxContent    = "Content"
	headingType   = string(script.KindSceneHeading)
	dualGroupSize = 4
)

type fdxContentBody struct {
	Paragraphs []fdxParagraph `xml:"Paragraph"`
}

type fdxParagraph struct {
	Type  string    `xml:"Type,attr,omitempty"`
	Texts []fdxText `xml:"Text"`
	Dual  *fdxDual  `xml:"DualDialogue,omitempty"`
}

type fdxDual struct {
	Paragraphs []fdxParagraph `xml:"Paragraph"`
}

type fdxText struct {
	Style string `xml:"Style,attr,omitempty"`
	Value string `xml:",chardata"`
}

// EncodeFDX writes s as a Final Draft document. Metadata nodes follow the
// Content element byte for byte.
func EncodeFDX(s script.Screenplay, opts FDXOptions) ([]byte, error) {
	header := DefaultHeader
	if opts.PreserveHeader && len(s.Header) > 0 {
		header = s.Header
	}
	root := xml.StartElement{Name: xml.Name{Local: fdxRoot}}
	for _, a := range header {
		root.Attr = append(root.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}

	var body fdxContentBody
	for _, sc := range s.Scenes {
		for _, e := range sc.Elements {
			if d, ok := e.Dual(); ok {
				group := &fdxDual{}
				for _, p := range d.Paragraphs {
					group.Paragraphs = append(group.Paragraphs, toFDXParagraph(p))
				}
				body.Paragraphs = append(body.Paragraphs, fdxParagraph{Dual: group})
				continue
			}
			p, _ := e.Paragraph()
			body.Paragraphs = append(body.Paragraphs, toFDXParagraph(p))
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.EncodeToken(root); err != nil {
		return nil, fmt.Errorf("encode fdx root: %w", err)
	}
	if err := enc.EncodeElement(body, xml.StartElement{Name: xml.Name{Local: fdxContent}}); err != nil {
		return nil, fmt.Errorf("encode fdx content: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	for _, m := range s.Metadata {
		buf.WriteString("\n  ")
		buf.Write(m.Raw)
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, fmt.Errorf("encode fdx root: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func toFDXParagraph(p script.Paragraph) fdxParagraph {
	out := fdxParagraph{Type: string(p.Kind)}
	for _, r := range p.Runs {
		t := fdxText{Value: r.Text}
		if !r.Style.IsZero() {
			t.Style = r.Style.String()
		}
		out.Texts = append(out.Texts, t)
	}
	return out
}

// DecodeFDX reads a Final Draft document.
//
// Paragraphs are taken from the Content child of the root element; a Scene
// Heading paragraph starts a new scene. Every root child after Content is kept
// verbatim as metadata. A document without Content decodes to an empty
// screenplay.
func DecodeFDX(data []byte) (script.Screenplay, error) {
	data, err := toUTF8(data)
	if err != nil {
		return script.Screenplay{}, &ParseError{Payload: "fdx", Err: err}
	}
	log := applog.WithOperation(applog.WithComponent("interchange"), "decode_fdx")

	d := xml.NewDecoder(bytes.NewReader(data))
	// input is already UTF-8; the declaration may still name another charset
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	root, err := nextStart(d)
	if err != nil {
		return script.Screenplay{}, &ParseError{Payload: "fdx", Err: err}
	}

	var out script.Screenplay
	for _, a := range root.Attr {
		out.Header = append(out.Header, script.Attr{Name: a.Name.Local, Value: a.Value})
	}

	var body *fdxContentBody
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return script.Screenplay{}, &ParseError{Payload: "fdx", Err: err}
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if body == nil && start.Name.Local == fdxContent {
			body = &fdxContentBody{}
			if err := d.DecodeElement(body, &start); err != nil {
				return script.Screenplay{}, &ParseError{Payload: "fdx", Err: err}
			}
			continue
		}
		if err := d.Skip(); err != nil {
			return script.Screenplay{}, &ParseError{Payload: "fdx", Err: err}
		}
		if body != nil {
			raw := make([]byte, d.InputOffset()-off)
			copy(raw, data[off:d.InputOffset()])
			out.Metadata = append(out.Metadata, script.MetaNode{Name: start.Name.Local, Raw: raw})
		}
	}
	if body == nil {
		log.Debug("no content element")
		return script.Screenplay{Header: out.Header}, nil
	}

	var current script.Scene
	for _, fp := range body.Paragraphs {
		switch {
		case fp.Type == headingType:
			out.AddScene(current)
			current = script.Scene{Elements: []script.Element{script.ParagraphElement(fromFDXParagraph(fp, log))}}
		case fp.Dual != nil:
			current.Elements = append(current.Elements, dualFromFDX(fp.Dual, log)...)
		default:
			current.Elements = append(current.Elements, script.ParagraphElement(fromFDXParagraph(fp, log)))
		}
	}
	out.AddScene(current)
	log.Debug("decoded", slog.Int("scenes", len(out.Scenes)), slog.Int("metadata", len(out.Metadata)))
	return out, nil
}

// nextStart returns the first start element of the document.
func nextStart(d *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, errors.New("no root element")
			}
			return xml.StartElement{}, err
		}
		if s, ok := tok.(xml.StartElement); ok {
			return s, nil
		}
	}
}

// dualFromFDX builds a dual-dialogue block. Groups that are not exactly
// Character, line, Character, line are kept as ordinary paragraphs.
func dualFromFDX(g *fdxDual, log *slog.Logger) []script.Element {
	ps := make([]script.Paragraph, 0, len(g.Paragraphs))
	for _, fp := range g.Paragraphs {
		ps = append(ps, fromFDXParagraph(fp, log))
	}
	if len(ps) != dualGroupSize || ps[0].Kind != script.KindCharacter || ps[2].Kind != script.KindCharacter {
		log.Debug("dual dialogue group is not two speeches, flattening", slog.Int("paragraphs", len(ps)))
		out := make([]script.Element, 0, len(ps))
		for _, p := range ps {
			out = append(out, script.ParagraphElement(p))
		}
		return out
	}
	var d script.DualDialogue
	copy(d.Paragraphs[:], ps)
	return []script.Element{script.DualElement(d)}
}

// fromFDXParagraph merges adjacent Text children of equal style into one run.
func fromFDXParagraph(fp fdxParagraph, log *slog.Logger) script.Paragraph {
	kind := script.Kind(fp.Type)
	if kind == "" {
		kind = script.KindAction
	}
	p := script.Paragraph{Kind: kind}
	var buf strings.Builder
	var last script.StyleSet
	for _, t := range fp.Texts {
		st := styleFromName(strings.TrimSpace(t.Style), log)
		if st != last && buf.Len() > 0 {
			p.Runs = append(p.Runs, script.Run{Text: buf.String(), Style: last})
			buf.Reset()
		}
		buf.WriteString(t.Value)
		last = st
	}
	if buf.Len() > 0 {
		p.Runs = append(p.Runs, script.Run{Text: buf.String(), Style: last})
	}
	return p
}

var reXMLEncoding = regexp.MustCompile(`^<\?xml[^>]*encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// toUTF8 transcodes a document whose declaration names a non-UTF-8 charset.
func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	m := reXMLEncoding.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	label := strings.ToLower(string(m[1]))
	if label == "utf-8" || label == "utf8" {
		return data, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", m[1])
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", m[1], err)
	}
	return out, nil
}
