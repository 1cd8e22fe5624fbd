/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"goscreenwriter/internal/interchange"
)

func TestConversionAndDecodeFailureEvents(t *testing.T) {
	var col collector
	srv := col.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})
	defer c.Close()

	c.Conversion("fdx", "json", 3, 41)
	c.DecodeFailure("json", &interchange.SchemaError{Violations: []string{"scenes: required"}})
	c.DecodeFailure("txt", nil)
	c.Flush(context.Background())

	col.mu.Lock()
	defer col.mu.Unlock()
	if len(col.events) != 2 {
		t.Fatalf("events sent = %d", len(col.events))
	}
	conv := col.events[0]
	if conv.Name != "conversion" || conv.Props["from"] != "fdx" || conv.Props["to"] != "json" {
		t.Fatalf("conversion = %+v", conv)
	}
	// JSON numbers decode as float64
	if conv.Props["scenes"] != float64(3) || conv.Props["paragraphs"] != float64(41) {
		t.Fatalf("counts = %v / %v", conv.Props["scenes"], conv.Props["paragraphs"])
	}
	fail := col.events[1]
	if fail.Name != "decode_failure" || fail.Props["format"] != "json" || fail.Props["reason"] != "schema" {
		t.Fatalf("decode failure = %+v", fail)
	}
}

func TestFailureClass(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&interchange.SchemaError{}, "schema"},
		{fmt.Errorf("draft.fdx: %w", &interchange.ParseError{Payload: "fdx", Err: errors.New("eof")}), "malformed"},
		{errors.New("disk full"), "other"},
	}
	for _, tc := range cases {
		if got := FailureClass(tc.err); got != tc.want {
			t.Fatalf("FailureClass(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestFlushNilClientAndContext(t *testing.T) {
	var c *Client
	c.Flush(nil)
	c.Conversion("txt", "fdx", 1, 1)
	c.Close()

	idle := New(Config{})
	defer idle.Close()
	start := time.Now()
	idle.Flush(nil)
	if time.Since(start) > 400*time.Millisecond {
		t.Fatalf("flush of an idle client should return immediately")
	}
}
