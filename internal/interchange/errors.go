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
	"fmt"
	"strings"
)

var (
	// ErrMalformed marks payloads that are not well-formed JSON or XML.
	ErrMalformed = errors.New("malformed payload")
	// ErrSchema marks JSON documents whose structure does not match the screenplay schema.
	ErrSchema = errors.New("schema mismatch")
)

// ParseError reports a syntax failure and the payload type it occurred in.
type ParseError struct {
	Payload string // "json" or "fdx"
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Payload, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMalformed.
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// SchemaError lists every violation found while validating a JSON document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 0 {
		return ErrSchema.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSchema, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
