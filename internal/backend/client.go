/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/export"
	"goscreenwriter/internal/interchange"
	"goscreenwriter/internal/script"
)

// Client is a minimal HTTP client for the backend API, used by the CLI push command.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
// A zero timeout means 10 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(b, &e) != nil {
			e.Error = strings.TrimSpace(string(b))
		}
		return nil, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, dest any) error {
	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return json.NewDecoder(resp.Body).Decode(dest)
}

// RequestToken asks the server for a bearer token and stores it on the client.
func (c *Client) RequestToken(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	b, _ := json.Marshal(map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)})
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", bytes.NewReader(b), "application/json", &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

// Uploaded is the server's answer to an upload.
type Uploaded struct {
	Summary    Summary
	Screenplay script.Screenplay
}

// Upload sends a screenplay file as multipart form data.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (Uploaded, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return Uploaded{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return Uploaded{}, err
	}
	if err := mw.Close(); err != nil {
		return Uploaded{}, err
	}
	var resp screenplayResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/screenplays", &buf, mw.FormDataContentType(), &resp); err != nil {
		return Uploaded{}, err
	}
	sp, err := interchange.DecodeJSON(resp.Screenplay)
	if err != nil {
		return Uploaded{}, fmt.Errorf("decode server screenplay: %w", err)
	}
	return Uploaded{Summary: resp.Summary, Screenplay: sp}, nil
}

// List returns stored screenplays, most recent first.
func (c *Client) List(ctx context.Context) ([]Summary, error) {
	var list []Summary
	if err := c.doJSON(ctx, http.MethodGet, "/api/screenplays", nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Export downloads a stored screenplay rendered as t.
func (c *Client) Export(ctx context.Context, id int64, t export.Type) ([]byte, error) {
	path := fmt.Sprintf("/api/screenplays/%d/export?type=%s", id, url.QueryEscape(string(t)))
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}
