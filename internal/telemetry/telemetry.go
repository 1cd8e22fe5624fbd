/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous usage events and crash reports.
//
// Events are queued and posted in small JSON batches by one background goroutine;
// nothing is sent unless the user opted in and an endpoint is configured. Events carry
// formats and counts only, never screenplay text or file names.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
//
// FromEnv reads:
//   - GSW_TELEMETRY_OPT_IN: 1/true/yes/on enables sending
//   - GSW_TELEMETRY_URL: endpoint that receives event batches
//   - GSW_CRASH_UPLOAD_URL: endpoint that receives crash reports
//   - GSW_TELEMETRY_TIMEOUT_MS: request timeout, default 1500
//   - GSW_TELEMETRY_DEBUG: log send attempts at debug level
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

const (
	defaultTimeout = 1500 * time.Millisecond
	queueSize      = 64
	maxBatch       = 16
	flushWait      = 500 * time.Millisecond
)

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("GSW_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("GSW_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("GSW_CRASH_UPLOAD_URL")),
		Timeout:      defaultTimeout,
		DebugLogging: os.Getenv("GSW_TELEMETRY_DEBUG") != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv("GSW_TELEMETRY_TIMEOUT_MS"))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// envelope is the wire form of one event.
type envelope struct {
	Name    string         `json:"name"`
	TS      string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them in batches. Send errors are logged at debug
// level and otherwise dropped; a full queue drops new events.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan envelope
	pending sync.WaitGroup
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// InitDefault installs a default client configured from the environment unless one exists.
func InitDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
}

// NewDefault replaces the default client; the previous one is closed.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	prev.Close()
}

func def() *Client {
	InitDefault()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// New constructs a client and starts its sender.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan envelope, queueSize),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events will be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether the default client sends events.
func Enabled() bool { return def().Enabled() }

// Event queues a named event. props must not contain personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := envelope{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		ev.Props = make(map[string]any, len(props))
		for k, v := range props {
			ev.Props[k] = v
		}
	}
	c.pending.Add(1)
	select {
	case c.q <- ev:
	default:
		c.pending.Done()
	}
}

// Conversion reports one converted document by formats and size.
func (c *Client) Conversion(from, to string, scenes, paragraphs int) {
	c.Event("conversion", map[string]any{
		"from":       from,
		"to":         to,
		"scenes":     scenes,
		"paragraphs": paragraphs,
	})
}

// DecodeFailure reports a rejected input by format and failure class
// ("malformed", "schema" or "other").
func (c *Client) DecodeFailure(format string, err error) {
	if err == nil {
		return
	}
	c.Event("decode_failure", map[string]any{
		"format": format,
		"reason": FailureClass(err),
	})
}

// FailureClass maps a decode error onto the interchange error taxonomy.
func FailureClass(err error) string {
	switch {
	case errors.Is(err, interchange.ErrSchema):
		return "schema"
	case errors.Is(err, interchange.ErrMalformed):
		return "malformed"
	default:
		return "other"
	}
}

// Event queues an event on the default client.
func Event(name string, props map[string]any) { def().Event(name, props) }

// Conversion reports on the default client.
func Conversion(from, to string, scenes, paragraphs int) {
	def().Conversion(from, to, scenes, paragraphs)
}

// DecodeFailure reports on the default client.
func DecodeFailure(format string, err error) { def().DecodeFailure(format, err) }

// Flush waits until queued events and crash uploads are sent, for at most 500ms
// or until ctx is done. A nil ctx is allowed.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	t := time.NewTimer(flushWait)
	defer t.Stop()
	select {
	case <-done:
	case <-ctx.Done():
	case <-t.C:
	}
}

// Flush flushes the default client.
func Flush(ctx context.Context) { def().Flush(ctx) }

// Close stops the sender; queued events are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.q:
			batch := []envelope{ev}
		fill:
			for len(batch) < maxBatch {
				select {
				case ev := <-c.q:
					batch = append(batch, ev)
				default:
					break fill
				}
			}
			c.sendBatch(batch)
			c.pending.Add(-len(batch))
		}
	}
}

func (c *Client) sendBatch(batch []envelope) {
	buf, err := json.Marshal(batch)
	if err != nil {
		return
	}
	c.post(c.cfg.EventsURL, "application/json", buf, slog.Int("events", len(batch)))
}

func (c *Client) post(url, contentType string, body []byte, attrs ...any) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "goscreenwriter/"+version.Version)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", append(attrs, slog.Any("err", err))...)
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry sent", append(attrs, slog.Int("status", resp.StatusCode))...)
	}
}

// UploadCrash posts a crash report to the crash endpoint when opted in.
// Flush waits for the upload.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	b := append([]byte(nil), report...)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b, slog.Int("bytes", len(b)))
	}()
}

// UploadCrash uploads through the default client.
func UploadCrash(report []byte) { def().UploadCrash(report) }
