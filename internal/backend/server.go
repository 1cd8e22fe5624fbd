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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/export"
	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/version"
)

const (
	defaultMaxUpload = 10 << 20
	devSecret        = "dev-secret-change-me"
)

// Config holds server configuration.
type Config struct {
	DBURL          string // empty keeps screenplays in memory
	Addr           string // http bind address, e.g., ":8080"
	Secret         string
	MaxUploadBytes int64
	Parse          script.ParseOptions
}

// LoadConfig reads the server configuration from the environment.
func LoadConfig() Config {
	cfg := Config{
		DBURL:          os.Getenv("DATABASE_URL"),
		Addr:           ":8080",
		Secret:         os.Getenv("GSW_AUTH_SECRET"),
		MaxUploadBytes: defaultMaxUpload,
		Parse:          script.DefaultParseOptions(),
	}
	if v := os.Getenv("GSW_PG_DSN"); v != "" {
		cfg.DBURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("GSW_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}
	return cfg
}

// Server serves the upload/export API over a Store.
type Server struct {
	store Store
	cfg   Config
	log   *slog.Logger
}

// NewServer fills configuration defaults. An empty secret falls back to an insecure dev secret.
func NewServer(store Store, cfg Config) *Server {
	l := applog.WithComponent("backend")
	if cfg.Secret == "" {
		cfg.Secret = devSecret
		l.Warn("GSW_AUTH_SECRET not set; using insecure dev secret")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	return &Server{store: store, cfg: cfg, log: l}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("gswserver " + version.String()))
	})
	mux.HandleFunc("POST /api/auth/token", s.handleToken)

	auth := func(h http.HandlerFunc) http.HandlerFunc { return withAuth(s.cfg.Secret, h) }
	mux.HandleFunc("POST /api/screenplays", auth(s.handleUpload))
	mux.HandleFunc("GET /api/screenplays", auth(s.handleList))
	mux.HandleFunc("GET /api/screenplays/{id}", auth(s.handleGet))
	mux.HandleFunc("GET /api/screenplays/{id}/export", auth(s.handleExport))
	mux.HandleFunc("GET /api/screenplays/{id}/search", auth(s.handleSearch))
	return s.logRequests(crash.Middleware(mux))
}

// POST /api/auth/token → { token, expires_at }
// Optional JSON body: { "subject": "name", "ttl_seconds": 3600 }
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = json.Unmarshal(b, &req)
	if req.Subject == "" {
		req.Subject = "dev"
	}
	if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
		req.TTLSeconds = 3600
	}
	exp := time.Now().Add(time.Duration(req.TTLSeconds) * time.Second)
	tok, err := signToken(s.cfg.Secret, req.Subject, exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

// screenplayResponse is a summary plus the interchange JSON scene tree.
type screenplayResponse struct {
	Summary
	Screenplay json.RawMessage `json:"screenplay"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(w, r, s.cfg.MaxUploadBytes)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", mbe.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := interchange.DetectFormat(name, data)
	ctx := applog.ContextWithDocument(r.Context(), name, string(format))
	l := s.log.With(slog.String("sub", subjectFrom(ctx)))
	sp, err := interchange.Decode(format, data, s.cfg.Parse)
	if err != nil {
		l.InfoContext(ctx, "upload rejected", slog.Any("err", err))
		status := http.StatusBadRequest
		if errors.Is(err, interchange.ErrSchema) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	sum, err := s.store.Create(ctx, name, format, sp)
	if err != nil {
		l.ErrorContext(ctx, "store screenplay", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	body, err := interchange.EncodeJSON(sp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	l.InfoContext(ctx, "screenplay stored", slog.Int64("id", sum.ID), slog.Int("scenes", sum.Scenes))
	writeJSON(w, http.StatusCreated, screenplayResponse{Summary: sum, Screenplay: body})
}

// readUpload takes the multipart "file" field, or the raw body named by ?name=.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var (
		name string
		data []byte
		err  error
	)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(limit); err != nil {
			return "", nil, fmt.Errorf("read multipart: %w", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("missing file field: %w", err)
		}
		defer func() { _ = f.Close() }()
		name = hdr.Filename
		if data, err = io.ReadAll(f); err != nil {
			return "", nil, err
		}
	} else {
		name = r.URL.Query().Get("name")
		if data, err = io.ReadAll(r.Body); err != nil {
			return "", nil, err
		}
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty upload")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "untitled"
	}
	return name, data, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	body, err := interchange.EncodeJSON(rec.Screenplay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, screenplayResponse{Summary: rec.Summary, Screenplay: body})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t, err := export.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	var data []byte
	if t == export.TypeBundle {
		data, err = export.Bundle(rec.Screenplay, rec.Name, export.Options{})
	} else {
		data, err = export.Payload(rec.Screenplay, t, export.Options{})
	}
	if err != nil {
		s.log.Error("export failed", slog.Int64("id", rec.ID), slog.String("type", string(t)), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(t))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName("export", t)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid screenplay id"))
		return
	}
	qv := r.URL.Query()
	q := storage.SearchQuery{
		Text:      qv.Get("q"),
		Character: qv.Get("character"),
		Types:     qv["type"],
	}
	for key, dst := range map[string]*int{"scene_from": &q.SceneFrom, "scene_to": &q.SceneTo, "limit": &q.Limit, "offset": &q.Offset} {
		v := qv.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s", key))
			return
		}
		*dst = n
	}
	res, err := s.store.Search(r.Context(), id, q)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if res == nil {
		res = []storage.SearchResult{}
	}
	writeJSON(w, http.StatusOK, res)
}

// record loads the screenplay named by the {id} path value, writing the error response itself.
func (s *Server) record(w http.ResponseWriter, r *http.Request) (Record, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid screenplay id"))
		return Record{}, false
	}
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return Record{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return Record{}, false
	}
	return rec, true
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}

// Start opens the configured store and serves until ctx is cancelled.
func Start(ctx context.Context, cfg Config) error {
	l := applog.WithComponent("backend")
	var store Store
	if cfg.DBURL == "" {
		l.Warn("no database configured; screenplays are kept in memory")
		store = NewMemStore()
	} else {
		pg, err := OpenPG(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		store = pg
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Error("store close", slog.Any("err", err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewServer(store, cfg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		l.Info("gswserver listening", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.Info("shutting down")
		return srv.Shutdown(sctx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
