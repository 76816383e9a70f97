// Package httpapi serves the schema map over HTTP: the compact encoding, the
// SDL, single type lookups and document validation.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/mirror"
	"futarchy-graph/internal/observability"
	"futarchy-graph/internal/schema"
	"futarchy-graph/internal/storage"
)

// maxDocumentSize bounds POST /validate bodies.
const maxDocumentSize = 1 << 20

// Server holds the rendered schema and its HTTP handlers.
type Server struct {
	schema      *schema.Schema
	validator   *schema.Validator
	compact     []byte
	sdl         string
	fingerprint string

	cursors storage.CursorStore
	now     func() time.Time
	logger  logrus.FieldLogger
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCursors exposes mirror progress on GET /streams.
func WithCursors(c storage.CursorStore) Option {
	return func(s *Server) {
		s.cursors = c
	}
}

// NewServer renders s once and builds the router.
func NewServer(s *schema.Schema, opts ...Option) (*Server, error) {
	compact, err := schema.MarshalCompact(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	fingerprint, err := schema.Fingerprint(s)
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator(s)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		schema:      s,
		validator:   validator,
		compact:     compact,
		sdl:         schema.SDL(s),
		fingerprint: fingerprint,
		now:         time.Now,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.handler = srv.routes()
	return srv, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Fingerprint returns the fingerprint of the served schema.
func (s *Server) Fingerprint() string {
	return s.fingerprint
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/schema.json", s.handleCompact).Methods(http.MethodGet)
	r.HandleFunc("/schema.graphql", s.handleSDL).Methods(http.MethodGet)
	r.HandleFunc("/schema/fingerprint", s.handleFingerprint).Methods(http.MethodGet)
	r.HandleFunc("/types/{name}", s.handleType).Methods(http.MethodGet)
	r.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	if s.cursors != nil {
		r.HandleFunc("/streams", s.handleStreams).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler())
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("http request")
	})
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", `"`+s.fingerprint+`"`)
	w.Write(s.compact)
}

func (s *Server) handleSDL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("ETag", `"`+s.fingerprint+`"`)
	io.WriteString(w, s.sdl)
}

func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	doJSONWrite(w, http.StatusOK, map[string]any{
		"fingerprint": s.fingerprint,
		"types":       len(s.schema.Types),
	})
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	t, ok := s.schema.Type(name)
	if !ok {
		doJSONWrite(w, http.StatusNotFound, apiError("unknown type "+name))
		return
	}
	doJSONWrite(w, http.StatusOK, newTypeView(t))
}

// ValidateResponse is the JSON response of POST /validate.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// handleValidate accepts either a GraphQL request body {"query": ...} or the
// bare document.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize+1))
	if err != nil {
		doJSONWrite(w, http.StatusBadRequest, apiError("read body: "+err.Error()))
		return
	}
	if len(body) > maxDocumentSize {
		doJSONWrite(w, http.StatusRequestEntityTooLarge, apiError("document too large"))
		return
	}

	document := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			doJSONWrite(w, http.StatusBadRequest, apiError("decode request: "+err.Error()))
			return
		}
		document = req.Query
	}
	if strings.TrimSpace(document) == "" {
		doJSONWrite(w, http.StatusBadRequest, apiError("empty document"))
		return
	}

	resp := ValidateResponse{Valid: true}
	if err := s.validator.Validate(document); err != nil {
		resp.Valid = false
		if ve, ok := err.(*schema.ValidationError); ok {
			resp.Errors = ve.Messages
		} else {
			resp.Errors = []string{err.Error()}
		}
	}
	doJSONWrite(w, http.StatusOK, resp)
}

// StreamStatus is one entry of GET /streams.
type StreamStatus struct {
	Stream    string          `json:"stream"`
	Column    string          `json:"column"`
	Value     json.RawMessage `json:"value"`
	Ties      int             `json:"ties"`
	UpdatedAt time.Time       `json:"updated_at"`
	Lag       string          `json:"lag,omitempty"`
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := s.cursors.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("list cursors")
		doJSONWrite(w, http.StatusInternalServerError, apiError("list cursors failed"))
		return
	}
	lag, err := mirror.Lag(ctx, s.cursors, s.now())
	if err != nil {
		s.logger.WithError(err).Error("compute lag")
		doJSONWrite(w, http.StatusInternalServerError, apiError("compute lag failed"))
		return
	}

	out := make([]StreamStatus, 0, len(list))
	for _, c := range list {
		st := StreamStatus{Stream: c.Stream, Column: c.Column, Value: c.Value, Ties: c.Ties, UpdatedAt: c.UpdatedAt}
		if d, ok := lag[c.Stream]; ok {
			st.Lag = d.Truncate(time.Second).String()
		}
		out = append(out, st)
	}
	doJSONWrite(w, http.StatusOK, out)
}
