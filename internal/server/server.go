// Package server exposes the anchor pads of all users over HTTP so a
// browser-side host can post drag data.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/anchors/internal/anchors"
	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/resolve"
)

// maxDropBytes bounds the size of a drop body.
const maxDropBytes = 1 << 20

// Config configures a Server.
type Config struct {
	Registry  *anchors.Registry
	Resolver  *resolve.Resolver
	Documents resolve.DocumentLookup
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server routes HTTP requests to per-user pads.
type Server struct {
	registry  *anchors.Registry
	resolver  *resolve.Resolver
	documents resolve.DocumentLookup
	logger    *slog.Logger

	mu   sync.Mutex
	pads map[string]*anchors.Pad
}

// New creates a Server.
func New(cfg Config) *Server {
	cfg.defaults()
	return &Server{
		registry:  cfg.Registry,
		resolver:  cfg.Resolver,
		documents: cfg.Documents,
		logger:    cfg.Logger,
		pads:      map[string]*anchors.Pad{},
	}
}

// Router returns a chi router with all anchor routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the anchor endpoints on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Route("/users/{user}/anchors", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleAddManual)
		r.Post("/drop", s.handleDrop)
		r.Delete("/{index}", s.handleDelete)
		r.Get("/{index}/enricher", s.handleEnricher)
		r.Get("/{index}/document", s.handleOpen)
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// pad returns the pad of user, creating it on first use.
func (s *Server) pad(user string) *anchors.Pad {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pads[user]; ok {
		return p
	}
	logger := s.logger.With("user", user)
	p := anchors.NewPad(anchors.PadParams{
		Resolver:  s.resolver,
		Manager:   s.registry.For(user),
		Documents: s.documents,
		Notifier:  anchors.LogNotifier{Logger: logger},
		Logger:    logger,
	})
	s.pads[user] = p
	return p
}

type listResponse struct {
	User    string     `json:"user"`
	Anchors model.List `json:"anchors"`
}

// ManualRequest is the body for POST /users/{user}/anchors.
type ManualRequest struct {
	UUID  string `json:"uuid"`
	Label string `json:"label"`
}

// handleList returns the stored anchors.
// GET /users/{user}/anchors
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	list, err := s.pad(user).Entries(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{User: user, Anchors: list})
}

// handleDrop resolves raw drag data and anchors it.
// POST /users/{user}/anchors/drop
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDropBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "drop too large"})
			return
		}
		s.logger.DebugContext(r.Context(), "drop body read failed", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "could not read drop body"})
		return
	}

	list, err := s.pad(user).Drop(r.Context(), r.Header.Get("Content-Type"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listResponse{User: user, Anchors: list})
}

// handleAddManual anchors a typed identifier.
// POST /users/{user}/anchors
func (s *Server) handleAddManual(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	var req ManualRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDropBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	list, err := s.pad(user).AddManual(r.Context(), req.UUID, req.Label)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listResponse{User: user, Anchors: list})
}

// handleDelete removes the anchor at index.
// DELETE /users/{user}/anchors/{index}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	list, err := s.pad(user).Delete(r.Context(), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{User: user, Anchors: list})
}

// handleEnricher returns the rich-text reference of the anchor at index.
// GET /users/{user}/anchors/{index}/enricher
func (s *Server) handleEnricher(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	text, err := s.pad(chi.URLParam(r, "user")).Enricher(r.Context(), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"enricher": text})
}

// handleOpen returns the live document behind the anchor at index.
// GET /users/{user}/anchors/{index}/document
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	doc, err := s.pad(chi.URLParam(r, "user")).Open(r.Context(), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "index must be an integer"})
		return 0, false
	}
	return index, true
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps pad errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, resolve.ErrUnrecognizedDrop),
		errors.Is(err, resolve.ErrNoIdentifierFound),
		errors.Is(err, resolve.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, anchors.ErrIndexOutOfRange),
		errors.Is(err, anchors.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequests logs one line per request through slog.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
