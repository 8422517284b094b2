// Package mock provides an in-process fake of the Story Spoiler API. It backs
// the suite's own tests and the mock command for offline runs.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the port the mock command listens on
	DefaultPort = 5080
	// tokenTTL bounds the lifetime of issued access tokens
	tokenTTL = time.Hour
)

// Server is a fake Story Spoiler service
type Server struct {
	router    chi.Router
	store     *Store
	users     map[string]string
	secret    []byte
	port      int
	delay     time.Duration
	nestedIDs bool
	logger    *zap.Logger
	now       func() time.Time
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithUser registers an account that may authenticate
func WithUser(username, password string) Option {
	return func(s *Server) {
		s.users[username] = password
	}
}

// WithSecret sets the HMAC key used to sign access tokens
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithNestedIDs makes create responses carry the id under "data" instead of
// at the top level
func WithNestedIDs(nested bool) Option {
	return func(s *Server) {
		s.nestedIDs = nested
	}
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new fake server
func NewServer(opts ...Option) *Server {
	s := &Server{
		store:  NewStore(),
		users:  make(map[string]string),
		secret: []byte("storyspoiler-mock-secret"),
		port:   DefaultPort,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Store exposes the server's stories for inspection
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestLog)
	if s.delay > 0 {
		r.Use(s.latency)
	}

	r.Post(story.AuthenticationPath, s.handleAuthenticate)

	r.Route("/api/Story", func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/Create", s.handleCreate)
		r.Put("/Edit/{storyId}", s.handleEdit)
		r.Get("/All", s.handleAll)
		r.Delete("/Delete/{storyId}", s.handleDelete)
	})

	return r
}

// ServeHTTP implements http.Handler so the server can back httptest servers
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mock server starting",
		zap.String("url", fmt.Sprintf("http://localhost:%d", s.port)),
		zap.Int("users", len(s.users)))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, message("Unauthorized"))
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, message("Unauthorized"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, message("Invalid request body"))
		return
	}

	password, ok := s.users[creds.Username]
	if !ok || password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, message("Invalid username or password!"))
		return
	}

	now := s.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   creds.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}).SignedString(s.secret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, message("Unable to issue token"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username":    creds.Username,
		"accessToken": token,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	created := s.store.Create(payload)

	body := map[string]any{"msg": story.MsgCreated}
	if s.nestedIDs {
		body["data"] = map[string]any{"storyId": created.ID}
	} else {
		body["storyId"] = created.ID
	}
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "storyId")
	if _, exists := s.store.Get(id); !exists {
		writeJSON(w, http.StatusNotFound, message(story.MsgNotFound))
		return
	}

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	s.store.Update(id, payload)
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":     story.MsgEdited,
		"storyId": id,
	})
}

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.All())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "storyId")
	if !s.store.Delete(id) {
		writeJSON(w, http.StatusBadRequest, message(story.MsgUnableToDelete))
		return
	}
	writeJSON(w, http.StatusOK, message(story.MsgDeleted))
}

// decodePayload writes a 400 with field errors when the body is unusable.
func decodePayload(w http.ResponseWriter, r *http.Request) (story.Payload, bool) {
	var p story.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, message("Invalid request body"))
		return p, false
	}

	errs := map[string][]string{}
	if strings.TrimSpace(p.Title) == "" {
		errs["Title"] = []string{"The Title field is required."}
	}
	if strings.TrimSpace(p.Description) == "" {
		errs["Description"] = []string{"The Description field is required."}
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"title":  "One or more validation errors occurred.",
			"status": http.StatusBadRequest,
			"errors": errs,
		})
		return p, false
	}
	return p, true
}

func message(msg string) map[string]string {
	return map[string]string{"msg": msg}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
