package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MaxBodyBytes bounds the size of a submission body.
const MaxBodyBytes = 64 << 10

// Engine defines the subset of canvass.Engine served over HTTP.
type Engine interface {
	Catalog() *domain.Catalog
	Start(ctx context.Context, surveyID, sessionID string) (*canvass.Step, error)
	Submit(ctx context.Context, surveyID, sessionID, questionID string, values ...string) (*canvass.Step, error)
	Decline(ctx context.Context, surveyID, sessionID, questionID string) (*canvass.Step, error)
	Delete(ctx context.Context, surveyID, sessionID string) error
	Subscribe(o canvass.Observer) (unsubscribe func())
}

var _ Engine = (*canvass.Engine)(nil)

// Server exposes survey sessions over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	router      chi.Router
	logger      *slog.Logger
	metrics     http.Handler
	origins     []string
	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAllowedOrigins sets the CORS allow list. Defaults to "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates the HTTP server and subscribes it to the engine's state diffs.
// Call Close to detach it from the engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	s.unsubscribe = engine.Subscribe(func(ctx context.Context, diff *domain.StateDiff) {
		payload, err := json.Marshal(diff)
		if err != nil {
			s.logger.Error("diff encode failed", "err", err)
			return
		}
		key := domain.SessionKey{SurveyID: diff.SurveyID, SessionID: diff.SessionID}
		s.Streams.Broadcast(key.String(), string(payload))
	})

	s.router = s.routes()
	return s
}

// NewHandler is a shorthand for NewServer when the caller never detaches the server.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/surveys", s.ListSurveys)
	r.Get("/surveys/{survey}", s.GetSurvey)

	r.Route("/{survey}/{session}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Post("/", s.PostAnswer)
		r.Delete("/", s.DeleteSession)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close detaches the server from the engine and ends open event streams.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.Streams.CloseAll()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "canvass-http",
		"version": strings.TrimSpace(canvass.Version),
		"surveys": s.Engine.Catalog().Len(),
	})
}

// ListSurveys handles GET /surveys.
func (s *Server) ListSurveys(w http.ResponseWriter, r *http.Request) {
	cat := s.Engine.Catalog()
	out := make([]SurveySummary, 0, cat.Len())
	for _, id := range cat.IDs() {
		survey, err := cat.Survey(id)
		if err != nil {
			continue
		}
		out = append(out, SurveySummary{ID: survey.ID, Title: survey.Title, Questions: len(survey.Questions)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetSurvey handles GET /surveys/{survey}.
func (s *Server) GetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := s.Engine.Catalog().Survey(chi.URLParam(r, "survey"))
	if err != nil {
		s.writeError(w, r, nil, err)
		return
	}
	s.writeJSON(w, http.StatusOK, survey)
}

// GetSession handles GET /{survey}/{session}: it opens the session on first contact
// and returns the question to present.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	surveyID, sessionID := chi.URLParam(r, "survey"), chi.URLParam(r, "session")

	step, err := s.Engine.Start(r.Context(), surveyID, sessionID)
	if err != nil {
		s.writeError(w, r, step, err)
		return
	}
	status := http.StatusOK
	if step.Created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, NewView(step))
}

// PostAnswer handles POST /{survey}/{session}.
func (s *Server) PostAnswer(w http.ResponseWriter, r *http.Request) {
	surveyID, sessionID := chi.URLParam(r, "survey"), chi.URLParam(r, "session")

	var body AnswerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.QuestionID == "" {
		s.writeBadRequest(w, "question_id is required")
		return
	}

	var (
		step *canvass.Step
		err  error
	)
	if body.Decline {
		step, err = s.Engine.Decline(r.Context(), surveyID, sessionID, body.QuestionID)
	} else {
		step, err = s.Engine.Submit(r.Context(), surveyID, sessionID, body.QuestionID, body.AllValues()...)
	}
	if err != nil {
		s.writeError(w, r, step, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewView(step))
}

// DeleteSession handles DELETE /{survey}/{session}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	surveyID, sessionID := chi.URLParam(r, "survey"), chi.URLParam(r, "session")
	if _, err := s.Engine.Catalog().Survey(surveyID); err != nil {
		s.writeError(w, r, nil, err)
		return
	}
	if err := s.Engine.Delete(r.Context(), surveyID, sessionID); err != nil {
		s.writeError(w, r, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch domain.Code(err) {
	case "unknown_survey", "session_not_found":
		return http.StatusNotFound
	case "out_of_turn", "already_complete":
		return http.StatusConflict
	case "invalid_answer":
		return http.StatusUnprocessableEntity
	case "invalid_session_key":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, step *canvass.Step, err error) {
	status := StatusFor(err)
	attrs := []any{
		"survey_id", chi.URLParam(r, "survey"),
		"session_id", chi.URLParam(r, "session"),
		"status", status,
		"err", err,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Debug("request rejected", attrs...)
	}

	apiErr := &APIError{Code: domain.Code(err), Message: err.Error()}

	// Rejected submissions carry the unchanged session so the client can redisplay the question.
	if step != nil {
		view := NewView(step)
		view.Error = apiErr
		s.writeJSON(w, status, view)
		return
	}
	s.writeJSON(w, status, ErrorResponse{Error: apiErr})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: &APIError{Code: "bad_request", Message: msg}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
