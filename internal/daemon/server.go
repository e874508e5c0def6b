package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/app"
	"github.com/felixgeelhaar/masterylab/internal/config"
	"github.com/felixgeelhaar/masterylab/internal/curriculum"
	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/llm"
)

// Version is reported by /v1/status
var Version = "0.1.0"

// Server represents the Mastery Lab daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux
	app    *app.App
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config     *config.LocalConfig
	MasteryDir string       // Resolves relative storage paths; default ~/.mastery
	Provider   llm.Provider // Optional: replaces the configured Claude provider
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	a, err := app.New(ctx, cfg.Config, app.Options{
		MasteryDir: cfg.MasteryDir,
		Provider:   cfg.Provider,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg.Config,
		router: http.NewServeMux(),
		app:    a,
	}
	s.setupRoutes()

	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(metricsMiddleware(a.Metrics, s.router))))
	s.server = &http.Server{
		Addr:         cfg.Config.Daemon.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Config.RequestTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)
	if s.app.Metrics != nil {
		s.router.Handle("GET /metrics", s.app.Metrics.Handler())
	}

	// Curriculum
	s.router.HandleFunc("GET /v1/curriculum", s.handleCurriculum)
	s.router.HandleFunc("GET /v1/curriculum/weeks/{week}", s.handleWeek)
	s.router.HandleFunc("GET /v1/challenges/{id}", s.handleGetChallenge)

	// Progress
	s.router.HandleFunc("GET /v1/progress", s.handleProgress)
	s.router.HandleFunc("PUT /v1/progress/customization", s.handleCustomize)

	// Content
	s.router.HandleFunc("GET /v1/tips/random", s.handleRandomTip)
	s.router.HandleFunc("GET /v1/themes", s.handleThemes)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("PUT /v1/sessions/{id}/challenge", s.handleSelectChallenge)
	s.router.HandleFunc("POST /v1/sessions/{id}/hints", s.handleRevealHint)
	s.router.HandleFunc("POST /v1/sessions/{id}/solution", s.handleToggleSolution)
	s.router.HandleFunc("POST /v1/sessions/{id}/narrative", s.handleToggleNarrative)
	s.router.HandleFunc("PUT /v1/sessions/{id}/buffer", s.handleEditBuffer)
	s.router.HandleFunc("POST /v1/sessions/{id}/submit", s.handleSubmit)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting mastery daemon",
		"addr", s.server.Addr,
		"challenges", s.app.Catalog.Len(),
		"storage", s.cfg.Storage.Driver,
		"model", s.cfg.LLM.Model,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)
	if closeErr := s.app.Close(); closeErr != nil {
		slog.Warn("failed to close services", "error", closeErr)
	}
	return err
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":           "running",
		"version":          Version,
		"model":            s.cfg.LLM.Model,
		"llm_configured":   s.cfg.LLM.APIKey != "",
		"storage":          s.cfg.Storage.Driver,
		"events":           s.app.EventsConnected(),
		"challenges":       s.app.Catalog.Len(),
		"content_warnings": s.app.Catalog.Warnings(),
		"sessions":         len(s.app.Sessions.List(r.Context())),
	}
	if s.app.StorageErr != nil {
		status["storage_error"] = s.app.StorageErr.Error()
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// challengeView hides the hints and reference solution; they are revealed
// through a session.
type challengeView struct {
	*domain.Challenge
	State     domain.ChallengeState `json:"state"`
	HintCount int                   `json:"hintCount"`
	Hints     []string              `json:"hints,omitempty"`
	Solution  string                `json:"solution,omitempty"`
}

func newChallengeView(c *domain.Challenge, p *domain.UserProgress) challengeView {
	return challengeView{
		Challenge: c,
		State:     curriculum.State(c, p),
		HintCount: len(c.Hints),
	}
}

func (s *Server) challengeViews(challenges []*domain.Challenge, p *domain.UserProgress) []challengeView {
	out := make([]challengeView, 0, len(challenges))
	for _, c := range challenges {
		out = append(out, newChallengeView(c, p))
	}
	return out
}

func (s *Server) handleCurriculum(w http.ResponseWriter, r *http.Request) {
	p := s.app.Tracker.Snapshot()
	catalog := s.app.Catalog

	weeks := make([]curriculum.WeekProgress, 0)
	for _, week := range catalog.Weeks() {
		weeks = append(weeks, catalog.WeekProgress(week, p))
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"challenges": s.challengeViews(catalog.All(), p),
		"weeks":      weeks,
		"overall":    catalog.OverallProgress(p),
	})
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil || week <= 0 {
		s.jsonError(w, http.StatusBadRequest, "week must be a positive integer", err)
		return
	}

	p := s.app.Tracker.Snapshot()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"week":       week,
		"challenges": s.challengeViews(s.app.Catalog.ChallengesForWeek(week), p),
		"progress":   s.app.Catalog.WeekProgress(week, p),
	})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.app.Catalog.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "challenge not found", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, newChallengeView(c, s.app.Tracker.Snapshot()))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p := s.app.Tracker.Snapshot()
	catalog := s.app.Catalog

	resp := map[string]any{
		"progress":  p,
		"completed": p.CompletedCount(),
		"total":     catalog.Len(),
		"overall":   catalog.OverallProgress(p),
	}
	if next := catalog.Next(p); next != nil {
		resp["next"] = next.ID
	}
	if err := s.app.Tracker.LastPersistError(); err != nil {
		resp["persist_error"] = err.Error()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleCustomize(w http.ResponseWriter, r *http.Request) {
	var req domain.Customization
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.app.Tracker.Customize(r.Context(), &req); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to save customization", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.app.Tracker.Snapshot())
}

func (s *Server) handleRandomTip(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"tip": s.app.Tips.RandomAITip(),
	}
	if rw, ok := s.app.Tips.RandomRealWorldTip(); ok {
		resp["real_world"] = rw
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"themes": s.app.Tips.Themes(),
	})
}

// Session handlers

type challengeRequest struct {
	ChallengeID string `json:"challenge_id"`
}

func (s *Server) decodeChallengeRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return "", false
	}
	if req.ChallengeID == "" {
		s.jsonError(w, http.StatusBadRequest, "challenge_id is required", nil)
		return "", false
	}
	return req.ChallengeID, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := s.decodeChallengeRequest(w, r)
	if !ok {
		return
	}

	sess, err := s.app.Sessions.Create(r.Context(), challengeID)
	if err != nil {
		s.sessionError(w, "failed to create session", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.app.Sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, "failed to get session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.sessionError(w, "failed to delete session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}

func (s *Server) handleSelectChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := s.decodeChallengeRequest(w, r)
	if !ok {
		return
	}

	sess, err := s.app.Sessions.Select(r.Context(), r.PathValue("id"), challengeID)
	if err != nil {
		s.sessionError(w, "failed to select challenge", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleRevealHint(w http.ResponseWriter, r *http.Request) {
	sess, err := s.app.Sessions.RevealNextHint(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, "failed to reveal hint", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleToggleSolution(w http.ResponseWriter, r *http.Request) {
	sess, err := s.app.Sessions.ToggleSolution(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, "failed to toggle solution", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleToggleNarrative(w http.ResponseWriter, r *http.Request) {
	sess, err := s.app.Sessions.ToggleNarrative(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, "failed to toggle narrative", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleEditBuffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code *string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Code == nil {
		s.jsonError(w, http.StatusBadRequest, "code is required", nil)
		return
	}

	sess, err := s.app.Sessions.EditBuffer(r.Context(), r.PathValue("id"), *req.Code)
	if err != nil {
		s.sessionError(w, "failed to update buffer", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, err := s.app.Sessions.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, "failed to submit", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

// Helper methods

func (s *Server) sessionError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, domain.ErrChallengeNotFound):
		s.jsonError(w, http.StatusNotFound, "challenge not found", nil)
	case errors.Is(err, domain.ErrChallengeLocked):
		s.jsonError(w, http.StatusForbidden, "challenge is locked", err)
	case errors.Is(err, domain.ErrEvaluationInFlight):
		s.jsonError(w, http.StatusConflict, "evaluation in progress", err)
	default:
		s.jsonError(w, http.StatusInternalServerError, message, err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// Handler returns the full middleware chain, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
