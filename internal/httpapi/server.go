package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/session"
)

// VerifyKeyFunc checks an imgix management API key for validity. It gets a
// fresh key from the configuration screen, not the server's own.
type VerifyKeyFunc func(ctx context.Context, apiKey string) error

type Server struct {
	sessions  *session.Manager
	verifyKey VerifyKeyFunc
	newDialog DialogFactory
	logger    *logging.Logger
	server    *http.Server
}

func New(sessions *session.Manager, verifyKey VerifyKeyFunc, newDialog DialogFactory, logger *logging.Logger) *Server {
	return &Server{
		sessions:  sessions,
		verifyKey: verifyKey,
		newDialog: newDialog,
		logger:    logger,
	}
}

// Handler builds the route table. Split out of Start so tests can serve it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Configuration-screen routes
	mux.HandleFunc("/api/config/verify", s.corsMiddleware(s.handleVerifyKey))
	mux.HandleFunc("/api/params/reduce", s.corsMiddleware(s.handleReduceParams))

	// Dialog routes
	dialogAPI := NewDialogAPI(s.sessions, s.newDialog, s.logger)
	dialogAPI.RegisterRoutes(mux, s.corsMiddleware)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// handleVerifyKey runs the configuration screen's connectivity check: an API
// key is valid exactly when the sources listing accepts it.
func (s *Server) handleVerifyKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.APIKey == "" {
		s.writeError(w, http.StatusBadRequest, "apiKey is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	verified := true
	if err := s.verifyKey(ctx, body.APIKey); err != nil {
		s.logger.Info("API key verification failed", logging.WithField("error", err.Error()))
		verified = false
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{
		"successfullyVerified": verified,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
