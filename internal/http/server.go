package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/carpool-matching/internal/dispatch"
	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/observability"
	"github.com/example/carpool-matching/internal/pool"
	"github.com/example/carpool-matching/internal/session"
	"github.com/example/carpool-matching/internal/storage"
	"github.com/example/carpool-matching/internal/wallet"
)

var errSessionNotFound = errors.New("session not found")

// SessionFactory builds a session wired to the server's collaborators.
type SessionFactory func(id string, user models.UserProfile, role models.Role) (*session.Session, error)

// PositionReader serves positions recorded by sessions this process no
// longer holds, such as those of another replica or a previous run.
type PositionReader interface {
	Lookup(ctx context.Context, sessionID string) (models.Coord, error)
}

type Options struct {
	Pool            *pool.Pool
	Wallet          *wallet.Wallet
	History         storage.HistoryStore
	WSReg           *dispatch.WSRegistry
	Positions       PositionReader
	NewSession      SessionFactory
	User            models.UserProfile
	DefaultMaxPrice float64
	Logger          *slog.Logger
}

type Server struct {
	pool            *pool.Pool
	wallet          *wallet.Wallet
	history         storage.HistoryStore
	wsreg           *dispatch.WSRegistry
	positions       PositionReader
	newSession      SessionFactory
	user            models.UserProfile
	defaultMaxPrice float64
	logger          *slog.Logger
	mux             *mux.Router

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wsreg := opts.WSReg
	if wsreg == nil {
		wsreg = dispatch.NewWSRegistry(logger)
	}
	s := &Server{
		pool:            opts.Pool,
		wallet:          opts.Wallet,
		history:         opts.History,
		wsreg:           wsreg,
		positions:       opts.Positions,
		newSession:      opts.NewSession,
		user:            opts.User,
		defaultMaxPrice: opts.DefaultMaxPrice,
		logger:          logger,
		mux:             mux.NewRouter(),
		sessions:        make(map[string]*session.Session),
	}
	s.routes()
	s.registerMiddleware()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/role", s.handleSetRole).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/submit", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/confirm", s.handleConfirm).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/leave", s.handleLeave).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/position", s.handlePosition).Methods(http.MethodGet)

	api.HandleFunc("/pool", s.handleListPool).Methods(http.MethodGet)
	api.HandleFunc("/users/{user_id}/history", s.handleHistory).Methods(http.MethodGet)

	api.HandleFunc("/payment-methods", s.handleListPaymentMethods).Methods(http.MethodGet)
	api.HandleFunc("/payment-methods", s.handleAddPaymentMethod).Methods(http.MethodPost)
	api.HandleFunc("/payment-methods/{id}", s.handleRemovePaymentMethod).Methods(http.MethodDelete)
	api.HandleFunc("/payment-methods/{id}/default", s.handleSetDefaultPaymentMethod).Methods(http.MethodPost)

	s.mux.HandleFunc("/ws/sessions/{id}", s.handleWS).Methods(http.MethodGet)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Notifier forwards session events to connected websocket clients.
func (s *Server) Notifier() *dispatch.WSRegistry { return s.wsreg }

func (s *Server) session(id string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) addSession(sess *session.Session) {
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
}

func (s *Server) removeSession(id string) (*session.Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
	return sess, ok
}

// Shutdown leaves every session so no timer outlives the server.
func (s *Server) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Leave()
	}
	observability.ActiveSessions.Set(0)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps package errors to status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrValidation),
		errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, wallet.ErrInvalidCard):
		status = http.StatusBadRequest
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, geo.ErrNoPosition),
		errors.Is(err, session.ErrUnknownCandidate),
		errors.Is(err, wallet.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrSessionReset):
		status = http.StatusConflict
	case errors.Is(err, session.ErrMatchService):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "route", routeTemplate(r), "request_id", requestIDFromContext(r.Context()), "error", err)
	}
	resp := errorResponse{Error: err.Error()}
	var ve *session.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
