package dispatch

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/carpool-matching/internal/models"
)

var ErrNoSession = errors.New("no ws session")

const writeWait = 5 * time.Second

// Conn is the part of *websocket.Conn the registry writes through.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// WSSession represents a client connected to one matching session.
type WSSession struct {
	conn Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(ev models.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}

// WSRegistry holds one client connection per matching session.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[string]*WSSession), logger: logger}
}

// Add registers conn for sessionID, closing any connection it replaces.
func (r *WSRegistry) Add(sessionID string, conn Conn) {
	r.mu.Lock()
	old := r.sessions[sessionID]
	r.sessions[sessionID] = &WSSession{conn: conn}
	r.mu.Unlock()
	if old != nil {
		_ = old.conn.Close()
	}
}

// Remove drops conn if it is still the registered one for sessionID.
func (r *WSRegistry) Remove(sessionID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok && s.conn == conn {
		delete(r.sessions, sessionID)
	}
}

func (r *WSRegistry) Send(sessionID string, ev models.SessionEvent) error {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(ev); err != nil {
		r.logger.Warn("ws send failed", "session_id", sessionID, "event", ev.Type, "error", err)
		r.Remove(sessionID, s.conn)
		return err
	}
	return nil
}

// Notify delivers ev to the session's client if one is connected.
func (r *WSRegistry) Notify(ev models.SessionEvent) {
	if err := r.Send(ev.SessionID, ev); err != nil && !errors.Is(err, ErrNoSession) {
		r.logger.Debug("session event dropped", "session_id", ev.SessionID, "event", ev.Type)
	}
}

func (r *WSRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
