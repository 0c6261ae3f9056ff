package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/pool"
	"github.com/example/carpool-matching/internal/session"
	"github.com/example/carpool-matching/internal/wallet"
)

type createSessionRequest struct {
	Role models.Role         `json:"role"`
	User *models.UserProfile `json:"user,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.RoleRider
	}
	user := s.user
	if req.User != nil && req.User.ID != "" {
		user = *req.User
	}
	sess, err := s.newSession(uuid.NewString(), user, req.Role)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.addSession(sess)
	s.logger.Info("session created", "session_id", sess.ID(), "user_id", user.ID, "role", req.Role)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// withSession resolves {id} or answers 404.
func (s *Server) withSession(h func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		sess, ok := s.session(id)
		if !ok {
			s.writeDomainError(w, r, fmt.Errorf("%s: %w", id, errSessionNotFound))
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		writeJSON(w, http.StatusOK, sess.Snapshot())
	})(w, r)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.removeSession(id)
	if !ok {
		s.writeDomainError(w, r, fmt.Errorf("%s: %w", id, errSessionNotFound))
		return
	}
	sess.Leave()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var req struct {
			Role models.Role `json:"role"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := sess.SetRole(req.Role); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	})(w, r)
}

type submitResponse struct {
	State   session.State           `json:"state"`
	Matches []models.MatchCandidate `json:"matches"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var cmd session.SubmitCommand
		if err := decodeJSON(r, &cmd); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		matches, err := sess.Submit(r.Context(), cmd)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{State: sess.State(), Matches: matches})
	})(w, r)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var req struct {
			CandidateID string `json:"candidate_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := sess.Select(req.CandidateID); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	})(w, r)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var req struct {
			Text string `json:"text"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		msg, err := sess.SendMessage(req.Text)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	})(w, r)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		item, err := sess.Confirm(r.Context())
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	})(w, r)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		sess.Leave()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	})(w, r)
}

type positionResponse struct {
	SessionID string       `json:"session_id"`
	Position  models.Coord `json:"position"`
}

// handlePosition answers from the live session when this process holds it
// and from the position store otherwise.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if sess, ok := s.session(id); ok {
		pos, ok := sess.Position()
		if !ok {
			s.writeDomainError(w, r, fmt.Errorf("%s: %w", id, geo.ErrNoPosition))
			return
		}
		writeJSON(w, http.StatusOK, positionResponse{SessionID: id, Position: pos})
		return
	}
	if s.positions == nil {
		s.writeDomainError(w, r, fmt.Errorf("%s: %w", id, errSessionNotFound))
		return
	}
	pos, err := s.positions.Lookup(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{SessionID: id, Position: pos})
}

// handleListPool serves the community feed. The driver view applies the
// default price ceiling unless max_price is given.
func (s *Server) handleListPool(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := models.Role(strings.ToUpper(q.Get("view")))
	if view == "" {
		view = models.RoleDriver
	}
	if !view.Valid() {
		writeError(w, http.StatusBadRequest, "view must be DRIVER or RIDER")
		return
	}
	sortBy := pool.SortCriterion(strings.ToUpper(q.Get("sort")))
	if sortBy == "" {
		sortBy = pool.SortRecommended
	}
	if !sortBy.Valid() {
		writeError(w, http.StatusBadRequest, "unknown sort "+q.Get("sort"))
		return
	}
	query := pool.Query{View: view, Text: q.Get("q"), SortBy: sortBy}
	if view == models.RoleDriver {
		maxPrice := s.defaultMaxPrice
		if v := q.Get("max_price"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				writeError(w, http.StatusBadRequest, "invalid max_price")
				return
			}
			maxPrice = f
		}
		query.MaxPrice = &maxPrice
	}
	writeJSON(w, http.StatusOK, map[string]any{"view": view, "sort": sortBy, "items": s.pool.List(query)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.history.List(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []models.RideHistoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.wallet.List()})
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var cmd wallet.AddCardCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pm, err := s.wallet.Add(cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pm)
}

func (s *Server) handleRemovePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Remove(mux.Vars(r)["id"]); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.SetDefault(mux.Vars(r)["id"]); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.wallet.List()})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWS streams session events until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.session(id); !ok {
		s.writeDomainError(w, r, fmt.Errorf("%s: %w", id, errSessionNotFound))
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "session_id", id, "error", err)
		return
	}
	s.wsreg.Add(id, conn)
	defer func() {
		s.wsreg.Remove(id, conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
