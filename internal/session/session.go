// Package session runs one user's search, connect and confirm flow.
//
// A Session is safe for concurrent use. Timer callbacks carry the generation
// they were scheduled in; Leave bumps the generation so a callback that
// races with teardown sees a stale generation and does nothing.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/observability"
	"github.com/example/carpool-matching/internal/payments"
	"github.com/example/carpool-matching/internal/pool"
	"github.com/example/carpool-matching/internal/scoring"
	"github.com/example/carpool-matching/internal/timewindow"
	"github.com/example/carpool-matching/internal/tracking"
)

const (
	DefaultDepartureTime = "08:30"
	currency             = "usd"
)

type MatchProvider interface {
	FindMatches(ctx context.Context, req models.RideRequest) ([]models.MatchCandidate, error)
}

type LateMatchSource interface {
	LateMatch(role models.Role) (models.MatchCandidate, bool)
}

type Scorer interface {
	ScoreAll(req models.RideRequest, cands []models.MatchCandidate) []models.MatchCandidate
}

type PostPublisher interface {
	Publish(ctx context.Context, c models.MatchCandidate) error
}

type HistoryRecorder interface {
	Append(ctx context.Context, userID string, item models.RideHistoryItem) error
}

type PaymentHolder interface {
	Hold(ctx context.Context, amount int64, currency, customerID, rideRef string) (string, error)
	Release(ctx context.Context, paymentIntentID string) error
}

type Notifier interface {
	Notify(ev models.SessionEvent)
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type PositionRecorder interface {
	Record(ctx context.Context, sessionID string, c models.Coord) error
	Forget(ctx context.Context, sessionID string) error
}

// Deps are the collaborators of a session. Provider is required; the rest
// are optional.
type Deps struct {
	Provider  MatchProvider
	LateMatch LateMatchSource
	Scorer    Scorer
	Posts     PostPublisher
	History   HistoryRecorder
	Payments  PaymentHolder
	Notifier  Notifier
	Events    EventPublisher
	Positions PositionRecorder
	Clock     clock.Clock
	Logger    *slog.Logger
}

type Timings struct {
	MatchTimeout   time.Duration
	LateMatchDelay time.Duration
	ToastDuration  time.Duration
	ReplyDelay     time.Duration
	TrackDuration  time.Duration
	TrackTick      time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		MatchTimeout:   10 * time.Second,
		LateMatchDelay: 5 * time.Second,
		ToastDuration:  4 * time.Second,
		ReplyDelay:     2 * time.Second,
		TrackDuration:  30 * time.Second,
		TrackTick:      100 * time.Millisecond,
	}
}

// withDefaults fills zero durations from DefaultTimings.
func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	for _, f := range []struct{ v, def *time.Duration }{
		{&t.MatchTimeout, &d.MatchTimeout},
		{&t.LateMatchDelay, &d.LateMatchDelay},
		{&t.ToastDuration, &d.ToastDuration},
		{&t.ReplyDelay, &d.ReplyDelay},
		{&t.TrackDuration, &d.TrackDuration},
		{&t.TrackTick, &d.TrackTick},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	return t
}

type SubmitCommand struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Time        string   `json:"time"`
	Price       *float64 `json:"price,omitempty"`
}

type Session struct {
	id      string
	user    models.UserProfile
	deps    Deps
	timings Timings
	logger  *slog.Logger

	mu           sync.Mutex
	gen          uint64
	state        State
	role         models.Role
	request      *models.RideRequest
	matches      []models.MatchCandidate
	selected     *models.MatchCandidate
	messages     []models.ChatMessage
	toast        *models.MatchCandidate
	confirmation *models.RideHistoryItem
	tracker      *tracking.Progress
	lastErr      error

	lateTimer   clock.Timer
	toastTimer  clock.Timer
	trackTimer  clock.Timer
	replyTimers []clock.Timer

	outbox []models.SessionEvent
}

func New(id string, user models.UserProfile, role models.Role, deps Deps, timings Timings) (*Session, error) {
	if deps.Provider == nil {
		return nil, errors.New("session: match provider is required")
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Err: fmt.Errorf("unknown role %q", role)}
	}
	if id == "" {
		id = uuid.NewString()
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewReal()
	}
	if deps.Scorer == nil {
		deps.Scorer = scoring.NewEngine(time.Now().UnixNano())
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:      id,
		user:    user,
		deps:    deps,
		timings: timings.withDefaults(),
		logger:  logger.With("session_id", id),
		state:   StateIdle,
		role:    role,
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetRole switches between offering and finding rides; only while IDLE.
func (s *Session) SetRole(role models.Role) error {
	if !role.Valid() {
		return &ValidationError{Field: "role", Err: fmt.Errorf("unknown role %q", role)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return stateError("set role", s.state)
	}
	s.role = role
	return nil
}

// Submit validates cmd, lists it in the community pool and asks the
// provider for counterparts. It blocks until results arrive, the provider
// fails, or MatchTimeout elapses. An invalid command changes nothing.
func (s *Session) Submit(ctx context.Context, cmd SubmitCommand) ([]models.MatchCandidate, error) {
	s.mu.Lock()
	if !CanTransition(s.state, StateSubmitting) {
		st := s.state
		s.mu.Unlock()
		return nil, stateError("submit", st)
	}
	role := s.role
	req, post, err := s.buildRequest(role, cmd)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.resetResultsLocked()
	s.request = &req
	s.lastErr = nil
	s.setStateLocked(StateSubmitting)
	gen := s.gen
	s.unlockAndFlush()

	if s.deps.Posts != nil {
		if err := s.deps.Posts.Publish(ctx, post); err != nil {
			observability.SideEffectFails.WithLabelValues("pool_publish").Inc()
			s.logger.Warn("publish post failed", "post_id", post.ID, "error", err)
		}
	}
	s.publish(ctx, events.Event{Type: events.PostPublished, Role: role, Candidate: &post})

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil, ErrSessionReset
	}
	s.request.Status = models.RequestMatching
	s.setStateLocked(StateAwaitingResults)
	s.unlockAndFlush()

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, s.timings.MatchTimeout)
	results, err := s.deps.Provider.FindMatches(cctx, req)
	cancel()
	observability.MatchLatency.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil, ErrSessionReset
	}
	if err != nil {
		merr := &MatchServiceError{Err: err}
		s.lastErr = merr
		s.request.Status = models.RequestPending
		s.setStateLocked(StateFailed)
		s.unlockAndFlush()
		observability.MatchRequests.WithLabelValues("error").Inc()
		s.logger.Warn("find matches failed", "request_id", req.ID, "error", err)
		return nil, merr
	}

	results = pool.WithoutUser(results, req.RequesterID)
	ranked := pool.Sort(s.deps.Scorer.ScoreAll(req, results), pool.SortRecommended)
	s.matches = ranked
	if len(ranked) == 0 {
		s.request.Status = models.RequestPending
		s.setStateLocked(StateNoResults)
	} else {
		s.request.Status = models.RequestMatched
		s.setStateLocked(StateResultsReady)
		s.scheduleLateMatchLocked()
	}
	out := cloneAll(ranked)
	s.unlockAndFlush()

	outcome := "matched"
	if len(out) == 0 {
		outcome = "empty"
	}
	observability.MatchRequests.WithLabelValues(outcome).Inc()
	s.logger.Info("matches ready", "request_id", req.ID, "role", role, "count", len(out))
	s.publish(ctx, events.Event{Type: events.MatchesReady, Role: role, Matches: len(out)})
	return out, nil
}

func (s *Session) buildRequest(role models.Role, cmd SubmitCommand) (models.RideRequest, models.MatchCandidate, error) {
	origin := strings.TrimSpace(cmd.Origin)
	destination := strings.TrimSpace(cmd.Destination)
	if origin == "" {
		return models.RideRequest{}, models.MatchCandidate{}, &ValidationError{Field: "origin", Err: errors.New("must not be empty")}
	}
	if destination == "" {
		return models.RideRequest{}, models.MatchCandidate{}, &ValidationError{Field: "destination", Err: errors.New("must not be empty")}
	}
	at := strings.TrimSpace(cmd.Time)
	if at == "" {
		at = DefaultDepartureTime
	}
	if _, err := timewindow.Parse(at); err != nil {
		return models.RideRequest{}, models.MatchCandidate{}, &ValidationError{Field: "time", Err: err}
	}
	var price *float64
	if role == models.RoleDriver && cmd.Price != nil {
		if *cmd.Price < 0 {
			return models.RideRequest{}, models.MatchCandidate{}, &ValidationError{Field: "price", Err: errors.New("must not be negative")}
		}
		price = models.Price(*cmd.Price)
	}

	req := models.RideRequest{
		ID:          "req-" + uuid.NewString(),
		RequesterID: s.user.ID,
		Role:        role,
		Origin:      origin,
		Destination: destination,
		Time:        at,
		Status:      models.RequestPending,
	}
	post := models.MatchCandidate{
		ID:            strings.ToLower(string(role)) + "-" + uuid.NewString(),
		User:          s.user,
		MatchScore:    100,
		DetourMinutes: 0,
		Price:         price,
		Role:          role,
		Origin:        origin,
		Destination:   destination,
		DepartureTime: at,
	}
	return req, post, nil
}

// Deliver injects a newly arrived candidate into the current results. It
// reports false when the session is not showing results or the id is
// already present.
func (s *Session) Deliver(c models.MatchCandidate) bool {
	s.mu.Lock()
	if s.state != StateResultsReady {
		s.mu.Unlock()
		return false
	}
	ok := s.deliverLocked(c)
	role := s.role
	s.unlockAndFlush()
	if ok {
		s.publish(context.Background(), events.Event{Type: events.LateMatch, Role: role, Candidate: &c})
	}
	return ok
}

func (s *Session) deliverLocked(c models.MatchCandidate) bool {
	if c.User.ID == s.user.ID {
		return false
	}
	for _, m := range s.matches {
		if m.ID == c.ID {
			return false
		}
	}
	c = c.Clone()
	s.matches = append([]models.MatchCandidate{c}, s.matches...)
	s.toast = &c
	stopTimer(&s.toastTimer)
	gen := s.gen
	s.toastTimer = s.deps.Clock.AfterFunc(s.timings.ToastDuration, func() { s.dismissToast(gen) })
	observability.LateMatches.Inc()
	s.queueLocked(models.SessionEvent{Type: models.EventLateMatch, Candidate: &c})
	return true
}

func (s *Session) scheduleLateMatchLocked() {
	if s.deps.LateMatch == nil {
		return
	}
	stopTimer(&s.lateTimer)
	gen := s.gen
	s.lateTimer = s.deps.Clock.AfterFunc(s.timings.LateMatchDelay, func() { s.lateMatchFired(gen) })
}

func (s *Session) lateMatchFired(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.state != StateResultsReady {
		s.mu.Unlock()
		return
	}
	s.lateTimer = nil
	role := s.role
	c, ok := s.deps.LateMatch.LateMatch(role)
	if !ok || !s.deliverLocked(c) {
		s.mu.Unlock()
		return
	}
	s.unlockAndFlush()
	s.publish(context.Background(), events.Event{Type: events.LateMatch, Role: role, Candidate: &c})
}

func (s *Session) dismissToast(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.toast == nil {
		s.mu.Unlock()
		return
	}
	s.toast = nil
	s.toastTimer = nil
	s.queueLocked(models.SessionEvent{Type: models.EventToastDismissed})
	s.unlockAndFlush()
}

// Select connects with a candidate from the current results.
func (s *Session) Select(candidateID string) (models.MatchCandidate, error) {
	s.mu.Lock()
	if s.state != StateResultsReady {
		st := s.state
		s.mu.Unlock()
		return models.MatchCandidate{}, stateError("select", st)
	}
	var found *models.MatchCandidate
	for i := range s.matches {
		if s.matches[i].ID == candidateID {
			c := s.matches[i].Clone()
			found = &c
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return models.MatchCandidate{}, fmt.Errorf("select %s: %w", candidateID, ErrUnknownCandidate)
	}
	stopTimer(&s.lateTimer)
	stopTimer(&s.toastTimer)
	s.toast = nil
	s.selected = found
	s.confirmation = nil
	s.messages = []models.ChatMessage{s.systemMessageLocked(
		fmt.Sprintf("You connected with %s! Discuss the details below.", found.User.Name))}
	s.setStateLocked(StateConnected)
	out := found.Clone()
	s.unlockAndFlush()
	return out, nil
}

// SendMessage appends the user's message and schedules one scripted reply
// from the counterpart.
func (s *Session) SendMessage(text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected && s.state != StateConfirmed {
		return models.ChatMessage{}, stateError("send message", s.state)
	}
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  models.SenderMe,
		Text:      text,
		Timestamp: s.deps.Clock.Now(),
	}
	s.messages = append(s.messages, msg)
	gen := s.gen
	s.replyTimers = append(s.replyTimers, s.deps.Clock.AfterFunc(s.timings.ReplyDelay, func() { s.replyFired(gen) }))
	return msg, nil
}

func (s *Session) replyFired(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.selected == nil || (s.state != StateConnected && s.state != StateConfirmed) {
		s.mu.Unlock()
		return
	}
	text := "Hi! That works perfectly. I'll be at the pickup spot."
	if s.role == models.RoleRider {
		text = "Hey! I can pick you up at that time. Does the main stop work?"
	}
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  s.selected.User.ID,
		Text:      text,
		Timestamp: s.deps.Clock.Now(),
	}
	s.messages = append(s.messages, msg)
	s.queueLocked(models.SessionEvent{Type: models.EventMessage, Message: &msg})
	s.unlockAndFlush()
}

// Confirm books the selected ride. Calling it again once confirmed returns
// the same history item without side effects.
func (s *Session) Confirm(ctx context.Context) (models.RideHistoryItem, error) {
	s.mu.Lock()
	if s.state == StateConfirmed && s.confirmation != nil {
		item := *s.confirmation
		s.mu.Unlock()
		return item, nil
	}
	if s.state != StateConnected || s.selected == nil || s.request == nil {
		st := s.state
		s.mu.Unlock()
		return models.RideHistoryItem{}, stateError("confirm", st)
	}
	role := s.role
	sel := s.selected.Clone()
	item := models.RideHistoryItem{
		ID:          "ride-" + uuid.NewString(),
		Date:        "Today • " + sel.DepartureTime,
		Origin:      sel.Origin,
		Destination: sel.Destination,
		Role:        role,
		Price:       sel.PriceOrZero(),
		Status:      models.HistoryUpcoming,
	}
	text := "Passenger request accepted!"
	if role == models.RoleRider {
		item.DriverName = sel.User.Name
		text = "Ride booked successfully!"
	} else {
		item.RiderName = sel.User.Name
	}
	s.messages = append(s.messages, s.systemMessageLocked(text))
	s.confirmation = &item
	s.request.Status = models.RequestCompleted
	s.setStateLocked(StateConfirmed)
	s.startTrackingLocked(sel)
	gen := s.gen
	s.unlockAndFlush()

	observability.RidesConfirmed.WithLabelValues(string(role)).Inc()
	item = s.recordConfirmation(ctx, gen, role, sel, item)
	s.publish(ctx, events.Event{Type: events.RideConfirmed, Role: role, Candidate: &sel, History: &item})
	return item, nil
}

// recordConfirmation holds payment for a priced rider booking and appends
// the ride to history. Failures are logged; the booking stands.
func (s *Session) recordConfirmation(ctx context.Context, gen uint64, role models.Role, sel models.MatchCandidate, item models.RideHistoryItem) models.RideHistoryItem {
	if s.deps.Payments != nil && role == models.RoleRider && sel.PriceOrZero() > 0 {
		ref, err := s.deps.Payments.Hold(ctx, payments.Cents(sel.PriceOrZero()), currency, "", item.ID)
		if err != nil {
			observability.SideEffectFails.WithLabelValues("payment_hold").Inc()
			s.logger.Warn("payment hold failed", "ride_id", item.ID, "error", err)
		} else {
			item.PaymentRef = ref
			s.mu.Lock()
			if s.gen == gen && s.confirmation != nil && s.confirmation.ID == item.ID {
				s.confirmation.PaymentRef = ref
			}
			s.mu.Unlock()
		}
	}
	if s.deps.History == nil {
		return item
	}
	if err := s.deps.History.Append(ctx, s.user.ID, item); err != nil {
		observability.SideEffectFails.WithLabelValues("history_append").Inc()
		s.logger.Error("append ride history failed", "ride_id", item.ID, "error", err)
		if item.PaymentRef != "" {
			if rerr := s.deps.Payments.Release(ctx, item.PaymentRef); rerr != nil {
				s.logger.Error("release payment hold failed", "ride_id", item.ID, "payment_ref", item.PaymentRef, "error", rerr)
			}
		}
	}
	return item
}

func (s *Session) startTrackingLocked(sel models.MatchCandidate) {
	self, ok := geo.Lookup(s.request.Origin)
	if !ok {
		return
	}
	var counterpart *models.Coord
	if c, ok := geo.Lookup(sel.Origin); ok {
		counterpart = &c
	}
	route := tracking.RouteFor(s.role, self, counterpart)
	s.tracker = tracking.NewProgress(route, s.timings.TrackDuration, s.timings.TrackTick)
	s.scheduleTickLocked()
}

func (s *Session) scheduleTickLocked() {
	gen := s.gen
	s.trackTimer = s.deps.Clock.AfterFunc(s.timings.TrackTick, func() { s.trackTick(gen) })
}

func (s *Session) trackTick(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.state != StateConfirmed || s.tracker == nil {
		s.mu.Unlock()
		return
	}
	pos, done := s.tracker.Advance()
	if done {
		s.trackTimer = nil
	} else {
		s.scheduleTickLocked()
	}
	s.queueLocked(models.SessionEvent{Type: models.EventPosition, Position: &pos})
	s.unlockAndFlush()

	if s.deps.Positions != nil {
		if err := s.deps.Positions.Record(context.Background(), s.id, pos); err != nil {
			s.logger.Debug("record position failed", "error", err)
		}
	}
}

// Position is the tracked vehicle position of a confirmed ride.
func (s *Session) Position() (models.Coord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return models.Coord{}, false
	}
	return s.tracker.Current(), true
}

// Leave cancels every pending timer and returns to IDLE, discarding the
// request, results and chat. The role is kept.
func (s *Session) Leave() {
	s.mu.Lock()
	s.gen++
	stopTimer(&s.lateTimer)
	stopTimer(&s.toastTimer)
	stopTimer(&s.trackTimer)
	for _, t := range s.replyTimers {
		t.Stop()
	}
	s.replyTimers = nil
	tracked := s.tracker != nil
	s.resetResultsLocked()
	s.request = nil
	s.lastErr = nil
	s.setStateLocked(StateIdle)
	s.unlockAndFlush()

	if tracked && s.deps.Positions != nil {
		if err := s.deps.Positions.Forget(context.Background(), s.id); err != nil {
			s.logger.Debug("forget position failed", "error", err)
		}
	}
}

func (s *Session) resetResultsLocked() {
	s.matches = nil
	s.selected = nil
	s.messages = nil
	s.toast = nil
	s.confirmation = nil
	s.tracker = nil
}

type Snapshot struct {
	ID              string                  `json:"id"`
	State           State                   `json:"state"`
	Role            models.Role             `json:"role"`
	User            models.UserProfile      `json:"user"`
	Request         *models.RideRequest     `json:"request,omitempty"`
	Matches         []models.MatchCandidate `json:"matches"`
	Selected        *models.MatchCandidate  `json:"selected,omitempty"`
	Messages        []models.ChatMessage    `json:"messages"`
	NewMatch        *models.MatchCandidate  `json:"new_match,omitempty"`
	ShowToast       bool                    `json:"show_new_match_toast"`
	Confirmation    *models.RideHistoryItem `json:"confirmation,omitempty"`
	Position        *models.Coord           `json:"position,omitempty"`
	RemainingMeters *float64                `json:"remaining_meters,omitempty"`
	LastError       string                  `json:"last_error,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Role:      s.role,
		User:      s.user,
		Matches:   cloneAll(s.matches),
		Messages:  append([]models.ChatMessage{}, s.messages...),
		ShowToast: s.toast != nil,
	}
	if s.request != nil {
		r := *s.request
		snap.Request = &r
	}
	if s.selected != nil {
		c := s.selected.Clone()
		snap.Selected = &c
	}
	if s.toast != nil {
		c := s.toast.Clone()
		snap.NewMatch = &c
	}
	if s.confirmation != nil {
		it := *s.confirmation
		snap.Confirmation = &it
	}
	if s.tracker != nil {
		p := s.tracker.Current()
		d := s.tracker.Route().Remaining(p)
		snap.Position = &p
		snap.RemainingMeters = &d
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

func (s *Session) systemMessageLocked(text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  models.SenderSystem,
		Text:      text,
		Timestamp: s.deps.Clock.Now(),
		IsSystem:  true,
	}
}

func (s *Session) setStateLocked(st State) {
	if s.state == st {
		return
	}
	s.state = st
	s.queueLocked(models.SessionEvent{Type: models.EventStateChanged, State: string(st)})
}

func (s *Session) queueLocked(ev models.SessionEvent) {
	if s.deps.Notifier == nil {
		return
	}
	ev.SessionID = s.id
	ev.At = s.deps.Clock.Now()
	s.outbox = append(s.outbox, ev)
}

// unlockAndFlush releases the lock and then delivers queued notifications.
func (s *Session) unlockAndFlush() {
	out := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	for _, ev := range out {
		s.deps.Notifier.Notify(ev)
	}
}

func (s *Session) publish(ctx context.Context, e events.Event) {
	e.SessionID = s.id
	e.UserID = s.user.ID
	e.At = s.deps.Clock.Now()
	if err := s.deps.Events.Publish(ctx, e); err != nil {
		observability.SideEffectFails.WithLabelValues("event_publish").Inc()
		s.logger.Warn("publish event failed", "event", e.Type, "error", err)
	}
}

func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func cloneAll(items []models.MatchCandidate) []models.MatchCandidate {
	out := make([]models.MatchCandidate, len(items))
	for i, c := range items {
		out[i] = c.Clone()
	}
	return out
}
