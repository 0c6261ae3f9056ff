package models

import "time"

type Role string

const (
	RoleDriver Role = "DRIVER"
	RoleRider  Role = "RIDER"
)

func (r Role) Valid() bool { return r == RoleDriver || r == RoleRider }

// Counterpart is the role a requester is matched against.
func (r Role) Counterpart() Role {
	if r == RoleDriver {
		return RoleRider
	}
	return RoleDriver
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type UserProfile struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	Rating    float64 `json:"rating"` // 0..5
	Verified  bool    `json:"verified"`
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestMatching  RequestStatus = "MATCHING"
	RequestMatched   RequestStatus = "MATCHED"
	RequestCompleted RequestStatus = "COMPLETED"
)

type RideRequest struct {
	ID          string        `json:"id"`
	RequesterID string        `json:"requester_id"`
	Role        Role          `json:"role"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Time        string        `json:"time"`
	Status      RequestStatus `json:"status"`
}

type MatchCandidate struct {
	ID            string      `json:"id"`
	User          UserProfile `json:"user"`
	MatchScore    int         `json:"match_score"` // 0..100
	DetourMinutes int         `json:"detour_minutes"`
	// Price is set only on driver posts.
	Price         *float64 `json:"price,omitempty"`
	Role          Role     `json:"role"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"`
	DepartureDate string   `json:"departure_date,omitempty"`
}

// PriceOrZero treats a missing price as 0.
func (c MatchCandidate) PriceOrZero() float64 {
	if c.Price == nil {
		return 0
	}
	return *c.Price
}

// Clone returns a copy that shares no pointers with c.
func (c MatchCandidate) Clone() MatchCandidate {
	if c.Price != nil {
		p := *c.Price
		c.Price = &p
	}
	return c
}

// Price is a small helper for building optional prices.
func Price(v float64) *float64 { return &v }

const (
	SenderMe     = "me"
	SenderSystem = "system"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsSystem  bool      `json:"is_system,omitempty"`
}

type HistoryStatus string

const (
	HistoryUpcoming  HistoryStatus = "UPCOMING"
	HistoryCompleted HistoryStatus = "COMPLETED"
	HistoryCancelled HistoryStatus = "CANCELLED"
)

type RideHistoryItem struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Role        Role          `json:"role"`
	Price       float64       `json:"price"`
	DriverName  string        `json:"driver_name,omitempty"`
	RiderName   string        `json:"rider_name,omitempty"`
	Status      HistoryStatus `json:"status"`
	PaymentRef  string        `json:"payment_ref,omitempty"`
}

type CardNetwork string

const (
	NetworkVisa       CardNetwork = "VISA"
	NetworkMastercard CardNetwork = "MASTERCARD"
	NetworkAmex       CardNetwork = "AMEX"
)

type PaymentMethod struct {
	ID        string      `json:"id"`
	Type      CardNetwork `json:"type"`
	Last4     string      `json:"last4"`
	Expiry    string      `json:"expiry"` // MM/YY
	IsDefault bool        `json:"is_default"`
}

type SessionEventType string

const (
	EventLateMatch      SessionEventType = "late_match"
	EventToastDismissed SessionEventType = "toast_dismissed"
	EventMessage        SessionEventType = "message"
	EventPosition       SessionEventType = "position"
	EventStateChanged   SessionEventType = "state_changed"
)

// SessionEvent is pushed to the client owning a session.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"session_id"`
	State     string           `json:"state,omitempty"`
	Candidate *MatchCandidate  `json:"candidate,omitempty"`
	Message   *ChatMessage     `json:"message,omitempty"`
	Position  *Coord           `json:"position,omitempty"`
	At        time.Time        `json:"at"`
}
