package domain

import "time"

// Session is the per-visitor state holder. It owns one cart and is replaced
// wholesale on every change; Version guards concurrent writers.
type Session struct {
	ID        string    `json:"id"`
	Cart      Cart      `json:"cart"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession returns an empty session that expires ttl after now.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Cart:      Cart{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session has outlived its idle TTL at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Clone returns a copy of s with its own cart backing array.
func (s *Session) Clone() *Session {
	c := *s
	c.Cart = make(Cart, len(s.Cart))
	copy(c.Cart, s.Cart)
	return &c
}

// Receipt describes a completed mock checkout.
type Receipt struct {
	SessionID string    `json:"session_id"`
	Total     int64     `json:"total"`
	ItemCount int       `json:"item_count"`
	Lines     Cart      `json:"lines"`
	Message   string    `json:"message"`
	PlacedAt  time.Time `json:"placed_at"`
}
