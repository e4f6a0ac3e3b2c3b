package sessions

import "time"

// Lifetime is how long a session stays valid after it is issued. Refreshing
// a session does not extend it.
const Lifetime = 7 * 24 * time.Hour

// Session is a persisted login. Rows are deactivated, never deleted.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Usable reports whether the session is active and unexpired at now.
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
