package models

import "time"

// SessionUser is the authenticated principal held by a session.
type SessionUser struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SessionState is either AnonymousSession or PresentSession.
type SessionState interface {
	sessionState()
}

// AnonymousSession is a session without a principal.
type AnonymousSession struct{}

// PresentSession is a session carrying an authenticated principal.
type PresentSession struct {
	User SessionUser
}

func (AnonymousSession) sessionState() {}
func (PresentSession) sessionState()   {}

// Principal returns the user held by state, if any.
func Principal(state SessionState) (SessionUser, bool) {
	if p, ok := state.(PresentSession); ok {
		return p.User, true
	}
	return SessionUser{}, false
}

// SessionRecord is the server-side half of a browser session.
type SessionRecord struct {
	ID        string
	User      *SessionUser
	Flash     []string
	CSRFToken string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State converts the record into its SessionState variant.
func (r *SessionRecord) State() SessionState {
	if r == nil || r.User == nil {
		return AnonymousSession{}
	}
	return PresentSession{User: *r.User}
}

// Expired reports whether the record is past its expiry at now.
func (r *SessionRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// NormalizeRole canonicalises a known role name. Unknown roles are kept
// verbatim so the auth gate can reject them.
func (u *SessionUser) NormalizeRole() {
	if role, err := ParseRole(string(u.Role)); err == nil {
		u.Role = role
	}
}
