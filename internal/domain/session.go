package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// UserID is the auth collaborator's user identifier, numeric or string.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	v, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*u = UserID(v)
	return nil
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return SKU(u).MarshalJSON()
}

// User is the opaque user object returned by the auth collaborator.
type User struct {
	ID       UserID     `json:"id"`
	Username string     `json:"username,omitempty"`
	Email    string     `json:"email"`
	Type     string     `json:"type,omitempty"`
	History  HistoryRef `json:"history"`
}

// Session is the authenticated context threaded explicitly into handlers.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// History returns the user's history reference, or the zero value for a nil session.
func (s *Session) History() HistoryRef {
	if s == nil {
		return ""
	}
	return s.User.History
}

// MarshalBinary lets sessions be stored directly as Redis values.
func (s *Session) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}
