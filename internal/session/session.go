// Package session holds the identity the planner acts for.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the persisted login. The zero value is Unauthenticated.
type Session struct {
	Email     string `json:"email"`
	Token     string `json:"token,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LoggedIn  bool   `json:"loggedIn"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

var Unauthenticated = Session{}

func New(email, token, firstName string) Session {
	return Session{
		Email:     strings.TrimSpace(email),
		Token:     strings.TrimSpace(token),
		FirstName: strings.TrimSpace(firstName),
		LoggedIn:  true,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s Session) Authenticated() bool {
	return s.LoggedIn && strings.TrimSpace(s.Email) != ""
}

// Owner is the e-mail events are scoped to, empty when unauthenticated.
func (s Session) Owner() string {
	if !s.Authenticated() {
		return ""
	}
	return strings.TrimSpace(s.Email)
}

// ExpiresAt reads the exp claim of the token without verifying its
// signature; only the backend holds the key.
func (s Session) ExpiresAt() (time.Time, bool) {
	if strings.TrimSpace(s.Token) == "" {
		return time.Time{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (s Session) Expired(now time.Time) bool {
	expiresAt, ok := s.ExpiresAt()
	return ok && !now.Before(expiresAt)
}

// Active returns s, or Unauthenticated once the token has expired.
func (s Session) Active(now time.Time) Session {
	if !s.Authenticated() || s.Expired(now) {
		return Unauthenticated
	}
	return s
}

func (s Session) Greeting() string {
	if !s.Authenticated() {
		return "Not signed in"
	}
	if name := strings.TrimSpace(s.FirstName); name != "" {
		return "Signed in as " + name
	}
	return "Signed in as " + s.Owner()
}
