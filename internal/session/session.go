// Package session carries the authenticated identity between operations.
package session

import "finwallet/internal/core"

// Session is an immutable value; logging in or out produces a new one.
type Session struct {
	userID string
}

func Anonymous() Session {
	return Session{}
}

func For(userID string) Session {
	return Session{userID: userID}
}

func (s Session) UserID() string {
	return s.userID
}

func (s Session) Authenticated() bool {
	return s.userID != ""
}

// Require returns the user ID or core.ErrNotAuthenticated.
func (s Session) Require() (string, error) {
	if !s.Authenticated() {
		return "", core.ErrNotAuthenticated
	}
	return s.userID, nil
}
