package models

import "time"

// Role values for user accounts
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents an account in the system
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	FullName      string
	Role          string
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName returns the user's full name, falling back to the raw email
// when no profile name was captured
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
