package models

import (
	"strings"
	"time"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialize
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Active       bool      `json:"active"`
	IsAdmin      bool      `json:"is_admin"`
	APIToken     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NewUser is the input for creating a user. The store assigns the ID.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Active       bool
	APIToken     string
}

// LoginForm is the form body for POST /login/.
type LoginForm struct {
	Username string
	Password string
}

// RegisterForm is the form body for POST /register/.
type RegisterForm struct {
	Username  string
	Email     string
	Password  string
	Confirm   string
	FirstName string
	LastName  string
}

// FieldError is a single validation failure attached to a form field.
// An empty Field marks a form-level error.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// String renders the error the way it is flashed to the user.
func (e FieldError) String() string {
	if e.Label == "" {
		return e.Message
	}
	return e.Label + " - " + e.Message
}
