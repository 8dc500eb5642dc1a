// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account as stored in the database.
//
// SENSITIVE FIELD HANDLING (OWASP A02 — Cryptographic Failures):
// PasswordHash is tagged `json:"-"`, so even if a User value is ever passed
// to a JSON encoder by mistake, the hash is omitted. API responses never use
// this struct directly anyway — they use Profile, which has no hash field
// at all. Two layers of defence against leaking credentials.
//
// WHY A SEPARATE INTERNAL ID?
// Email is the login key, but it's a poor primary key: users may want to
// change it one day, and it leaks identity when used in URLs or logs.
// We generate an opaque xid string at registration and never change it.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"` // stored lower-cased and trimmed
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Profile is the non-sensitive projection of a User returned by the API.
//
// It is a distinct type (not a filtered User) so the password hash is
// excluded at the type level: there is simply no field for it.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the JSON body of POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
