// Package auth handles admin authentication and session management for the
// gallery. There is exactly one admin account, configured via environment
// variables -- no user table, no registration. Sessions are random tokens
// stored in Redis and carried by an HttpOnly cookie.
package auth

import (
	"time"
)

// Session represents an authenticated admin session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest holds the credentials submitted to POST /api/login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=255"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

// LoginInput is the validated input for authenticating the admin.
type LoginInput struct {
	Username string
	Password string
}
