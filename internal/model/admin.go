package model

import "time"

// Admin represents a back-office account as stored in the `admins` table.
// Accounts are created by the bootstrap CLI and are never deleted; they are
// disabled by clearing IsActive instead.
//
// Fields:
//
//	ID           – UUID primary key.
//	Username     – unique login name, matched case-sensitively.
//	PasswordHash – bcrypt hash of the password.
//	Name         – display name.
//	IsActive     – disabled admins cannot log in or use existing sessions.
//	CreatedAt    – timestamp of creation.
type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	Name         string
	IsActive     bool
	CreatedAt    time.Time
}

// Identity returns the public part of the admin record.
func (a Admin) Identity() AdminIdentity {
	return AdminIdentity{ID: a.ID, Username: a.Username, Name: a.Name}
}

// AdminIdentity is what authenticated handlers see of the caller and what
// login and /me return to the client.
type AdminIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// AdminSession models a row of `admin_sessions`.  The bearer token itself is
// never persisted; TokenHash holds its SHA-256 hex digest.
type AdminSession struct {
	TokenHash string
	AdminID   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionAdmin is the result of joining a session to its admin.
type SessionAdmin struct {
	Admin     AdminIdentity
	IsActive  bool
	ExpiresAt time.Time
}
