package model

import "time"

// Roles stored in users.role.
const (
    RoleAdmin    = "ADMIN"
    RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the
// `users` table.  Emails are stored lower-cased and trimmed.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
}

// IsAdmin reports whether the user may modify the catalog.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA-256 hex digest.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}
