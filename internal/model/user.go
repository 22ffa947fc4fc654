package model

import "time"

// User represents an application user record as stored in the
// `users` table. A user does not carry a role of its own; roles live on
// church memberships, so the same person can be an ADMIN in one church
// and a LEADER in another.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// TokenPair is the token part of an auth response.
type TokenPair struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
    User struct {
        ID    uint64 `json:"id"`
        Email string `json:"email"`
    } `json:"user"`
    Access  TokenPair `json:"access"`
    Refresh TokenPair `json:"refresh"`
}

// Credentials is the body of register and login requests.
type Credentials struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
