package model

import "time"

// Role names stored in users.role. The zero value of a new account is
// RoleUser; elevated roles are assigned through the admin management
// endpoints, never at signup.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRole reports whether the value is one of the Role* constants.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users`
// table. The struct carries no json tags; handlers define separate response
// types so that the stored credential can never be serialized by accident.
//
// Fields:
//  ID                   – primary key identifier.
//  Name                 – display name.
//  Email                – unique email, normalized to lowercase before storage.
//  Photo                – optional avatar reference.
//  PasswordHash         – bcrypt hash; excluded from default SELECTs.
//  Role                 – one of the Role* constants.
//  PasswordChangedAt    – last credential rotation (nil if never rotated).
//  PasswordResetToken   – SHA-256 hex of the outstanding reset token (nil if none).
//  PasswordResetExpires – expiry of the outstanding reset token.
//  Active               – soft-delete marker; inactive users are excluded
//                         from default queries.
//  CreatedAt/UpdatedAt  – row timestamps.
type User struct {
	ID                   uint64     // users.id
	Name                 string     // users.name
	Email                string     // users.email
	Photo                string     // users.photo
	PasswordHash         string     // users.password_hash
	Role                 string     // users.role
	PasswordChangedAt    *time.Time // users.password_changed_at (nullable)
	PasswordResetToken   *string    // users.password_reset_token (nullable)
	PasswordResetExpires *time.Time // users.password_reset_expires (nullable)
	Active               bool       // users.active
	CreatedAt            time.Time  // users.created_at
	UpdatedAt            time.Time  // users.updated_at
}

// ChangedPasswordAfter reports whether the credential was rotated after the
// given token issuance time. A true result invalidates every session token
// issued before the rotation. The comparison truncates to whole seconds
// because JWT iat claims carry second precision.
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}
