package utils // package utils provides helpers for tokens, hashing and slugs

import (
	"crypto/rand"   // secure random bytes for reset tokens
	"crypto/sha256" // SHA-256 hashing of reset tokens before storage
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signed session tokens
)

// ErrInvalidClaims is returned when a parsed token carries claims that are
// missing or not in the expected shape.
var ErrInvalidClaims = errors.New("invalid token claims")

// NewAuthToken signs an HS256 JWT binding a user identity. The claim set is
// deliberately minimal: subject (sub), issued at (iat) and expiry (exp).
// Everything else about the user is re-resolved from the database on every
// protected request, so tokens never carry stale roles or emails.
func NewAuthToken(secret string, userID uint64, ttlMin int) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(ttlMin) * time.Minute).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseAuthToken verifies the signature and expiry of a session token and
// returns the subject user ID and issuance time. Signature, expiry and
// malformed-token failures surface as jwt sentinel errors so the central
// error handler can classify them distinctly.
func ParseAuthToken(secret, raw string) (uint64, time.Time, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any signing method other than HMAC; accepting whatever the
		// token announces would let a client pick "none".
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, ErrInvalidClaims
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, time.Time{}, ErrInvalidClaims
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return 0, time.Time{}, ErrInvalidClaims
	}
	return uint64(sub), time.Unix(int64(iat), 0).UTC(), nil
}

// NewResetToken returns a high-entropy random token for the password reset
// flow. The raw value is handed to the user out-of-band; only its SHA-256
// hash is ever persisted, so a leaked database row cannot be redeemed.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashResetToken returns the SHA-256 hex digest of a raw reset token. Both
// the issue and redeem paths hash with this function so lookups compare
// digest to digest.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
