package models

import "time"

// TokenIDLength is the fixed length of session token ids.
const TokenIDLength = 20

// Token is a time-bounded capability binding a caller to a user id. It is
// the sole credential accepted by owner-scoped operations.
type Token struct {
	ID      string    `json:"id"`
	Phone   string    `json:"phone"`
	Expires time.Time `json:"expires"`
}

// ValidAt reports whether the token is usable at instant now. The window is
// strict: a token whose expiry equals now is already invalid.
func (t *Token) ValidAt(now time.Time) bool {
	return now.Before(t.Expires)
}
