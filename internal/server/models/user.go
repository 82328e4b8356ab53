// Package models defines the persisted record types of the monitoring core:
// users, session tokens, and checks.
package models

import (
	"strings"
	"time"
)

// PhoneLength is the canonical length of a user id, e.g. "+15555550100".
const PhoneLength = 12

// User is an account record. The phone number doubles as the record id.
// Checks holds the ids of the checks this user owns, in insertion order.
type User struct {
	Phone          string    `json:"phone"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	HashedPassword string    `json:"hashedPassword,omitempty"`
	TOSAgreement   bool      `json:"tosAgreement"`
	Checks         []string  `json:"checks"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Redacted returns a copy safe to hand back to callers: the hashed password
// is never exposed through a read contract.
func (u *User) Redacted() *User {
	out := *u
	out.HashedPassword = ""
	out.Checks = append([]string(nil), u.Checks...)
	return &out
}

// OwnsCheck reports whether id is present in the user's check list.
func (u *User) OwnsCheck(id string) bool {
	for _, c := range u.Checks {
		if c == id {
			return true
		}
	}
	return false
}

// RemoveCheck drops id from the user's check list, preserving order.
// It reports whether the id was present.
func (u *User) RemoveCheck(id string) bool {
	for i, c := range u.Checks {
		if c == id {
			u.Checks = append(u.Checks[:i], u.Checks[i+1:]...)
			return true
		}
	}
	return false
}

// ValidPhone reports whether s is a canonical-length, non-blank phone id.
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) == PhoneLength
}
