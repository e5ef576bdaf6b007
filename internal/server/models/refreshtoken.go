package models

import "time"

// RefreshToken is the ledger record of an issued refresh token, keyed by its
// jti. A revoked record is never un-revoked.
type RefreshToken struct {
	ID        int64
	UserID    int64
	JTI       string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Usable reports whether the record may still be exchanged at now: present,
// not revoked and expiring strictly after now.
func (r *RefreshToken) Usable(now time.Time) bool {
	return r != nil && !r.Revoked && r.ExpiresAt.After(now)
}
