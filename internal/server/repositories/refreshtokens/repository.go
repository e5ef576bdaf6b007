// Package refreshtokens declares the server-side ledger of issued refresh
// tokens, keyed by jti.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository records issued refresh tokens and their revocation state. It
// reports facts only; whether a token is acceptable is decided by callers via
// models.RefreshToken.Usable.
type Repository interface {
	// Create stores a new, non-revoked record. A duplicate jti yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, userID int64, jti string, expiresAt time.Time) (*models.RefreshToken, error)

	// FindByJTI returns the record for jti or common.ErrorNotFound.
	FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)

	// Revoke marks the record revoked if it is not already, and reports
	// whether this call made the change. Of several concurrent callers at
	// most one observes true.
	Revoke(ctx context.Context, jti string) (bool, error)

	// RevokeAllForUser revokes every live record of userID and returns how
	// many were changed.
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}
