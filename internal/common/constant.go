// Package common contains shared constants and sentinel errors used across
// taskkeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme accepted by protected endpoints.
const BearerScheme = "Bearer"

// TokenTypeBearer is the literal token_type returned with every token pair.
const TokenTypeBearer = "bearer"

// RequestIDHeaderName carries the per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"
