package constants

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 100
)

// Authentication
const (
	MinPasswordLength = 8
	ContextKeyUserID  = "user_id"
	ContextKeyClaims  = "token_claims"
	BearerPrefix      = "Bearer "
)

// Request metadata
const (
	HeaderRequestID     = "X-Request-ID"
	ContextKeyRequestID = "request_id"
)
