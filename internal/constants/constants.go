package constants

const (
	// ContextKeyUser is the gin context key holding the authenticated user.
	ContextKeyUser = "current_user"

	// Pagination bounds
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Validation bounds
	MinPasswordLength = 8
	MinTitleLength    = 3
	MaxUsernameLength = 150
)
