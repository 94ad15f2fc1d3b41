package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig    = fmt.Errorf("configuration not found")
	ErrInvalidConfig    = fmt.Errorf("invalid configuration")
	ErrProviderDisabled = fmt.Errorf("identity provider not configured")

	// Account errors
	ErrDuplicateUser      = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserNotFound       = fmt.Errorf("user not found")

	// Authentication & session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrInvalidState     = fmt.Errorf("invalid oauth state")
	ErrSessionNotFound  = fmt.Errorf("session not found")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Storage errors
	ErrPersistence = fmt.Errorf("persistence failure")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
