package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrMissingField       = fmt.Errorf("response missing expected field")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Shuffle errors, one per remote step
	ErrMetadataFetch = fmt.Errorf("failed to fetch playlist name")
	ErrItemFetch     = fmt.Errorf("failed to fetch playlist data")
	ErrCreate        = fmt.Errorf("failed to create empty playlist")
	ErrBatchWrite    = fmt.Errorf("failed to add tracks to playlist")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
