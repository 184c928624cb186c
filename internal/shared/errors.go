package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")
	ErrSignOutFailed    = fmt.Errorf("sign out failed")

	// Remote store errors
	ErrRemote        = fmt.Errorf("remote request failed")
	ErrNotFound      = fmt.Errorf("record not found")
	ErrDuplicate     = fmt.Errorf("duplicate record")
	ErrBucketMissing = fmt.Errorf("storage bucket unavailable")

	// Input validation errors
	ErrValidation       = fmt.Errorf("validation failed")
	ErrMissingArgument  = fmt.Errorf("missing required argument")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrUnsupportedMedia = fmt.Errorf("unsupported media type")
)
