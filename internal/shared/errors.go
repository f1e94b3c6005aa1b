package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Redirect listener errors
	ErrBind              = fmt.Errorf("failed to bind")
	ErrRead              = fmt.Errorf("read error")
	ErrMalformedRedirect = fmt.Errorf("no auth code in redirect")
	ErrTimeout           = fmt.Errorf("timed out waiting for OAuth redirect")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrExchangeFailed   = fmt.Errorf("token exchange failed")

	// Storage errors
	ErrSettingNotFound = fmt.Errorf("setting not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
