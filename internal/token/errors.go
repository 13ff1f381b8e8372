package token

import (
	"errors"
	"fmt"
)

// ErrReauthorizationRequired indicates that we have no usable credentials: either
// the broadcaster has never connected their account, or Twitch has rejected our
// refresh token. The authorization flow must be run again.
var ErrReauthorizationRequired = errors.New("twitch reauthorization required")

// ErrMissingAccessToken indicates that Twitch responded to a token request without
// including an access token
var ErrMissingAccessToken = errors.New("token response did not include an access token")

// ProviderError describes a failed request to the Twitch API: either the request
// could not be made at all (Err is set), or Twitch responded with an unexpected
// status
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twitch %s request failed: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("twitch %s request failed with status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("twitch %s request failed with status %d", e.Op, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
