package msa

import "errors"

// Errors surfaced by the device authorization flow. Provider-level failures
// arrive as *httpx.StatusError; the sentinels below mark the flow outcomes
// that need distinct handling.
var (
	// ErrAuthorizationExpired indicates the polling deadline elapsed before
	// the user approved the sign-in request.
	ErrAuthorizationExpired = errors.New("device authorization expired before the user approved it")
)

// oauthCodePending is the token endpoint's "keep polling" signal per
// RFC 8628 section 3.5. It never escapes the poller.
const oauthCodePending = "authorization_pending"
