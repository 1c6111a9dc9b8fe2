// Token polling for the device authorization grant per RFC 8628 section 3.4.
package msa

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/hexbound/craftauth/internal/httpx"
)

// fallbackInterval is used when the server declares no polling interval,
// per RFC 8628 section 3.2's default of 5 seconds.
const fallbackInterval = 5 * time.Second

// PendingFunc is invoked after each probe that returns authorization_pending,
// with the time elapsed since polling began and the configured deadline.
// It is never invoked after PollToken returns.
type PendingFunc func(elapsed, deadline time.Duration)

// probeOutcome classifies a single token-endpoint probe
type probeOutcome int

const (
	probeAuthorized probeOutcome = iota // token granted, stop polling
	probePending                        // user has not approved yet, keep polling
	probeFatal                          // any other provider error, stop polling
)

// classifyProbe maps a probe error onto the poller's transition table.
// Only authorization_pending keeps the poller alive; every other failure
// is terminal.
func classifyProbe(err error) probeOutcome {
	if err == nil {
		return probeAuthorized
	}
	var statusErr *httpx.StatusError
	if errors.As(err, &statusErr) && statusErr.OAuthCode == oauthCodePending {
		return probePending
	}
	return probeFatal
}

// PollToken polls the token endpoint at the server-supplied interval until
// the user approves the sign-in, the deadline elapses, a fatal provider
// error occurs, or ctx is cancelled. All timers are released on every exit
// path; pending is never called after return.
func (c *Client) PollToken(ctx context.Context, auth *DeviceAuthorization, pending PendingFunc) (*TokenResponse, error) {
	interval := c.probeInterval(auth)
	started := time.Now()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.NewTimer(c.pollDeadline)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-deadline.C:
			return nil, ErrAuthorizationExpired

		case <-ticker.C:
			token, err := c.checkDeviceCode(ctx, auth.DeviceCode)
			switch classifyProbe(err) {
			case probeAuthorized:
				return token, nil
			case probePending:
				if pending != nil {
					pending(time.Since(started), c.pollDeadline)
				}
			default:
				return nil, fmt.Errorf("polling for token: %w", err)
			}
		}
	}
}

// checkDeviceCode performs one device access token request per RFC 8628
// section 3.4
func (c *Client) checkDeviceCode(ctx context.Context, deviceCode string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":  {deviceCodeGrantType},
		"client_id":   {c.clientID},
		"device_code": {deviceCode},
	}

	var token TokenResponse
	if err := httpx.PostForm(ctx, c.httpClient, c.tokenURL, data, &token); err != nil {
		return nil, err
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access token: %w", httpx.ErrMalformedResponse)
	}

	return &token, nil
}

// probeInterval resolves the polling interval: an explicit override wins,
// then the server-supplied interval, then the RFC default.
func (c *Client) probeInterval(auth *DeviceAuthorization) time.Duration {
	if c.pollInterval > 0 {
		return c.pollInterval
	}
	if auth.Interval > 0 {
		return time.Duration(auth.Interval) * time.Second
	}
	return fallbackInterval
}
