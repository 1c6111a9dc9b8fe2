package msa

import (
	"net/http"
	"time"
)

// Option configures the Microsoft account client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all provider calls
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithEndpoints overrides the device-authorization and token endpoints.
// Used to point the client at a stand-in provider in tests.
func WithEndpoints(deviceCodeURL, tokenURL string) Option {
	return func(c *Client) {
		c.deviceCodeURL = deviceCodeURL
		c.tokenURL = tokenURL
	}
}

// WithScope overrides the OAuth scope requested for the device grant
func WithScope(scope string) Option {
	return func(c *Client) {
		c.scope = scope
	}
}

// WithPollDeadline bounds total polling time for one authorization attempt.
// The deadline applies regardless of the expiry the server declares.
func WithPollDeadline(d time.Duration) Option {
	return func(c *Client) {
		c.pollDeadline = d
	}
}

// WithPollInterval overrides the server-supplied polling interval.
// Intended for tests; live polling must honor the server's interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}
