// Package msa implements the Microsoft account leg of the authentication
// chain: the OAuth 2.0 Device Authorization Grant (RFC 8628) against the
// Microsoft identity platform, plus the refresh-token grant.
package msa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hexbound/craftauth/internal/httpx"
)

const (
	// Microsoft identity platform endpoints for consumer accounts
	defaultDeviceCodeURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"
	defaultTokenURL      = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"

	// Scope required for the Xbox Live exchange downstream, plus
	// offline_access so the provider issues a refresh token.
	defaultScope = "XboxLive.signin offline_access"

	// DefaultPollDeadline bounds total polling time for one attempt
	DefaultPollDeadline = 300 * time.Second

	deviceCodeGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// HTTP request timeout
	defaultTimeout = 10 * time.Second
)

// Client talks to the Microsoft identity platform for a single deployment's
// client ID. It is safe for concurrent use; each polling run owns its own
// device code and timers.
type Client struct {
	httpClient    *http.Client
	clientID      string
	scope         string
	deviceCodeURL string
	tokenURL      string
	pollDeadline  time.Duration
	pollInterval  time.Duration // zero means honor the server-supplied interval
}

// NewClient creates a Microsoft account client with the provided options
func NewClient(clientID string, opts ...Option) (*Client, error) {
	if clientID == "" {
		return nil, errors.New("client ID is required")
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		clientID:      clientID,
		scope:         defaultScope,
		deviceCodeURL: defaultDeviceCodeURL,
		tokenURL:      defaultTokenURL,
		pollDeadline:  DefaultPollDeadline,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// RequestDeviceCode initiates a device authorization flow, returning the
// device code to poll with and the user code to display.
func (c *Client) RequestDeviceCode(ctx context.Context) (*DeviceAuthorization, error) {
	data := url.Values{
		"client_id": {c.clientID},
		"scope":     {c.scope},
	}

	var auth DeviceAuthorization
	if err := httpx.PostForm(ctx, c.httpClient, c.deviceCodeURL, data, &auth); err != nil {
		return nil, fmt.Errorf("requesting device code: %w", err)
	}

	// Both codes are required for the flow to proceed
	if auth.DeviceCode == "" || auth.UserCode == "" {
		return nil, fmt.Errorf("device code response missing required codes: %w", httpx.ErrMalformedResponse)
	}

	return &auth, nil
}

// Refresh redeems a refresh token for a fresh Microsoft-domain access token
// using the standard refresh-token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is required")
	}

	// Configure OAuth client
	conf := &oauth2.Config{
		ClientID: c.clientID,
		Scopes:   strings.Fields(c.scope),
		Endpoint: oauth2.Endpoint{
			TokenURL: c.tokenURL,
			// Public client: credentials travel in the request body
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// Route the exchange through our HTTP client
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("refreshing token: %w", &httpx.StatusError{
				StatusCode: retrieveErr.Response.StatusCode,
				OAuthCode:  retrieveErr.ErrorCode,
				Body:       string(retrieveErr.Body),
			})
		}
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    int(time.Until(token.Expiry).Seconds()),
	}, nil
}
