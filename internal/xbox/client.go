// Package xbox implements the console-identity leg of the authentication
// chain: exchanging a Microsoft-domain access token for an Xbox Live user
// token, then for an XSTS security token scoped to the Minecraft services
// relying party.
package xbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hexbound/craftauth/internal/httpx"
)

const (
	defaultUserAuthURL = "https://user.auth.xboxlive.com/user/authenticate"
	defaultXSTSAuthURL = "https://xsts.auth.xboxlive.com/xsts/authorize"

	// Relying parties for the two exchanges
	userAuthRelyingParty = "http://auth.xboxlive.com"
	xstsRelyingParty     = "rp://api.minecraftservices.com/"

	// HTTP request timeout
	defaultTimeout = 10 * time.Second
)

// Client performs the Xbox Live token exchanges. Each exchange is a single
// attempt; failures are never retried here.
type Client struct {
	httpClient  *http.Client
	userAuthURL string
	xstsAuthURL string
}

// Option configures the Xbox Live client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all exchanges
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithEndpoints overrides the user-token and XSTS endpoints.
// Used to point the client at a stand-in provider in tests.
func WithEndpoints(userAuthURL, xstsAuthURL string) Option {
	return func(c *Client) {
		c.userAuthURL = userAuthURL
		c.xstsAuthURL = xstsAuthURL
	}
}

// NewClient creates an Xbox Live client with the provided options
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		userAuthURL: defaultUserAuthURL,
		xstsAuthURL: defaultXSTSAuthURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserToken exchanges a Microsoft-domain access token for an Xbox Live user
// token. The access token travels as an RPS ticket with the "d=" prefix the
// consumer OAuth flow requires.
func (c *Client) UserToken(ctx context.Context, accessToken string) (*Token, error) {
	req := tokenRequest{
		Properties: userTokenProperties{
			AuthMethod: "RPS",
			SiteName:   "user.auth.xboxlive.com",
			RpsTicket:  "d=" + accessToken,
		},
		RelyingParty: userAuthRelyingParty,
		TokenType:    "JWT",
	}

	token, err := c.exchange(ctx, c.userAuthURL, req)
	if err != nil {
		return nil, fmt.Errorf("exchanging for xbox user token: %w", err)
	}
	return token, nil
}

// XSTSToken exchanges an Xbox Live user token for an XSTS security token
// scoped to the Minecraft services relying party. The two account-state
// error codes the provider signals via XErr are mapped to distinct errors
// because the user-visible remediation differs.
func (c *Client) XSTSToken(ctx context.Context, userToken *Token) (*Token, error) {
	req := tokenRequest{
		Properties: xstsProperties{
			SandboxID:  "RETAIL",
			UserTokens: []string{userToken.Value},
		},
		RelyingParty: xstsRelyingParty,
		TokenType:    "JWT",
	}

	token, err := c.exchange(ctx, c.xstsAuthURL, req)
	if err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.XErr {
			case xErrNoAccount:
				return nil, ErrNoXboxAccount
			case xErrChildAccount:
				return nil, ErrGuardianConsentRequired
			}
		}
		return nil, fmt.Errorf("exchanging for xsts token: %w", err)
	}
	return token, nil
}

// exchange runs one token exchange and validates the response carries both
// the token and the user-hash claim the next hop needs.
func (c *Client) exchange(ctx context.Context, endpoint string, req tokenRequest) (*Token, error) {
	var resp tokenResponse
	if err := httpx.PostJSON(ctx, c.httpClient, endpoint, req, &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, fmt.Errorf("response missing token: %w", httpx.ErrMalformedResponse)
	}
	if len(resp.DisplayClaims.Xui) == 0 || resp.DisplayClaims.Xui[0].Uhs == "" {
		return nil, fmt.Errorf("response missing user hash claim: %w", httpx.ErrMalformedResponse)
	}

	return &Token{
		Value:    resp.Token,
		UserHash: resp.DisplayClaims.Xui[0].Uhs,
	}, nil
}
