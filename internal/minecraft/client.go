// Package minecraft implements the final leg of the authentication chain:
// redeeming an XSTS security token for a Minecraft session token and
// fetching the player profile.
package minecraft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hexbound/craftauth/internal/httpx"
	"github.com/hexbound/craftauth/internal/xbox"
)

const (
	defaultBaseURL = "https://api.minecraftservices.com"

	loginPath   = "/authentication/login_with_xbox"
	profilePath = "/minecraft/profile"

	// HTTP request timeout
	defaultTimeout = 10 * time.Second
)

// ErrGameNotOwned indicates the account has no Minecraft profile: the game
// has not been purchased (or Game Pass has lapsed), so no session exists to
// fetch a profile for.
var ErrGameNotOwned = errors.New("account does not own minecraft")

// Session is the game-session credential produced by the final hop
type Session struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Profile is the player's public game profile. Skin and cape metadata is
// passed through unparsed.
type Profile struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Skins json.RawMessage `json:"skins,omitempty"`
	Capes json.RawMessage `json:"capes,omitempty"`
}

// Client talks to the Minecraft services API. Each call is a single attempt.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures the Minecraft services client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all calls
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the services base URL.
// Used to point the client at a stand-in provider in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a Minecraft services client with the provided options
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginWithXbox exchanges an XSTS security token and its user-hash claim for
// a Minecraft session token.
func (c *Client) LoginWithXbox(ctx context.Context, securityToken *xbox.Token) (*Session, error) {
	req := struct {
		IdentityToken string `json:"identityToken"`
	}{
		IdentityToken: fmt.Sprintf("XBL3.0 x=%s;%s", securityToken.UserHash, securityToken.Value),
	}

	var session Session
	if err := httpx.PostJSON(ctx, c.httpClient, c.baseURL+loginPath, req, &session); err != nil {
		return nil, fmt.Errorf("logging in with xbox token: %w", err)
	}

	if session.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access token: %w", httpx.ErrMalformedResponse)
	}

	return &session, nil
}

// FetchProfile retrieves the player profile using the session token. A 404
// means the account owns no copy of the game, which callers surface to the
// user differently from a plain provider failure.
func (c *Client) FetchProfile(ctx context.Context, sessionToken string) (*Profile, error) {
	var profile Profile
	if err := httpx.Get(ctx, c.httpClient, c.baseURL+profilePath, sessionToken, &profile); err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, ErrGameNotOwned
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	if profile.ID == "" || profile.Name == "" {
		return nil, fmt.Errorf("profile response missing id or name: %w", httpx.ErrMalformedResponse)
	}

	return &profile, nil
}
