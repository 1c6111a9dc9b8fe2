package msa

// DeviceAuthorization holds the device authorization details returned by the
// Microsoft identity platform per RFC 8628 section 3.2.
type DeviceAuthorization struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"` // Code validity in seconds
	Interval        int    `json:"interval"`   // Poll interval in seconds

	// Human-readable sign-in instructions supplied by the provider.
	Message string `json:"message,omitempty"`
}

// TokenResponse represents the OAuth2 token response per RFC 8628 section 3.5.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`            // The OAuth2 access token
	TokenType    string `json:"token_type"`              // Token type (usually "Bearer")
	ExpiresIn    int    `json:"expires_in"`              // Token validity in seconds
	RefreshToken string `json:"refresh_token,omitempty"` // Long-lived refresh token
	Scope        string `json:"scope,omitempty"`         // OAuth2 scope granted
}
